package session

import (
	"crypto/sha256"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
)

const encryptKeyContext = "fedlink session encryption\x00"

// NewCookieStore returns a cookie store whose values are signed with
// secret and AES-encrypted, so provider tokens held in a pending identity
// never travel in readable form. encryptKey must be 16, 24 or 32 bytes;
// when empty a 32-byte key is derived from secret.
func NewCookieStore(secret, encryptKey string, opts sessions.Options) cookie.Store {
	blockKey := []byte(encryptKey)
	if len(blockKey) == 0 {
		sum := sha256.Sum256([]byte(encryptKeyContext + secret))
		blockKey = sum[:]
	}

	store := cookie.NewStore([]byte(secret), blockKey)
	store.Options(opts)
	return store
}
