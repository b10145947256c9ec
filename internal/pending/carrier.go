package pending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-authgate/fedlink/internal/auth"

	"github.com/gin-contrib/sessions"
)

// Session keys
const (
	SessionAuth    = "auth"     // identity JSON (session carrier)
	SessionAuthRef = "auth_ref" // Redis reference (redis carrier)
)

// ErrNoPendingAuth is returned when the session holds no pending identity
var ErrNoPendingAuth = errors.New("no pending federated sign-in")

// Carrier holds one federated identity between the provider callback and
// the confirmation step. Each operation saves the session.
type Carrier interface {
	Stash(ctx context.Context, session sessions.Session, identity *auth.FederatedIdentity) error
	Retrieve(ctx context.Context, session sessions.Session) (*auth.FederatedIdentity, error)
	Clear(ctx context.Context, session sessions.Session) error
}

// SessionCarrier keeps the identity JSON inside the session itself
type SessionCarrier struct{}

var _ Carrier = (*SessionCarrier)(nil)

func NewSessionCarrier() *SessionCarrier {
	return &SessionCarrier{}
}

func (s *SessionCarrier) Stash(
	_ context.Context,
	session sessions.Session,
	identity *auth.FederatedIdentity,
) error {
	data, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("encode pending identity: %w", err)
	}
	session.Set(SessionAuth, string(data))
	return session.Save()
}

func (s *SessionCarrier) Retrieve(
	_ context.Context,
	session sessions.Session,
) (*auth.FederatedIdentity, error) {
	raw, ok := session.Get(SessionAuth).(string)
	if !ok || raw == "" {
		return nil, ErrNoPendingAuth
	}
	return decodeIdentity([]byte(raw))
}

func (s *SessionCarrier) Clear(_ context.Context, session sessions.Session) error {
	session.Delete(SessionAuth)
	return session.Save()
}

func decodeIdentity(data []byte) (*auth.FederatedIdentity, error) {
	var identity auth.FederatedIdentity
	if err := json.Unmarshal(data, &identity); err != nil {
		return nil, fmt.Errorf("decode pending identity: %w", err)
	}
	if identity.Provider == "" || identity.ProfileID == "" {
		return nil, ErrNoPendingAuth
	}
	return &identity, nil
}
