package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/go-authgate/fedlink/internal/mocks"
	"github.com/go-authgate/fedlink/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
)

func TestLocalAuthProvider_Authenticate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{ID: "u1", Email: "ada@x.com", PasswordHash: string(hash)}

	t.Run("valid credentials with mixed-case email", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockUserStore(ctrl)
		store.EXPECT().GetUserByEmail(gomock.Any(), "ada@x.com").Return(user, nil)

		got, err := NewLocalAuthProvider(store).Authenticate(context.Background(), " Ada@X.com ", "correct horse")
		require.NoError(t, err)
		assert.Equal(t, "u1", got.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockUserStore(ctrl)
		store.EXPECT().GetUserByEmail(gomock.Any(), "ada@x.com").Return(user, nil)

		_, err := NewLocalAuthProvider(store).Authenticate(context.Background(), "ada@x.com", "battery staple")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockUserStore(ctrl)
		store.EXPECT().GetUserByEmail(gomock.Any(), "who@x.com").Return(nil, errors.New("record not found"))

		_, err := NewLocalAuthProvider(store).Authenticate(context.Background(), "who@x.com", "x")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}
