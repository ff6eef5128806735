package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pathfinder-backend/application/commands"
	"pathfinder-backend/domain/core/entities"
	"pathfinder-backend/domain/core/valueobjects"
	"pathfinder-backend/infrastructure/persistence/memory"
	"pathfinder-backend/pkg/auth"
	pkgerrors "pathfinder-backend/pkg/errors"
)

func newAuthService(t *testing.T) (*AuthService, *auth.JWTService) {
	t.Helper()
	tokens, err := auth.NewJWTService(auth.JWTConfig{Secret: "test-secret"})
	require.NoError(t, err)
	return NewAuthService(memory.NewStore(), auth.NewBcryptHasher(4), tokens, zap.NewNop()), tokens
}

func TestAuthService(t *testing.T) {
	ctx := context.Background()
	svc, tokens := newAuthService(t)

	registered, err := svc.Register(ctx, commands.RegisterUserCommand{
		Username: "ada",
		Email:    "Ada@Example.com",
		Password: "analytical",
	})
	require.NoError(t, err)
	assert.Equal(t, "bearer", registered.TokenType)
	assert.Equal(t, "ada", registered.Username)

	t.Run("Should issue a token for the new user", func(t *testing.T) {
		claims, err := tokens.ValidateToken(registered.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, registered.UserID, claims.UserID)
		assert.Equal(t, "ada@example.com", claims.Email)
	})

	t.Run("Should log in with the right password", func(t *testing.T) {
		result, err := svc.Login(ctx, commands.LoginCommand{Username: "ada", Password: "analytical"})
		require.NoError(t, err)
		assert.Equal(t, registered.UserID, result.UserID)
	})

	t.Run("Should reject a wrong password and an unknown user alike", func(t *testing.T) {
		_, err := svc.Login(ctx, commands.LoginCommand{Username: "ada", Password: "difference"})
		require.True(t, pkgerrors.IsUnauthorized(err))
		assert.Equal(t, "INVALID_CREDENTIALS", pkgerrors.GetAppError(err).Code)

		_, err = svc.Login(ctx, commands.LoginCommand{Username: "babbage", Password: "difference"})
		require.True(t, pkgerrors.IsUnauthorized(err))
		assert.Equal(t, "INVALID_CREDENTIALS", pkgerrors.GetAppError(err).Code)
	})

	t.Run("Should refuse duplicate usernames", func(t *testing.T) {
		_, err := svc.Register(ctx, commands.RegisterUserCommand{
			Username: "ada",
			Email:    "other@example.com",
			Password: "analytical",
		})
		require.True(t, pkgerrors.IsConflict(err))
		assert.Equal(t, "USER_EXISTS", pkgerrors.GetAppError(err).Code)
	})

	t.Run("Should validate registration input", func(t *testing.T) {
		_, err := svc.Register(ctx, commands.RegisterUserCommand{Username: "x", Email: "nope", Password: "short"})
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("Should resolve the current user", func(t *testing.T) {
		user, err := svc.Me(ctx, valueobjects.UserID(registered.UserID))
		require.NoError(t, err)
		assert.Equal(t, "ada", user.Username)

		_, err = svc.Me(ctx, "missing")
		assert.ErrorIs(t, err, entities.ErrUserNotFound)
	})
}
