package auth

import (
	"context"
	"errors"
)

// UserContext represents user information from JWT
type UserContext struct {
	UserID string
	Email  string
	Roles  []string
}

type contextKey string

const userContextKey contextKey = "user"

// ErrNoUser is returned when a request carries no authenticated user
var ErrNoUser = errors.New("user not found in context")

// WithUser adds user to context
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext extracts user from context
func UserFromContext(ctx context.Context) (*UserContext, error) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	if !ok || user == nil {
		return nil, ErrNoUser
	}
	return user, nil
}

// NewUserContext builds the request user from validated claims
func NewUserContext(claims *Claims) *UserContext {
	return &UserContext{UserID: claims.UserID, Email: claims.Email, Roles: claims.Roles}
}
