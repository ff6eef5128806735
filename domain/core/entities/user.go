package entities

import (
	"errors"
	"strings"
	"time"

	"pathfinder-backend/domain/core/valueobjects"
)

// User is a registered account
type User struct {
	ID           valueobjects.UserID `json:"id"`
	Username     string              `json:"username"`
	Email        string              `json:"email"`
	PasswordHash string              `json:"-"`
	CreatedAt    time.Time           `json:"created_at"`
}

// NewUser creates a user from an already hashed password
func NewUser(username, email, passwordHash string) (*User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	switch {
	case username == "":
		return nil, errors.New("username is required")
	case email == "":
		return nil, errors.New("email is required")
	case passwordHash == "":
		return nil, errors.New("password hash is required")
	}
	return &User{
		ID:           valueobjects.NewUserID(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}, nil
}
