package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"pathfinder-backend/application/commands"
	"pathfinder-backend/application/ports"
	"pathfinder-backend/domain/core/entities"
	"pathfinder-backend/domain/core/valueobjects"
	pkgerrors "pathfinder-backend/pkg/errors"
)

func errBadCredentials() error {
	return pkgerrors.NewUnauthorizedError("invalid username or password").WithCode("INVALID_CREDENTIALS")
}

// AuthService registers users and issues tokens
type AuthService struct {
	users  ports.UserRepository
	hasher ports.PasswordHasher
	tokens ports.TokenIssuer
	logger *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users ports.UserRepository, hasher ports.PasswordHasher, tokens ports.TokenIssuer, logger *zap.Logger) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens, logger: logger}
}

// Register creates an account and returns a token for it
func (s *AuthService) Register(ctx context.Context, cmd commands.RegisterUserCommand) (*commands.AuthResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user, err := entities.NewUser(cmd.Username, cmd.Email, hash)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, entities.ErrDuplicate) {
			return nil, pkgerrors.NewConflictError("username or email already registered").WithCode("USER_EXISTS")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID.String()))
	return s.issue(user)
}

// Login verifies credentials and returns a token
func (s *AuthService) Login(ctx context.Context, cmd commands.LoginCommand) (*commands.AuthResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByUsername(ctx, cmd.Username)
	if err != nil {
		if errors.Is(err, entities.ErrUserNotFound) {
			return nil, errBadCredentials()
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err := s.hasher.Compare(user.PasswordHash, cmd.Password); err != nil {
		s.logger.Debug("Password mismatch", zap.String("user_id", user.ID.String()))
		return nil, errBadCredentials()
	}
	return s.issue(user)
}

// Me returns the account behind an authenticated request
func (s *AuthService) Me(ctx context.Context, userID valueobjects.UserID) (*entities.User, error) {
	return s.users.GetUser(ctx, userID)
}

func (s *AuthService) issue(user *entities.User) (*commands.AuthResult, error) {
	token, err := s.tokens.GenerateToken(user.ID.String(), user.Email, []string{"user"})
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &commands.AuthResult{
		AccessToken: token,
		TokenType:   "bearer",
		UserID:      user.ID.String(),
		Username:    user.Username,
	}, nil
}
