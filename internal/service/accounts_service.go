package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"chargefleet/internal/auth"
	"chargefleet/internal/models"
	"chargefleet/internal/password"
	"chargefleet/internal/repository"
)

// Account errors.
var (
	ErrUserExists         = errors.New("accounts: user already exists")
	ErrInvalidCredentials = errors.New("accounts: invalid credentials")
)

// AccountsService handles signup, login and membership.
type AccountsService struct {
	users  *repository.UserRepository
	hasher password.Hasher
	tokens *auth.TokenService
	logger *zap.Logger
}

// NewAccountsService builds service.
func NewAccountsService(
	users *repository.UserRepository,
	hasher password.Hasher,
	tokens *auth.TokenService,
	logger *zap.Logger,
) *AccountsService {
	return &AccountsService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
	}
}

// SignupInput is the registration payload.
type SignupInput struct {
	UserID   string
	Name     string
	Contact  string
	Password string
}

// Signup registers a new user.
func (s *AccountsService) Signup(ctx context.Context, input SignupInput) (*models.User, error) {
	if input.UserID == "" || input.Password == "" {
		return nil, fmt.Errorf("user id and password required: %w", ErrInvalidCredentials)
	}
	if _, err := s.users.GetByUserID(ctx, input.UserID); err == nil {
		return nil, fmt.Errorf("user %s: %w", input.UserID, ErrUserExists)
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		UserID:       input.UserID,
		Name:         input.Name,
		Contact:      input.Contact,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.UserID))
	return user, nil
}

// Login checks credentials and issues a token.
func (s *AccountsService) Login(ctx context.Context, userID, plainPassword string) (string, error) {
	user, err := s.users.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", fmt.Errorf("user %s: %w", userID, ErrInvalidCredentials)
		}
		return "", err
	}
	if err := s.hasher.Compare(user.PasswordHash, plainPassword); err != nil {
		return "", fmt.Errorf("user %s: %w", userID, ErrInvalidCredentials)
	}
	return s.tokens.GenerateToken(user.UserID, user.IsMember)
}

// EnsureMember flips the membership flag so the user can hold a balance.
// Idempotent.
func (s *AccountsService) EnsureMember(ctx context.Context, userID string) error {
	user, err := s.users.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsMember {
		return nil
	}
	return s.users.SetMember(ctx, userID, true)
}
