package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Pesokrava/storefront_api/internal/domain"
	"github.com/Pesokrava/storefront_api/internal/pkg/auth"
	"github.com/Pesokrava/storefront_api/internal/pkg/logger"
	pkgvalidator "github.com/Pesokrava/storefront_api/internal/pkg/validator"
)

// Service handles account registration, login and password lifecycle
type Service struct {
	users         domain.UserRepository
	tokens        *auth.JWTManager
	validate      *validator.Validate
	logger        *logger.Logger
	bcryptCost    int
	resetTokenTTL time.Duration
}

// NewService creates a new auth service
func NewService(
	users domain.UserRepository,
	tokens *auth.JWTManager,
	log *logger.Logger,
	bcryptCost int,
	resetTokenTTL time.Duration,
) *Service {
	return &Service{
		users:         users,
		tokens:        tokens,
		validate:      pkgvalidator.Get(),
		logger:        log,
		bcryptCost:    bcryptCost,
		resetTokenTTL: resetTokenTTL,
	}
}

// Register creates a user account and returns it with a signed token.
// Returns ErrAlreadyExists when the email is taken.
func (s *Service) Register(ctx context.Context, name, email, password string) (*domain.User, string, error) {
	user := &domain.User{
		Name:  strings.TrimSpace(name),
		Email: strings.ToLower(strings.TrimSpace(email)),
		Role:  domain.RoleUser,
	}

	if err := s.validate.Struct(user); err != nil {
		return nil, "", domain.ErrInvalidInput
	}
	if len(password) < 8 {
		return nil, "", domain.ErrInvalidInput
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		s.logger.Error("Failed to hash password", err)
		return nil, "", err
	}
	user.PasswordHash = hash

	if err := s.users.Create(ctx, user); err != nil {
		if !errors.Is(err, domain.ErrAlreadyExists) {
			s.logger.Error("Failed to create user", err)
		}
		return nil, "", err
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		s.logger.Error("Failed to sign token", err)
		return nil, "", err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("User registered")

	return user, token, nil
}

// Login verifies credentials and returns the user with a signed token.
// Unknown email and wrong password both read as ErrUnauthorized.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrUnauthorized
		}
		s.logger.Error("Failed to look up user", err)
		return nil, "", err
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, "", domain.ErrUnauthorized
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		s.logger.Error("Failed to sign token", err)
		return nil, "", err
	}

	return user, token, nil
}

// GetUser retrieves the account for an authenticated user ID
func (s *Service) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// ForgotPassword issues a password reset token for the email. The token is
// returned to the caller for delivery; an unknown email yields ErrNotFound.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	token := uuid.New().String()
	expiry := time.Now().Add(s.resetTokenTTL)

	err := s.users.SetResetToken(ctx, strings.ToLower(strings.TrimSpace(email)), token, expiry)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to set reset token", err)
		}
		return "", err
	}

	return token, nil
}

// ResetPassword sets a new password for the holder of an unexpired reset
// token and invalidates the token.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 8 {
		return domain.ErrInvalidInput
	}

	user, err := s.users.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrInvalidInput
		}
		return err
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		s.logger.Error("Failed to hash password", err)
		return err
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		s.logger.Error("Failed to update password", err)
		return err
	}

	if err := s.users.ClearResetToken(ctx, user.ID); err != nil {
		s.logger.Warnf("Failed to clear reset token for user %d: %v", user.ID, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": user.ID,
	}).Info("Password reset")

	return nil
}

// ChangePassword replaces the password of an authenticated user after
// verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return domain.ErrInvalidInput
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if !auth.CheckPassword(currentPassword, user.PasswordHash) {
		return domain.ErrUnauthorized
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		s.logger.Error("Failed to hash password", err)
		return err
	}

	return s.users.UpdatePassword(ctx, userID, hash)
}
