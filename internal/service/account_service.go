package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mensa/internal/auth"
	"mensa/internal/database"
	"mensa/internal/models"
)

const resetTokenTTL = time.Hour

// AccountService handles registration, login and the password-reset
// flow. Reset tokens are stored hashed and single use.
type AccountService struct {
	repo    Repository
	mailer  Mailer
	logger  zerolog.Logger
	now     func() time.Time
	hash    func(string) (string, error)
	compare func(hash, password string) bool
}

// Mailer delivers account mail. Failures are logged; they never fail
// the request that triggered them.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

func NewAccountService(repo Repository, mailer Mailer, logger *zerolog.Logger) *AccountService {
	return &AccountService{
		repo:    repo,
		mailer:  mailer,
		logger:  logger.With().Str("component", "accounts").Logger(),
		now:     time.Now,
		hash:    auth.HashPassword,
		compare: auth.CheckPassword,
	}
}

// Register creates a student account in the pending approval state.
func (s *AccountService) Register(ctx context.Context, universityID int64, email, password, name, room string) (*models.User, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, validation("invalid email address")
	}
	if len(password) < 8 {
		return nil, validation("password must be at least 8 characters")
	}
	if name == "" {
		return nil, validation("name is required")
	}

	uni, err := s.repo.GetUniversity(ctx, universityID)
	if err != nil {
		return nil, err
	}
	if !uni.IsActive {
		return nil, validation("university is not accepting registrations")
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		UniversityID: universityID,
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Room:         room,
		Role:         models.RoleStudent,
		Approval:     models.ApprovalPending,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("user_id", user.ID).Int64("university_id", universityID).Msg("student registered")
	return user, nil
}

// Login checks credentials and returns the user. The error is the
// same whether the email is unknown or the password wrong.
func (s *AccountService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !s.compare(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// CreateManager creates a manager account for a tenant. Admin only;
// managers are approved by construction.
func (s *AccountService) CreateManager(ctx context.Context, universityID int64, email, password, name string) (*models.User, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, validation("invalid email address")
	}
	if len(password) < 8 {
		return nil, validation("password must be at least 8 characters")
	}
	if _, err := s.repo.GetUniversity(ctx, universityID); err != nil {
		return nil, err
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		UniversityID: universityID,
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         models.RoleManager,
		Approval:     models.ApprovalApproved,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("user_id", user.ID).Int64("university_id", universityID).Msg("manager created")
	return user, nil
}

// RequestPasswordReset issues a single-use reset token. Only the
// SHA-256 of the token is stored; delivery goes through the mailer.
// An unknown email is a silent success so the endpoint cannot be used
// to probe accounts.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		s.logger.Debug().Msg("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	token := uuid.NewString()
	reset := &models.PasswordReset{
		UserID:    user.ID,
		TokenHash: auth.HashToken(token),
		ExpiresAt: s.now().Add(resetTokenTTL),
	}
	if err := s.repo.CreatePasswordReset(ctx, reset); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, token); err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("send reset mail")
	}
	return nil
}

// ResetPassword consumes a reset token and sets the new password.
func (s *AccountService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 8 {
		return validation("password must be at least 8 characters")
	}

	reset, err := s.repo.ConsumePasswordReset(ctx, auth.HashToken(token), s.now())
	if errors.Is(err, database.ErrNotFound) {
		return validation("reset token is invalid or expired")
	}
	if err != nil {
		return err
	}

	hash, err := s.hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, reset.UserID, hash); err != nil {
		return err
	}

	s.logger.Info().Int64("user_id", reset.UserID).Msg("password reset")
	return nil
}
