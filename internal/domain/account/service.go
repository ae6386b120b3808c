// Package account provides worker accounts, authentication and roles.
package account

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/core/tx"
	"stockflow/internal/domain/ledger"
	"stockflow/pkg/logger"
)

// Filter narrows account listings.
type Filter struct {
	Role     *Role
	IsActive *bool
	Limit    int
	Offset   int
}

// Repository defines account persistence operations.
type Repository interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, accountID id.ID) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	Exists(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, a *Account) error
	Delete(ctx context.Context, accountID id.ID) error
	List(ctx context.Context, f Filter) ([]Account, error)
}

// ServiceConfig holds account service configuration.
type ServiceConfig struct {
	MaxLoginAttempts  int
	LockDuration      time.Duration
	PasswordMinLength int
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxLoginAttempts:  5,
		LockDuration:      15 * time.Minute,
		PasswordMinLength: 8,
	}
}

// Service provides account and authentication logic.
type Service struct {
	repo       Repository
	ledger     ledger.Repository
	txManager  tx.Manager
	jwtService *JWTService
	config     ServiceConfig
}

// NewService creates a new account service.
func NewService(repo Repository, l ledger.Repository, txManager tx.Manager, jwtService *JWTService, config ServiceConfig) *Service {
	return &Service{
		repo:       repo,
		ledger:     l,
		txManager:  txManager,
		jwtService: jwtService,
		config:     config,
	}
}

// RegisterInput carries the fields for a new worker account.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
	Role     Role
}

// Register creates a new worker account and bumps the worker counter.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Account, error) {
	if len(in.Password) < s.config.PasswordMinLength {
		return nil, apperror.NewValidation(
			fmt.Sprintf("password must be at least %d characters", s.config.PasswordMinLength),
		).WithDetail("field", "password")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	a := NewAccount(in.Email, string(passwordHash), in.Name, in.Role)
	a.Phone = in.Phone
	if err := a.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.repo.Exists(ctx, in.Email)
		if err != nil {
			return fmt.Errorf("check email exists: %w", err)
		}
		if exists {
			return apperror.NewDuplicate("account", "email", in.Email)
		}
		if err := s.repo.Create(ctx, a); err != nil {
			return fmt.Errorf("create account: %w", err)
		}
		return s.ledger.IncrementCompany(ctx, ledger.CompanyDelta{TotalWorkers: 1})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "account registered",
		"id", a.ID,
		"email", a.Email,
		"role", a.Role,
	)
	return a, nil
}

// Login authenticates the account and returns an access token.
func (s *Service) Login(ctx context.Context, creds Credentials) (*TokenPair, *Account, error) {
	a, err := s.repo.GetByEmail(ctx, creds.Email)
	if err != nil {
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}
	if err := a.CanLogin(); err != nil {
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(creds.Password)); err != nil {
		a.RecordFailedLogin(s.config.MaxLoginAttempts, s.config.LockDuration)
		_ = s.repo.Update(ctx, a)
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	a.RecordSuccessfulLogin()
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, nil, fmt.Errorf("update account: %w", err)
	}

	token, expiresAt, err := s.jwtService.GenerateAccessToken(a)
	if err != nil {
		return nil, nil, err
	}

	logger.Info(ctx, "account logged in", "id", a.ID, "email", a.Email)
	return &TokenPair{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		TokenType:   "Bearer",
	}, a, nil
}

// UpdateInput carries mutable account fields.
type UpdateInput struct {
	Name  string
	Phone string
	Role  *Role
}

// Update changes account info.
func (s *Service) Update(ctx context.Context, accountID id.ID, in UpdateInput) (*Account, error) {
	a, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if in.Name != "" {
		a.Name = in.Name
	}
	if in.Phone != "" {
		a.Phone = in.Phone
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, apperror.NewValidation("unknown role").WithDetail("role", string(*in.Role))
		}
		a.Role = *in.Role
	}
	a.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}
	return a, nil
}

// ChangePassword verifies the current password and sets a new one.
func (s *Service) ChangePassword(ctx context.Context, accountID id.ID, current, next string) error {
	a, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(current)); err != nil {
		return apperror.NewUnauthorized("invalid credentials")
	}
	if len(next) < s.config.PasswordMinLength {
		return apperror.NewValidation(
			fmt.Sprintf("password must be at least %d characters", s.config.PasswordMinLength),
		).WithDetail("field", "password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	a.PasswordHash = string(hash)
	a.UpdatedAt = time.Now()
	return s.repo.Update(ctx, a)
}

// Deactivate disables the account without deleting it.
func (s *Service) Deactivate(ctx context.Context, accountID id.ID) error {
	a, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	a.IsActive = false
	a.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, a); err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	logger.Info(ctx, "account deactivated", "id", accountID)
	return nil
}

// Delete removes the account and drops the worker counter.
func (s *Service) Delete(ctx context.Context, accountID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, accountID); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, accountID); err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
		return s.ledger.IncrementCompany(ctx, ledger.CompanyDelta{TotalWorkers: -1})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "account deleted", "id", accountID)
	return nil
}

// GetByID returns an account by ID.
func (s *Service) GetByID(ctx context.Context, accountID id.ID) (*Account, error) {
	return s.repo.GetByID(ctx, accountID)
}

// List returns accounts matching the filter.
func (s *Service) List(ctx context.Context, f Filter) ([]Account, error) {
	return s.repo.List(ctx, f)
}
