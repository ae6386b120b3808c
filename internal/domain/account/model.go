// Package account provides worker accounts, authentication and roles.
package account

import (
	"context"
	"time"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
)

// Role determines what a worker account may do.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleRep     Role = "rep"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleRep:
		return true
	}
	return false
}

// Account represents a worker account.
type Account struct {
	ID                  id.ID      `db:"id" json:"id"`
	Email               string     `db:"email" json:"email"`
	PasswordHash        string     `db:"password_hash" json:"-"`
	Name                string     `db:"name" json:"name"`
	Phone               string     `db:"phone" json:"phone,omitempty"`
	Role                Role       `db:"role" json:"role"`
	IsActive            bool       `db:"is_active" json:"isActive"`
	LastLoginAt         *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
	FailedLoginAttempts int        `db:"failed_login_attempts" json:"-"`
	LockedUntil         *time.Time `db:"locked_until" json:"-"`
	CreatedAt           time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updatedAt"`
}

// NewAccount creates a new active account.
func NewAccount(email, passwordHash, name string, role Role) *Account {
	now := time.Now()
	return &Account{
		ID:           id.New(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Validate validates account data.
func (a *Account) Validate(ctx context.Context) error {
	if a.Email == "" {
		return apperror.NewValidation("email is required").WithDetail("field", "email")
	}
	if a.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if !a.Role.Valid() {
		return apperror.NewValidation("unknown role").WithDetail("role", string(a.Role))
	}
	return nil
}

// IsLocked returns true if account is locked.
func (a *Account) IsLocked() bool {
	if a.LockedUntil == nil {
		return false
	}
	return time.Now().Before(*a.LockedUntil)
}

// CanLogin checks if the account can login.
func (a *Account) CanLogin() error {
	if !a.IsActive {
		return apperror.NewForbidden("account is disabled")
	}
	if a.IsLocked() {
		return apperror.NewForbidden("account is temporarily locked")
	}
	return nil
}

// RecordFailedLogin increments failed login counter.
func (a *Account) RecordFailedLogin(maxAttempts int, lockDuration time.Duration) {
	a.FailedLoginAttempts++
	if a.FailedLoginAttempts >= maxAttempts {
		lockUntil := time.Now().Add(lockDuration)
		a.LockedUntil = &lockUntil
	}
}

// RecordSuccessfulLogin resets failed login counter.
func (a *Account) RecordSuccessfulLogin() {
	a.FailedLoginAttempts = 0
	a.LockedUntil = nil
	now := time.Now()
	a.LastLoginAt = &now
}

// TokenPair contains the issued access token.
type TokenPair struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	TokenType   string    `json:"tokenType"`
}

// Credentials for login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
