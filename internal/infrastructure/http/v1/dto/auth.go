package dto

import (
	"time"

	"stockflow/internal/domain/account"
)

// RegisterRequest creates a new worker account.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
	Role     string `json:"role" binding:"required"`
}

// ToInput converts to service input.
func (r RegisterRequest) ToInput() account.RegisterInput {
	return account.RegisterInput{
		Email:    r.Email,
		Password: r.Password,
		Name:     r.Name,
		Phone:    r.Phone,
		Role:     account.Role(r.Role),
	}
}

// LoginRequest authenticates an account.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ToCredentials converts to service credentials.
func (r LoginRequest) ToCredentials() account.Credentials {
	return account.Credentials(r)
}

// LoginResponse carries the token and account after login.
type LoginResponse struct {
	AccessToken string           `json:"accessToken"`
	TokenType   string           `json:"tokenType"`
	ExpiresAt   time.Time        `json:"expiresAt"`
	Account     *account.Account `json:"account"`
}

// UpdateAccountRequest edits account info.
type UpdateAccountRequest struct {
	Name  string  `json:"name"`
	Phone string  `json:"phone"`
	Role  *string `json:"role"`
}

// ToInput converts to service input.
func (r UpdateAccountRequest) ToInput() account.UpdateInput {
	in := account.UpdateInput{Name: r.Name, Phone: r.Phone}
	if r.Role != nil {
		role := account.Role(*r.Role)
		in.Role = &role
	}
	return in
}

// ChangePasswordRequest rotates an account's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}
