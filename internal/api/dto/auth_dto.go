package dto

import (
	"time"

	"github.com/repairflow/workorder-service/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=200"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// RegisterRequest creates a staff account.
type RegisterRequest struct {
	Name          string      `json:"name" validate:"required,max=100"`
	Username      string      `json:"username" validate:"required,max=100"`
	Password      string      `json:"password" validate:"required,min=8,max=200"`
	Role          domain.Role `json:"role" validate:"required,oneof=coordinator technician"`
	Phone         string      `json:"phone" validate:"max=20"`
	ChannelUserID string      `json:"channel_user_id" validate:"max=100"`
}

// UserResponse is the account projection.
type UserResponse struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Role   domain.Role `json:"role"`
	Phone  string      `json:"phone,omitempty"`
	Active bool        `json:"active"`
}

// NewUserResponse projects an account.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:     user.ID,
		Name:   user.Name,
		Role:   user.Role,
		Phone:  user.Phone,
		Active: user.Active,
	}
}
