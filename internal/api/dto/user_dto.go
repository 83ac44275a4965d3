package dto

import (
	"time"

	"github.com/cuongbtq/jobboard/internal/domain"
)

type RegisterRequest struct {
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	Role        string `json:"role" binding:"required"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	CompanyName string `json:"company_name"`
	PhoneNumber string `json:"phone_number"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string  `json:"token"`
	TokenType string  `json:"token_type"`
	ExpiresAt string  `json:"expires_at"`
	User      UserDTO `json:"user"`
}

type UpdateProfileRequest struct {
	Email       string `json:"email" binding:"required"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	CompanyName string `json:"company_name"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

// UserDTO never carries the password hash.
type UserDTO struct {
	UserID      int64  `json:"user_id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func NewUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		UserID:      u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        string(u.Role),
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		CompanyName: u.CompanyName,
		PhoneNumber: u.PhoneNumber,
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   u.UpdatedAt.Format(time.RFC3339),
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}
