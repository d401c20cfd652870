// Package types provides the shared vocabulary of the Jobni backend: roles,
// statuses, the authenticated caller, and API request/response shapes.
package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// CreateUserRequest represents a registration request.
// Admin accounts cannot be self-registered; see the create-admin command.
type CreateUserRequest struct {
	Name        string   `json:"name" validate:"required,min=1"`
	Email       string   `json:"email" validate:"required,email"`
	Password    string   `json:"password" validate:"required,min=8"`
	Phone       string   `json:"phone,omitempty"`
	Role        Role     `json:"role,omitempty" validate:"omitempty,oneof=employer job_seeker"`
	CompanyName string   `json:"company_name,omitempty"`
	Skills      []string `json:"skills,omitempty" validate:"omitempty,dive,required"`
}

// LoginRequest represents the login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// User is the public view of a user record. It never carries the password hash.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	Role         Role      `json:"role"`
	CompanyName  string    `json:"company_name,omitempty"`
	Skills       []string  `json:"skills"`
	ProfilePic   string    `json:"profile_pic,omitempty"`
	Rating       float64   `json:"rating"`
	TotalRatings int       `json:"total_ratings"`
	CreatedAt    time.Time `json:"created_at"`
}

// LoginResponse is returned by register and login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        *User  `json:"user"`
}

// UpdatePasswordRequest represents a password update request.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// Validate validates the CreateUserRequest using the validator.
func (r *CreateUserRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the LoginRequest using the validator.
func (r *LoginRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the UpdatePasswordRequest using the validator.
func (r *UpdatePasswordRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
