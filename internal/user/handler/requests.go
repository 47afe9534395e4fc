package handler

import (
	"strings"

	"landreg/internal/user/models"
	"landreg/internal/user/service"
	dErrors "landreg/pkg/domain-errors"
)

// RegisterRequest is the HTTP request body for POST /users/register.
type RegisterRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate validates the request. Password strength is checked in the
// service so the rule lives next to the hashing.
func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.FullName = strings.TrimSpace(r.FullName)
	if r.FullName == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "full_name is required")
	}
	if strings.TrimSpace(r.Email) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "email is required")
	}
	if r.Password == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "password is required")
	}
	return nil
}

// ToInput converts the request into the service-layer input.
func (r *RegisterRequest) ToInput() service.RegisterInput {
	return service.RegisterInput{
		FullName: r.FullName,
		Email:    r.Email,
		Password: r.Password,
	}
}

// LoginRequest is the HTTP request body for POST /users/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.Email) == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "email and password are required")
	}
	return nil
}

// SetRoleRequest is the HTTP request body for PATCH /users/{id}/role.
type SetRoleRequest struct {
	Role string `json:"role"`
}

func (r *SetRoleRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if !models.Role(r.Role).IsValid() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown role %q", r.Role)
	}
	return nil
}
