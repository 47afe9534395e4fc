package models

import (
	"strings"
	"time"

	id "landreg/pkg/domain"
	dErrors "landreg/pkg/domain-errors"
)

// Role controls route access. Citizens own applications; officers review
// them; admins additionally manage accounts and read audit logs.
type Role string

const (
	RoleCitizen Role = "citizen"
	RoleOfficer Role = "officer"
	RoleAdmin   Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleCitizen, RoleOfficer, RoleAdmin:
		return true
	}
	return false
}

// User is one account. PasswordHash never leaves the service layer.
type User struct {
	ID           id.UserID `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUser validates input and constructs a user. The caller supplies the
// already-hashed password.
func NewUser(userID id.UserID, fullName, email, passwordHash string, role Role, now time.Time) (*User, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "full name is required")
	}
	email = NormalizeEmail(email)
	if !validEmail(email) {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid email %q", email)
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "password hash is required")
	}
	if !role.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown role %q", role)
	}

	return &User{
		ID:           userID,
		FullName:     fullName,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
	}, nil
}

// NormalizeEmail lowercases and trims; emails are unique case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validEmail is a syntactic sanity check, not an RFC validator; delivery is
// the only real test of an address.
func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.ContainsAny(email, " \t")
}
