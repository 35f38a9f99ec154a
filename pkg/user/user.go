// Package user implements the User entity (§3) and the registration/login/
// logout HTTP surface (§6), including per-user envelope-keypair issuance at
// registration.
package user

import (
	"time"

	"github.com/google/uuid"
)

// User is the persisted account row. PasswordHash, KeySalt and
// EncryptedPrivateKey never leave this package in a response DTO.
type User struct {
	ID                  uuid.UUID
	Email               string
	Name                string
	PasswordHash        string
	KeySalt             []byte
	PublicKey           []byte
	EncryptedPrivateKey []byte
	IsAdmin             bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// RegisterRequest is the JSON body for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
}

// RegisterResponse is the JSON response for a successful registration.
type RegisterResponse struct {
	ID uuid.UUID `json:"id"`
}

// LoginRequest is the JSON body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Info is the public user information returned from /auth/me.
type Info struct {
	ID      uuid.UUID `json:"id"`
	Email   string    `json:"email"`
	Name    string    `json:"name"`
	IsAdmin bool      `json:"is_admin"`
}

// ToInfo converts a User to its public DTO.
func (u *User) ToInfo() Info {
	return Info{ID: u.ID, Email: u.Email, Name: u.Name, IsAdmin: u.IsAdmin}
}
