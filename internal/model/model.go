// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Role is a coarse permission level attached to every user.
type Role string

// Known roles.
const (
	RoleAdmin  Role = "ADMIN"
	RoleEditor Role = "EDITOR"
	RoleViewer Role = "VIEWER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// User represents an account stored on the server. Secrets are never stored in plaintext.
type User struct {
	ID               uuid.UUID  // PK
	Email            string     // unique, case-sensitive as stored
	Name             string
	PasswordHash     string     // argon2id PHC string
	Role             Role
	RefreshTokenHash *string    // SHA-256 hex of the current refresh token; nil when signed out
	Blocked          bool
	LastLogin        *time.Time // set on successful sign-in
	CreatedAt        time.Time
}

// Payload returns the token snapshot of the user.
func (u *User) Payload() TokenPayload {
	return TokenPayload{ID: u.ID.String(), Email: u.Email, Name: u.Name, Role: u.Role}
}

// TokenPayload is the identity embedded in signed access and refresh tokens.
type TokenPayload struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// Session is the outcome of a sign-in or refresh.
type Session struct {
	AccessToken  string
	RefreshToken string
	RefreshTTL   time.Duration // cookie lifetime
	User         TokenPayload
}
