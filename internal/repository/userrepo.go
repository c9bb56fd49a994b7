// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/docqa-auth/internal/model"
	"github.com/gofrs/uuid/v5"
)

// UserRepository provides access to user credentials and refresh-session state.
type UserRepository interface {
	// Create inserts a new user; ErrAlreadyExists on duplicate email.
	Create(ctx context.Context, u *model.User) error
	// GetByID loads a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByEmail loads a user by email (exact match).
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// SetRefreshHash overwrites the refresh hash (nil clears it) and optionally stamps last_login.
	SetRefreshHash(ctx context.Context, id uuid.UUID, hash *string, touchLastLogin bool) error
	// RotateRefreshHash replaces oldHash with newHash only if oldHash is still stored.
	RotateRefreshHash(ctx context.Context, id uuid.UUID, oldHash, newHash string) error
	// List returns all users ordered by creation time.
	List(ctx context.Context) ([]model.User, error)
	// UpdateAccess changes role and/or blocked flag; a nil pointer leaves the column as is.
	// Blocking a user also clears the refresh hash.
	UpdateAccess(ctx context.Context, id uuid.UUID, role *model.Role, blocked *bool) (*model.User, error)
	// Rename sets the display name.
	Rename(ctx context.Context, id uuid.UUID, name string) error
}
