// Package memory provides an in-process UserRepository with the same
// atomicity guarantees as the PostgreSQL one. It backs service and handler tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/and161185/docqa-auth/internal/errs"
	"github.com/and161185/docqa-auth/internal/model"
	"github.com/gofrs/uuid/v5"
)

// UserRepo is a mutex-guarded map of users.
type UserRepo struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*model.User
	byEmail map[string]uuid.UUID
	now     func() time.Time
}

// NewUserRepo returns an empty repository.
func NewUserRepo() *UserRepo {
	return &UserRepo{
		byID:    map[uuid.UUID]*model.User{},
		byEmail: map[string]uuid.UUID{},
		now:     time.Now,
	}
}

func clone(u *model.User) *model.User {
	c := *u
	if u.RefreshTokenHash != nil {
		h := *u.RefreshTokenHash
		c.RefreshTokenHash = &h
	}
	if u.LastLogin != nil {
		t := *u.LastLogin
		c.LastLogin = &t
	}
	return &c
}

// Create stores a copy of u.
func (r *UserRepo) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[u.Email]; ok {
		return errs.ErrAlreadyExists
	}
	if _, ok := r.byID[u.ID]; ok {
		return errs.ErrAlreadyExists
	}
	c := clone(u)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.now()
	}
	r.byID[u.ID] = c
	r.byEmail[u.Email] = u.ID
	return nil
}

// GetByID returns a copy of the user.
func (r *UserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return clone(u), nil
}

// GetByEmail returns a copy of the user.
func (r *UserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return clone(r.byID[id]), nil
}

// SetRefreshHash overwrites the refresh hash.
func (r *UserRepo) SetRefreshHash(_ context.Context, id uuid.UUID, hash *string, touchLastLogin bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	if hash == nil {
		u.RefreshTokenHash = nil
	} else {
		h := *hash
		u.RefreshTokenHash = &h
	}
	if touchLastLogin {
		now := r.now()
		u.LastLogin = &now
	}
	return nil
}

// RotateRefreshHash is the compare-and-set counterpart of the SQL conditional update.
func (r *UserRepo) RotateRefreshHash(_ context.Context, id uuid.UUID, oldHash, newHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok || u.RefreshTokenHash == nil || *u.RefreshTokenHash != oldHash {
		return errs.ErrRefreshReused
	}
	h := newHash
	u.RefreshTokenHash = &h
	return nil
}

// List returns copies ordered by creation time.
func (r *UserRepo) List(_ context.Context) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, *clone(u))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// UpdateAccess changes role and/or blocked flag. Blocking clears the refresh hash.
func (r *UserRepo) UpdateAccess(_ context.Context, id uuid.UUID, role *model.Role, blocked *bool) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	if role != nil {
		u.Role = *role
	}
	if blocked != nil {
		u.Blocked = *blocked
		if *blocked {
			u.RefreshTokenHash = nil
		}
	}
	return clone(u), nil
}

// Rename sets the display name.
func (r *UserRepo) Rename(_ context.Context, id uuid.UUID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	u.Name = name
	return nil
}
