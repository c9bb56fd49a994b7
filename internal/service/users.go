package service

import (
	"context"
	"errors"
	"strings"

	"github.com/and161185/docqa-auth/internal/errs"
	"github.com/and161185/docqa-auth/internal/model"
	"github.com/and161185/docqa-auth/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// UserService covers account administration: listing, role and block
// changes, and self-rename.
type UserService interface {
	List(ctx context.Context) ([]model.User, error)
	UpdateAccess(ctx context.Context, userID string, role *model.Role, blocked *bool) (*model.User, error)
	Rename(ctx context.Context, userID, name string) error
}

type UserServiceImpl struct {
	users repository.UserRepository
}

// NewUserService constructs UserService.
func NewUserService(users repository.UserRepository) *UserServiceImpl {
	return &UserServiceImpl{users: users}
}

// List returns all accounts.
func (s *UserServiceImpl) List(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}

// UpdateAccess changes role and/or blocked flag. A role change takes effect
// for the user on their next refresh; blocking revokes the session at once.
func (s *UserServiceImpl) UpdateAccess(ctx context.Context, userID string, role *model.Role, blocked *bool) (*model.User, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}
	if role == nil && blocked == nil {
		return nil, errs.E(errs.ErrBadRequest, "Nothing to update")
	}
	if role != nil && !role.Valid() {
		return nil, errs.E(errs.ErrBadRequest, "role must be one of ADMIN, EDITOR, VIEWER")
	}
	u, err := s.users.UpdateAccess(ctx, id, role, blocked)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// Rename sets the caller's display name.
func (s *UserServiceImpl) Rename(ctx context.Context, userID, name string) error {
	id, err := parseUserID(userID)
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return errs.E(errs.ErrBadRequest, "name should not be empty")
	}
	return notFound(s.users.Rename(ctx, id, name))
}

func parseUserID(s string) (uuid.UUID, error) {
	id, err := uuid.FromString(s)
	if err != nil {
		return uuid.Nil, errs.E(errs.ErrBadRequest, "Invalid user id")
	}
	return id, nil
}

func notFound(err error) error {
	if errors.Is(err, errs.ErrNotFound) {
		return errs.E(errs.ErrNotFound, MsgUserNotFound)
	}
	return err
}
