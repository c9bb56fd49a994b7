package service

import (
	"context"
	"testing"

	"github.com/and161185/docqa-auth/internal/errs"
	"github.com/and161185/docqa-auth/internal/model"
	"github.com/and161185/docqa-auth/internal/repository/memory"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, repo *memory.UserRepo, email string) *model.User {
	t.Helper()
	u := &model.User{ID: uuid.Must(uuid.NewV4()), Email: email, Name: "N", PasswordHash: "h", Role: model.RoleViewer}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestUsers_UpdateAccess(t *testing.T) {
	t.Parallel()
	repo := memory.NewUserRepo()
	svc := NewUserService(repo)
	ctx := context.Background()
	u := seedUser(t, repo, "a@b.com")

	_, err := svc.UpdateAccess(ctx, "nope", nil, nil)
	requireKind(t, err, errs.ErrBadRequest, "Invalid user id")

	_, err = svc.UpdateAccess(ctx, u.ID.String(), nil, nil)
	requireKind(t, err, errs.ErrBadRequest, "Nothing to update")

	bad := model.Role("ROOT")
	_, err = svc.UpdateAccess(ctx, u.ID.String(), &bad, nil)
	require.ErrorIs(t, err, errs.ErrBadRequest)

	admin := model.RoleAdmin
	got, err := svc.UpdateAccess(ctx, u.ID.String(), &admin, nil)
	require.NoError(t, err)
	require.Equal(t, model.RoleAdmin, got.Role)
	require.False(t, got.Blocked)

	blocked := true
	got, err = svc.UpdateAccess(ctx, u.ID.String(), nil, &blocked)
	require.NoError(t, err)
	require.True(t, got.Blocked)
	require.Equal(t, model.RoleAdmin, got.Role)

	_, err = svc.UpdateAccess(ctx, uuid.Must(uuid.NewV4()).String(), &admin, nil)
	requireKind(t, err, errs.ErrNotFound, MsgUserNotFound)
}

func TestUsers_RenameAndList(t *testing.T) {
	t.Parallel()
	repo := memory.NewUserRepo()
	svc := NewUserService(repo)
	ctx := context.Background()
	u := seedUser(t, repo, "a@b.com")
	seedUser(t, repo, "c@d.com")

	require.NoError(t, svc.Rename(ctx, u.ID.String(), "  Bob  "))
	got, _ := repo.GetByID(ctx, u.ID)
	require.Equal(t, "Bob", got.Name)

	requireKind(t, svc.Rename(ctx, u.ID.String(), "   "), errs.ErrBadRequest, "name should not be empty")
	requireKind(t, svc.Rename(ctx, uuid.Must(uuid.NewV4()).String(), "X"), errs.ErrNotFound, MsgUserNotFound)
	require.ErrorIs(t, svc.Rename(ctx, "x", "X"), errs.ErrBadRequest)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
}
