package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/and161185/docqa-auth/internal/errs"
	"github.com/and161185/docqa-auth/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, email, name, password_hash, role, refresh_token_hash, blocked, last_login, created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		u    model.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &role,
		&u.RefreshTokenHash, &u.Blocked, &u.LastLogin, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	u.Role = model.Role(role)
	return &u, nil
}

// Create inserts a new user row.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	const q = `
INSERT INTO users (id, email, name, password_hash, role)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Pool.Exec(ctx, q, u.ID, u.Email, u.Name, u.PasswordHash, string(u.Role))
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByID selects a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(r.db.Pool.QueryRow(ctx, q, id))
}

// GetByEmail selects a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	return scanUser(r.db.Pool.QueryRow(ctx, q, email))
}

// SetRefreshHash overwrites refresh_token_hash unconditionally.
func (r *UserRepo) SetRefreshHash(ctx context.Context, id uuid.UUID, hash *string, touchLastLogin bool) error {
	const q = `
UPDATE users
SET refresh_token_hash = $2,
    last_login = CASE WHEN $3 THEN now() ELSE last_login END
WHERE id = $1`
	tag, err := r.db.Pool.Exec(ctx, q, id, hash, touchLastLogin)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// RotateRefreshHash swaps the refresh hash only while it still equals oldHash.
// A concurrent rotation that committed first leaves zero affected rows.
func (r *UserRepo) RotateRefreshHash(ctx context.Context, id uuid.UUID, oldHash, newHash string) error {
	const q = `
UPDATE users
SET refresh_token_hash = $3
WHERE id = $1 AND refresh_token_hash = $2`
	tag, err := r.db.Pool.Exec(ctx, q, id, oldHash, newHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrRefreshReused
	}
	return nil
}

// List returns every user, oldest first.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// UpdateAccess changes role and/or blocked flag and returns the updated row.
func (r *UserRepo) UpdateAccess(ctx context.Context, id uuid.UUID, role *model.Role, blocked *bool) (*model.User, error) {
	const q = `
UPDATE users
SET role = COALESCE($2, role),
    blocked = COALESCE($3, blocked),
    refresh_token_hash = CASE WHEN $3 IS TRUE THEN NULL ELSE refresh_token_hash END
WHERE id = $1
RETURNING ` + userColumns
	var roleArg *string
	if role != nil {
		s := string(*role)
		roleArg = &s
	}
	return scanUser(r.db.Pool.QueryRow(ctx, q, id, roleArg, blocked))
}

// Rename updates the display name.
func (r *UserRepo) Rename(ctx context.Context, id uuid.UUID, name string) error {
	const q = `UPDATE users SET name = $2 WHERE id = $1`
	tag, err := r.db.Pool.Exec(ctx, q, id, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
