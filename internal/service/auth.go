// Package service contains the session lifecycle and user administration services.
package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	pkgcrypto "github.com/and161185/docqa-auth/internal/crypto"
	"github.com/and161185/docqa-auth/internal/errs"
	"github.com/and161185/docqa-auth/internal/limiter"
	"github.com/and161185/docqa-auth/internal/model"
	"github.com/and161185/docqa-auth/internal/repository"
	"github.com/and161185/docqa-auth/internal/token"
	"github.com/gofrs/uuid/v5"
)

// Client-facing messages.
const (
	MsgPasswordsMismatch = "Passwords do not match"
	MsgEmailTaken        = "Email already taken"
	MsgInvalidCreds      = "Invalid credentials"
	MsgAccountBlocked    = "Account is blocked"
	MsgTooManyAttempts   = "Too many failed sign-in attempts, try again later"
	MsgNoRefreshToken    = "No refresh token found"
	MsgTokenExpired      = "Token expired, sign in again"
	MsgUserNotFound      = "User not found"
	MsgRoleChanged       = "Your permissions have been changed, please sign in again"
	MsgInvalidRefresh    = "Invalid refresh token"
)

// PasswordValidator rejects passwords that do not meet the policy.
type PasswordValidator func(password string) error

// AuthService drives sign-up, sign-in, refresh-token rotation and sign-out.
type AuthService interface {
	// Signup creates a VIEWER account. It does not sign the user in.
	Signup(ctx context.Context, email, name, password, confirmPassword string) (userID string, err error)
	// Signin verifies credentials and opens a new refresh session.
	Signin(ctx context.Context, email, password, clientIP string) (model.Session, error)
	// Refresh rotates the presented refresh token into a new pair.
	Refresh(ctx context.Context, refreshToken string) (model.Session, error)
	// Signout revokes the user's refresh session.
	Signout(ctx context.Context, userID string) error
}

type AuthServiceImpl struct {
	users          repository.UserRepository
	tokens         *token.Issuer
	lim            limiter.Limiter
	checkPassword  PasswordValidator
	verifyPassword func(password, encoded string) bool
}

// missingUserHash is verified against when the email is unknown so that both
// failure paths cost one argon2id derivation.
var missingUserHash = sync.OnceValue(func() string {
	h, err := pkgcrypto.HashPassword("docqa-auth:missing-user")
	if err != nil {
		panic(err)
	}
	return h
})

// NewAuthService constructs AuthService with required dependencies.
// A nil limiter disables rate limiting; a nil checkPassword accepts any password.
func NewAuthService(users repository.UserRepository, tokens *token.Issuer, lim limiter.Limiter, checkPassword PasswordValidator) *AuthServiceImpl {
	if lim == nil {
		lim = limiter.Nop{}
	}
	return &AuthServiceImpl{
		users:          users,
		tokens:         tokens,
		lim:            lim,
		checkPassword:  checkPassword,
		verifyPassword: pkgcrypto.VerifyPassword,
	}
}

// Signup hashes the password and stores a new user with role VIEWER.
func (s *AuthServiceImpl) Signup(ctx context.Context, email, name, password, confirmPassword string) (string, error) {
	if password != confirmPassword {
		return "", errs.E(errs.ErrBadRequest, MsgPasswordsMismatch)
	}
	if email == "" || strings.TrimSpace(name) == "" || password == "" {
		return "", errs.E(errs.ErrBadRequest, "email, name and password are required")
	}
	if s.checkPassword != nil {
		if err := s.checkPassword(password); err != nil {
			return "", errs.E(errs.ErrBadRequest, err.Error())
		}
	}

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return "", errs.E(errs.ErrAlreadyExists, MsgEmailTaken)
	case !errors.Is(err, errs.ErrNotFound):
		return "", err
	}

	uid, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	hash, err := pkgcrypto.HashPassword(password)
	if err != nil {
		return "", err
	}
	u := &model.User{
		ID:           uid,
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		Role:         model.RoleViewer,
	}
	if err := s.users.Create(ctx, u); err != nil {
		// lost a race with a concurrent sign-up for the same email
		if errors.Is(err, errs.ErrAlreadyExists) {
			return "", errs.E(errs.ErrAlreadyExists, MsgEmailTaken)
		}
		return "", err
	}
	return uid.String(), nil
}

// Signin authenticates with rate limiting by (email, ip).
func (s *AuthServiceImpl) Signin(ctx context.Context, email, password, clientIP string) (model.Session, error) {
	ipHash := limiter.HashIP(clientIP)

	allowed, _, err := s.lim.Allow(ctx, email, ipHash)
	if err != nil {
		return model.Session{}, err
	}
	if !allowed {
		return model.Session{}, errs.E(errs.ErrRateLimited, MsgTooManyAttempts)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return model.Session{}, err
	}
	encoded := missingUserHash()
	if err == nil {
		encoded = u.PasswordHash
	}
	if !s.verifyPassword(password, encoded) || err != nil {
		// Missing user and wrong password look the same to the caller, timing included.
		if blocked, _, ferr := s.lim.Failure(ctx, email, ipHash); ferr == nil && blocked {
			return model.Session{}, errs.E(errs.ErrRateLimited, MsgTooManyAttempts)
		}
		return model.Session{}, errs.E(errs.ErrUnauthorized, MsgInvalidCreds)
	}
	if u.Blocked {
		return model.Session{}, errs.E(errs.ErrForbidden, MsgAccountBlocked)
	}

	// Success: reset counters (best-effort).
	_ = s.lim.Success(ctx, email, ipHash)

	sess, refreshHash, err := s.issue(u)
	if err != nil {
		return model.Session{}, err
	}
	if err := s.users.SetRefreshHash(ctx, u.ID, &refreshHash, true); err != nil {
		return model.Session{}, err
	}
	return sess, nil
}

// Refresh validates the presented token against the stored hash and rotates it.
// Only one of several concurrent refreshes with the same token can win.
func (s *AuthServiceImpl) Refresh(ctx context.Context, presented string) (model.Session, error) {
	if presented == "" {
		return model.Session{}, errs.E(errs.ErrUnauthorized, MsgNoRefreshToken)
	}
	payload, ok := s.tokens.VerifyRefresh(presented)
	if !ok {
		return model.Session{}, errs.E(errs.ErrUnauthorized, MsgTokenExpired)
	}
	id, err := uuid.FromString(payload.ID)
	if err != nil {
		return model.Session{}, errs.E(errs.ErrUnauthorized, MsgInvalidRefresh)
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.Session{}, errs.E(errs.ErrNotFound, MsgUserNotFound)
		}
		return model.Session{}, err
	}
	if u.Blocked {
		return model.Session{}, errs.E(errs.ErrUnauthorized, MsgAccountBlocked)
	}
	if u.Role != payload.Role {
		return model.Session{}, errs.E(errs.ErrUnauthorized, MsgRoleChanged)
	}
	if u.RefreshTokenHash == nil || !pkgcrypto.TokenMatches(presented, *u.RefreshTokenHash) {
		return model.Session{}, errs.E(errs.ErrUnauthorized, MsgInvalidRefresh)
	}

	sess, newHash, err := s.issue(u)
	if err != nil {
		return model.Session{}, err
	}
	if err := s.users.RotateRefreshHash(ctx, u.ID, *u.RefreshTokenHash, newHash); err != nil {
		if errors.Is(err, errs.ErrRefreshReused) {
			return model.Session{}, errs.E(errs.ErrUnauthorized, MsgInvalidRefresh)
		}
		return model.Session{}, err
	}
	return sess, nil
}

// Signout clears the stored refresh hash. Repeating it is harmless.
func (s *AuthServiceImpl) Signout(ctx context.Context, userID string) error {
	id, err := uuid.FromString(userID)
	if err != nil {
		return errs.E(errs.ErrUnauthorized, "Invalid user")
	}
	if err := s.users.SetRefreshHash(ctx, id, nil, false); err != nil && !errors.Is(err, errs.ErrNotFound) {
		return err
	}
	return nil
}

// issue mints an access/refresh pair from the stored user and returns the
// refresh token digest to persist.
func (s *AuthServiceImpl) issue(u *model.User) (model.Session, string, error) {
	p := u.Payload()
	access, _, err := s.tokens.IssueAccess(p)
	if err != nil {
		return model.Session{}, "", err
	}
	refresh, ttl, err := s.tokens.IssueRefresh(p)
	if err != nil {
		return model.Session{}, "", err
	}
	return model.Session{
		AccessToken:  access,
		RefreshToken: refresh,
		RefreshTTL:   ttl,
		User:         p,
	}, pkgcrypto.HashToken(refresh), nil
}
