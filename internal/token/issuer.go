// Package token signs and verifies the access and refresh JWTs.
package token

import (
	"bytes"
	"errors"
	"time"

	"github.com/and161185/docqa-auth/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
)

// Default lifetimes.
const (
	DefaultAccessTTL  = time.Hour
	DefaultRefreshTTL = 30 * 24 * time.Hour
)

// Claims is the JWT body: the identity snapshot plus registered claims.
type Claims struct {
	ID    string     `json:"id"`
	Email string     `json:"email"`
	Name  string     `json:"name"`
	Role  model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Signer signs and verifies HS256 tokens with one secret and one lifetime.
type Signer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	leeway time.Duration
	now    func() time.Time
}

// NewSigner constructs a Signer.
func NewSigner(secret []byte, ttl time.Duration, issuer string, leeway time.Duration) (*Signer, error) {
	if len(secret) == 0 {
		return nil, errors.New("token: empty secret")
	}
	if ttl <= 0 {
		return nil, errors.New("token: ttl must be positive")
	}
	if leeway < 0 {
		return nil, errors.New("token: negative leeway")
	}
	return &Signer{secret: secret, ttl: ttl, issuer: issuer, leeway: leeway, now: time.Now}, nil
}

// TTL returns the lifetime of tokens produced by s.
func (s *Signer) TTL() time.Duration { return s.ttl }

// Sign returns a signed token for p and its lifetime.
func (s *Signer) Sign(p model.TokenPayload) (string, time.Duration, error) {
	jti, err := uuid.NewV4()
	if err != nil {
		return "", 0, err
	}
	now := s.now()
	claims := Claims{
		ID:    p.ID,
		Email: p.Email,
		Name:  p.Name,
		Role:  p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Issuer:    s.issuer,
			ID:        jti.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", 0, err
	}
	return signed, s.ttl, nil
}

// Verify parses tok and returns its payload. Any failure (signature, algorithm,
// expiry, issuer, missing identity) yields false.
func (s *Signer) Verify(tok string) (model.TokenPayload, bool) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.leeway > 0 {
		opts = append(opts, jwt.WithLeeway(s.leeway))
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	var claims Claims
	parsed, err := jwt.NewParser(opts...).ParseWithClaims(tok, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return model.TokenPayload{}, false
	}
	if claims.ID == "" || claims.Subject != claims.ID {
		return model.TokenPayload{}, false
	}
	return model.TokenPayload{ID: claims.ID, Email: claims.Email, Name: claims.Name, Role: claims.Role}, true
}

// Config holds the two independent secrets and lifetimes.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration
}

// Issuer pairs an access signer with a refresh signer.
type Issuer struct {
	access  *Signer
	refresh *Signer
}

// NewIssuer validates cfg and builds both signers. The secrets must differ.
func NewIssuer(cfg Config) (*Issuer, error) {
	if bytes.Equal(cfg.AccessSecret, cfg.RefreshSecret) {
		return nil, errors.New("token: access and refresh secrets must differ")
	}
	access, err := NewSigner(cfg.AccessSecret, cfg.AccessTTL, cfg.Issuer, cfg.Leeway)
	if err != nil {
		return nil, err
	}
	refresh, err := NewSigner(cfg.RefreshSecret, cfg.RefreshTTL, cfg.Issuer, cfg.Leeway)
	if err != nil {
		return nil, err
	}
	return &Issuer{access: access, refresh: refresh}, nil
}

// IssueAccess signs p with the access secret.
func (i *Issuer) IssueAccess(p model.TokenPayload) (string, time.Duration, error) {
	return i.access.Sign(p)
}

// IssueRefresh signs p with the refresh secret.
func (i *Issuer) IssueRefresh(p model.TokenPayload) (string, time.Duration, error) {
	return i.refresh.Sign(p)
}

// VerifyAccess checks an access token.
func (i *Issuer) VerifyAccess(tok string) (model.TokenPayload, bool) { return i.access.Verify(tok) }

// VerifyRefresh checks a refresh token.
func (i *Issuer) VerifyRefresh(tok string) (model.TokenPayload, bool) {
	return i.refresh.Verify(tok)
}

// RefreshTTL returns the refresh lifetime, used for the cookie Max-Age.
func (i *Issuer) RefreshTTL() time.Duration { return i.refresh.TTL() }
