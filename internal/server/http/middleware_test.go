package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/and161185/docqa-auth/internal/errs"
	"github.com/and161185/docqa-auth/internal/model"
	"github.com/and161185/docqa-auth/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type fakeVerifier map[string]model.TokenPayload

func (f fakeVerifier) VerifyAccess(tok string) (model.TokenPayload, bool) {
	p, ok := f[tok]
	return p, ok
}

func Test_bearerToken(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Bearer abc.def.ghi": "abc.def.ghi",
		"bearer abc":         "abc",
		"  BEARER   abc  ":   "abc",
		"Basic foo":          "",
		"Bearer   ":          "",
		"":                   "",
		"Bearerabc":          "",
	}
	for in, want := range cases {
		got, ok := bearerToken(in)
		require.Equal(t, want != "", ok, in)
		require.Equal(t, want, got, in)
	}
}

func guarded(v AccessVerifier, roles ...model.Role) *gin.Engine {
	r := gin.New()
	r.GET("/x", Authenticate(v), Authorize(roles...), func(c *gin.Context) {
		p, ok := IdentityFromContext(c.Request.Context())
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.String(http.StatusOK, p.ID)
	})
	r.GET("/no-authn", Authorize(), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func get(r http.Handler, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticateAuthorize(t *testing.T) {
	t.Parallel()
	v := fakeVerifier{
		"admin":  {ID: "1", Role: model.RoleAdmin},
		"viewer": {ID: "2", Role: model.RoleViewer},
	}

	r := guarded(v, model.RoleAdmin, model.RoleEditor)
	require.Equal(t, http.StatusUnauthorized, get(r, "/x", "").Code)
	require.Equal(t, http.StatusUnauthorized, get(r, "/x", "Bearer unknown").Code)
	require.Equal(t, http.StatusForbidden, get(r, "/x", "Bearer viewer").Code)
	w := get(r, "/x", "Bearer admin")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "1", w.Body.String())

	open := guarded(v)
	require.Equal(t, http.StatusOK, get(open, "/x", "Bearer viewer").Code, "empty role list admits any identity")
	require.Equal(t, http.StatusUnauthorized, get(open, "/no-authn", "Bearer viewer").Code, "authorize without identity")
}

func TestIdentityContext(t *testing.T) {
	t.Parallel()
	_, ok := IdentityFromContext(context.Background())
	require.False(t, ok)
	p := model.TokenPayload{ID: "x", Role: model.RoleEditor}
	got, ok := IdentityFromContext(WithIdentity(context.Background(), p))
	require.True(t, ok)
	require.Equal(t, p, got)
}

func TestRecover_CatchesPanic(t *testing.T) {
	t.Parallel()
	r := gin.New()
	r.Use(Recover(zaptest.NewLogger(t)))
	r.GET("/boom", func(*gin.Context) { panic("oh no") })

	w := get(r, "/boom", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), msgInternal)
	require.NotContains(t, w.Body.String(), "oh no")
}

func TestLogging_MetadataOnly(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(Logging(zap.New(core)))
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusAccepted) })

	w := get(r, "/items/42", "Bearer secret-token")
	require.Equal(t, http.StatusAccepted, w.Code)

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "/items/:id", fields["route"])
	require.EqualValues(t, http.StatusAccepted, fields["status"])
	for _, v := range fields {
		require.NotContains(t, fmt.Sprint(v), "secret-token")
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()
	r := gin.New()
	r.Use(CORS("http://localhost:5173/"))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	require.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	require.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
	require.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	// non-browser clients send no Origin
	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestStatusOf(t *testing.T) {
	t.Parallel()
	cases := []struct {
		err  error
		code int
		msg  string
	}{
		{errs.E(errs.ErrBadRequest, "bad"), 400, "bad"},
		{errs.E(errs.ErrUnauthorized, "who"), 401, "who"},
		{errs.E(errs.ErrForbidden, "no"), 403, "no"},
		{errs.E(errs.ErrNotFound, "gone"), 404, "gone"},
		{errs.E(errs.ErrAlreadyExists, "dup"), 409, "dup"},
		{errs.E(errs.ErrRateLimited, "slow"), 429, "slow"},
		{errs.ErrRefreshReused, 401, "Unauthorized"},
		{fmt.Errorf("wrapped: %w", errs.ErrNotFound), 404, "Not Found"},
		{errors.New("pq: connection refused"), 500, msgInternal},
	}
	for _, c := range cases {
		code, msg := statusOf(c.err)
		require.Equal(t, c.code, code, c.err.Error())
		require.Equal(t, c.msg, msg, c.err.Error())
	}
}

// brokenAuth fails every call with an infrastructure error.
type brokenAuth struct{ err error }

var _ service.AuthService = brokenAuth{}

func (b brokenAuth) Signup(context.Context, string, string, string, string) (string, error) {
	return "", b.err
}
func (b brokenAuth) Signin(context.Context, string, string, string) (model.Session, error) {
	return model.Session{}, b.err
}
func (b brokenAuth) Refresh(context.Context, string) (model.Session, error) {
	return model.Session{}, b.err
}
func (b brokenAuth) Signout(context.Context, string) error { return b.err }

func TestUnclassifiedErrorsAreLoggedNotLeaked(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zap.ErrorLevel)
	r := NewRouter(brokenAuth{err: errors.New("dial tcp 10.0.0.5:5432: refused")}, nil, fakeVerifier{}, zap.New(core), Options{Prefix: "/api"})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: "t"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotContains(t, w.Body.String(), "10.0.0.5")
	require.Contains(t, w.Body.String(), msgInternal)
	require.Equal(t, 1, logs.FilterMessage("request failed").Len())
}
