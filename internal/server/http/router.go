// Package httpserver exposes the auth and user HTTP API over gin.
package httpserver

import (
	"net/http"

	"github.com/and161185/docqa-auth/internal/model"
	"github.com/and161185/docqa-auth/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Options tune the router.
type Options struct {
	// Prefix is prepended to every route, e.g. "/api".
	Prefix string
	// FrontendURL enables CORS for that origin when set.
	FrontendURL string
}

// RefreshPath returns the refresh route under prefix, which is also the
// refresh cookie path.
func RefreshPath(prefix string) string { return prefix + "/auth/refresh" }

// NewRouter wires services into a gin engine.
func NewRouter(auth service.AuthService, users service.UserService, tokens AccessVerifier, log *zap.Logger, opts Options) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies(nil)
	r.Use(Recover(log), Logging(log))
	if opts.FrontendURL != "" {
		r.Use(CORS(opts.FrontendURL))
	}

	h := &handlers{auth: auth, users: users, log: log, refreshPath: RefreshPath(opts.Prefix)}
	authn := Authenticate(tokens)

	api := r.Group(opts.Prefix)

	a := api.Group("/auth")
	a.POST("/signup", h.signup)
	a.POST("/signin", h.signin)
	a.GET("/refresh", h.refresh)
	a.POST("/signout", authn, Authorize(), h.signout)

	u := api.Group("/user", authn)
	u.GET("/view-users", Authorize(model.RoleAdmin), h.viewUsers)
	u.PATCH("/:id/update-user", Authorize(model.RoleAdmin), h.updateUser)
	u.PATCH("/rename-user", Authorize(), h.renameUser)
	u.GET("/me", Authorize(), h.me)

	r.NoRoute(func(c *gin.Context) {
		abort(c, http.StatusNotFound, "Cannot "+c.Request.Method+" "+c.Request.URL.Path)
	})
	return r
}
