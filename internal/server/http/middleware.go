package httpserver

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/and161185/docqa-auth/internal/model"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AccessVerifier checks bearer access tokens.
type AccessVerifier interface {
	VerifyAccess(token string) (model.TokenPayload, bool)
}

// Logging returns a middleware for structured access logging.
func Logging(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		// metadata only, never bodies or cookies
		log.Info("http",
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("dur", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}

// Recover returns a middleware that turns panics into a 500 response.
func Recover(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic",
					zap.Any("reason", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("path", c.Request.URL.Path),
				)
				abort(c, http.StatusInternalServerError, msgInternal)
			}
		}()
		c.Next()
	}
}

// CORS allows credentialed requests from a single frontend origin. Requests
// carrying any other Origin are rejected with 403.
func CORS(origin string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     []string{strings.TrimRight(origin, "/")},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           10 * time.Minute,
	})
}

// bearerToken extracts the token from "Authorization: Bearer <jwt>".
func bearerToken(header string) (string, bool) {
	v := strings.TrimSpace(header)
	if len(v) < 7 || !strings.EqualFold(v[:7], "bearer ") {
		return "", false
	}
	t := strings.TrimSpace(v[7:])
	return t, t != ""
}

// Authenticate rejects requests without a valid access token and attaches the
// token payload as the request identity.
func Authenticate(v AccessVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abort(c, http.StatusUnauthorized, "Missing access token")
			return
		}
		p, ok := v.VerifyAccess(tok)
		if !ok {
			abort(c, http.StatusUnauthorized, "Invalid or expired access token")
			return
		}
		c.Set(ginIdentityKey, p)
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), p))
		c.Next()
	}
}

// Authorize admits identities whose role is listed. No roles admits everyone
// authenticated. It must run after Authenticate.
func Authorize(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := identity(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "Missing access token")
			return
		}
		if len(roles) == 0 {
			c.Next()
			return
		}
		for _, r := range roles {
			if p.Role == r {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, "Forbidden resource")
	}
}
