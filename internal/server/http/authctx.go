package httpserver

import (
	"context"

	"github.com/and161185/docqa-auth/internal/model"
	"github.com/gin-gonic/gin"
)

type ctxKey string

const identityKey ctxKey = "docqa.identity"

// ginIdentityKey is the gin.Context key holding the same payload.
const ginIdentityKey = "identity"

// WithIdentity stores the authenticated token payload in context.
func WithIdentity(ctx context.Context, p model.TokenPayload) context.Context {
	return context.WithValue(ctx, identityKey, p)
}

// IdentityFromContext fetches the authenticated token payload from context.
func IdentityFromContext(ctx context.Context) (model.TokenPayload, bool) {
	v := ctx.Value(identityKey)
	if v == nil {
		return model.TokenPayload{}, false
	}
	p, ok := v.(model.TokenPayload)
	return p, ok
}

// identity returns the payload Authenticate attached to c.
func identity(c *gin.Context) (model.TokenPayload, bool) {
	v, ok := c.Get(ginIdentityKey)
	if !ok {
		return model.TokenPayload{}, false
	}
	p, ok := v.(model.TokenPayload)
	return p, ok
}
