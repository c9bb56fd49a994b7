package httpserver

import (
	"errors"
	"net/http"

	"github.com/and161185/docqa-auth/internal/errs"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
	Path       string `json:"path"`
}

const msgInternal = "Internal server error"

// statusOf maps err to an HTTP status and client-safe message. Unknown errors
// map to 500 and the generic message.
func statusOf(err error) (int, string) {
	var code int
	switch {
	case errors.Is(err, errs.ErrBadRequest):
		code = http.StatusBadRequest
	case errors.Is(err, errs.ErrUnauthorized):
		code = http.StatusUnauthorized
	case errors.Is(err, errs.ErrForbidden):
		code = http.StatusForbidden
	case errors.Is(err, errs.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, errs.ErrAlreadyExists):
		code = http.StatusConflict
	case errors.Is(err, errs.ErrRateLimited):
		code = http.StatusTooManyRequests
	case errors.Is(err, errs.ErrRefreshReused):
		code = http.StatusUnauthorized
	default:
		return http.StatusInternalServerError, msgInternal
	}
	var e *errs.Error
	if errors.As(err, &e) {
		return code, e.Message()
	}
	return code, http.StatusText(code)
}

// abort writes the error body and stops the handler chain.
func abort(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, errorBody{
		StatusCode: code,
		Error:      http.StatusText(code),
		Message:    msg,
		Path:       c.Request.URL.Path,
	})
}

// fail classifies err, logs unclassified faults and writes the response.
func fail(c *gin.Context, log *zap.Logger, err error) {
	code, msg := statusOf(err)
	if code == http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}
	abort(c, code, msg)
}
