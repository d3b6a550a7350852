package api

import (
	"errors"
	"fmt"
	"net/http"

	"findash/internal/auth"
	"findash/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	errForbidden  = errors.New("access denied")
	errValidation = errors.New("validation failed")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errValidation, fmt.Sprintf(format, args...))
}

// respondError maps an error to its status code. Unexpected errors are logged and hidden.
func (s *Server) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := "internal server error"

	switch {
	case errors.Is(err, errValidation), errors.Is(err, auth.ErrInvalidInput):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		status, msg = http.StatusUnauthorized, err.Error()
	case errors.Is(err, errForbidden):
		status, msg = http.StatusForbidden, err.Error()
	case errors.Is(err, store.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, auth.ErrUserExists):
		status, msg = http.StatusConflict, err.Error()
	default:
		s.logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	}
	c.JSON(status, gin.H{"error": msg})
}
