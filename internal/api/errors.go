package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/matheus3301/bcast/internal/broadcast"
	"github.com/matheus3301/bcast/internal/directory"
	"github.com/matheus3301/bcast/internal/validate"
	"go.uber.org/zap"
)

// statusFor maps a domain error to an HTTP status code.
func statusFor(err error) int {
	var (
		ve *validate.ValidationError
		ne *directory.NetworkError
		fe *directory.FormatError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity
	case errors.Is(err, broadcast.ErrSendInFlight):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &ne), errors.As(err, &fe):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		h.logger.Warn("request failed",
			zap.String("path", c.FullPath()),
			zap.Int("status", code),
			zap.Error(err),
		)
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
