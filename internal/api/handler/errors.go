package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/jobboard/internal/api/dto"
	"github.com/cuongbtq/jobboard/internal/domain"
)

var statusByCode = map[string]int{
	domain.CodeInvalidInput:         http.StatusBadRequest,
	domain.CodeNotFound:             http.StatusNotFound,
	domain.CodeUnauthenticated:      http.StatusUnauthorized,
	domain.CodeForbidden:            http.StatusForbidden,
	domain.CodeDuplicateApplication: http.StatusConflict,
	domain.CodeAlreadyExists:        http.StatusConflict,
	domain.CodeInvalidTransition:    http.StatusUnprocessableEntity,
	domain.CodeInactiveJob:          http.StatusConflict,
	domain.CodeConflict:             http.StatusConflict,
	domain.CodeUnavailable:          http.StatusServiceUnavailable,
	domain.CodeInternal:             http.StatusInternalServerError,
}

// StatusFor maps an error code to its HTTP status.
func StatusFor(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondError writes err as JSON. Server-side failures are logged and
// their details hidden from the client.
func (h *Handler) respondError(c *gin.Context, err error) {
	code := domain.Code(err)
	status := StatusFor(code)
	body := dto.ErrorResponse{Error: err.Error(), Code: code}

	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		body.Field = validation.Field
	}

	logger := h.requestLogger(c)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("Request failed",
			slog.String("code", code),
			slog.Any("error", err),
		)
		body.Error = http.StatusText(status)
	case status == http.StatusConflict && domain.IsRetryable(err):
		c.Header("Retry-After", "0")
		logger.Info("Request lost a concurrent update", slog.Any("error", err))
	default:
		logger.Debug("Request rejected",
			slog.String("code", code),
			slog.Any("error", err),
		)
	}

	c.AbortWithStatusJSON(status, body)
}

// bindError reports a malformed request body or query.
func (h *Handler) bindError(c *gin.Context, err error) {
	h.respondError(c, &domain.ValidationError{Field: "body", Reason: err.Error()})
}
