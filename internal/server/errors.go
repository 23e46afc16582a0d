package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/folio/internal/auth/session"
	draftdomain "github.com/smallbiznis/folio/internal/draft/domain"
	"gorm.io/gorm"
)

// statusClientClosedRequest is the nginx convention for a request the
// client abandoned; net/http has no constant for it.
const statusClientClosedRequest = 499

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Hint    string            `json:"hint,omitempty"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

// ErrorHandlingMiddleware maps domain errors onto HTTP statuses after
// the handler chain ran. Handlers push errors with AbortWithError and
// never write error bodies themselves.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	switch {
	case errors.Is(err, draftdomain.ErrInvalidDraft):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_draft",
			Message: "draft failed validation",
		}
	case errors.Is(err, draftdomain.ErrAuthRequired),
		errors.Is(err, session.ErrInvalidToken):
		return http.StatusUnauthorized, errorPayload{
			Type:    "auth_required",
			Message: "authentication required",
		}
	case errors.Is(err, draftdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "draft not found",
		}
	case errors.Is(err, draftdomain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "store_unavailable",
			Message: "remote draft storage is not provisioned",
			Hint:    "provision_required",
		}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, errorPayload{
			Type:    "timeout",
			Message: "the draft store did not answer in time",
		}
	case errors.Is(err, context.Canceled):
		// A list superseded by a newer one, or a client that hung up.
		// Neither is a server fault.
		return statusClientClosedRequest, errorPayload{
			Type:    "request_superseded",
			Message: "the request was canceled before it finished",
		}
	case errors.Is(err, draftdomain.ErrRemoteFailure):
		return http.StatusBadGateway, errorPayload{
			Type:    "remote_failure",
			Message: "the draft store rejected the request",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}
