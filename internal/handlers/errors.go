package handlers

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/calibrate-api/internal/dto"
	apierrors "github.com/yukikurage/calibrate-api/internal/errors"
	"github.com/yukikurage/calibrate-api/internal/services"
	"github.com/yukikurage/calibrate-api/internal/validation"
)

// bindJSON decodes the body into req and writes a 400 when it does not bind.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		if fields := validation.FieldErrors(err); fields != nil {
			apierrors.ValidationFailed(c, "", fields)
			return false
		}
		apierrors.BadRequest(c, "Invalid request body")
		return false
	}
	return true
}

// checkFields writes a 400 when errs carries any field message.
func checkFields(c *gin.Context, errs dto.FieldErrors) bool {
	if errs.Empty() {
		return true
	}
	apierrors.ValidationFailed(c, "", errs)
	return false
}

// respondError translates a service error into the API error shape. Unknown
// errors are logged and reported without detail.
func respondError(c *gin.Context, err error, action string) {
	var fieldErr *services.FieldError
	switch {
	case errors.As(err, &fieldErr):
		apierrors.ValidationFailed(c, "", map[string]string{fieldErr.Field: fieldErr.Message})
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrSubtaskNotFound):
		apierrors.NotFound(c, "Subtask not found")
	case services.IsNotFound(err):
		apierrors.NotFound(c, "")
	case errors.Is(err, services.ErrAssistantNotConfigured):
		apierrors.ServiceUnavailable(c, "Estimate assistant is not configured")
	default:
		slog.ErrorContext(c.Request.Context(), "request failed", "action", action, "path", c.FullPath(), "error", err)
		apierrors.InternalError(c, "Failed to "+action)
	}
}
