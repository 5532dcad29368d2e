package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/calibrate-api/internal/constants"
	apierrors "github.com/yukikurage/calibrate-api/internal/errors"
	"github.com/yukikurage/calibrate-api/internal/identity"
	"github.com/yukikurage/calibrate-api/internal/models"
	"github.com/yukikurage/calibrate-api/internal/services"
)

// UserSyncer maps a verified identity onto a local user.
type UserSyncer interface {
	Sync(ctx context.Context, input services.SyncInput) (*models.User, error)
}

// RequireAuth verifies the bearer token and loads the caller's local user
func RequireAuth(verifier identity.Verifier, users UserSyncer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			apierrors.Unauthorized(c, "")
			return
		}

		id, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			message := "Invalid token"
			if errors.Is(err, identity.ErrExpiredToken) {
				message = "Token has expired"
			}
			apierrors.Unauthorized(c, message)
			return
		}

		user, err := users.Sync(c.Request.Context(), services.SyncInput{
			ExternalID: id.Subject,
			Email:      id.Email,
		})
		if err != nil {
			slog.ErrorContext(c.Request.Context(), "user sync failed", "subject", id.Subject, "error", err)
			apierrors.InternalError(c, "Failed to load user")
			return
		}

		c.Set(constants.ContextKeyIdentity, id)
		c.Set(constants.ContextKeyUserID, user.ID)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	switch v := userID.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}
