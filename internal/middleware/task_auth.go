package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/calibrate-api/internal/constants"
	apierrors "github.com/yukikurage/calibrate-api/internal/errors"
)

// RequireTaskID parses the :id and, when the route has one, :subtaskId path
// parameters. Malformed IDs are reported as not found, like tasks owned by
// someone else.
func RequireTaskID() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := GetUserID(c); !exists {
			apierrors.Unauthorized(c, "")
			return
		}

		taskID, ok := parseID(c.Param("id"))
		if !ok {
			apierrors.NotFound(c, "Task not found")
			return
		}
		c.Set(constants.ContextKeyTaskID, taskID)

		if raw := c.Param("subtaskId"); raw != "" {
			subtaskID, ok := parseID(raw)
			if !ok {
				apierrors.NotFound(c, "Subtask not found")
				return
			}
			c.Set(constants.ContextKeySubtaskID, subtaskID)
		}

		c.Next()
	}
}

// GetTaskID returns the task ID parsed by RequireTaskID
func GetTaskID(c *gin.Context) uint64 {
	return c.GetUint64(constants.ContextKeyTaskID)
}

// GetSubtaskID returns the subtask ID parsed by RequireTaskID
func GetSubtaskID(c *gin.Context) uint64 {
	return c.GetUint64(constants.ContextKeySubtaskID)
}

func parseID(raw string) (uint64, bool) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
