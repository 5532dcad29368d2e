package repository

import (
	"context"

	"github.com/yukikurage/calibrate-api/internal/models"
)

// TaskRepository defines the interface for task data access. Every lookup is
// scoped to the owning user.
type TaskRepository interface {
	// Create creates a task together with its subtasks
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task owned by userID with optional preloading
	FindByID(ctx context.Context, userID, id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// ListActive lists planned and in-progress tasks
	ListActive(ctx context.Context, userID uint64) ([]models.Task, error)

	// ListCompleted lists completed tasks, most recently completed first
	ListCompleted(ctx context.Context, userID uint64) ([]models.Task, error)

	// ListAll lists every task of a user with subtasks
	ListAll(ctx context.Context, userID uint64) ([]models.Task, error)

	// Update saves the task's own columns
	Update(ctx context.Context, task *models.Task) error

	// Delete removes a task and its subtasks
	Delete(ctx context.Context, userID, id uint64) error
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	UserID          uint64
	Status          *models.TaskStatus
	IncludeSubtasks bool
	Page            int
	PageSize        int
}

// SubtaskRepository defines the interface for subtask data access
type SubtaskRepository interface {
	// ListByTask lists the subtasks of a task in display order
	ListByTask(ctx context.Context, taskID uint64) ([]models.Subtask, error)

	// FindByID finds a subtask that belongs to taskID
	FindByID(ctx context.Context, taskID, id uint64) (*models.Subtask, error)

	// Update saves a subtask
	Update(ctx context.Context, subtask *models.Subtask) error
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// CreateWithPreferences creates a user and its default preferences in one transaction
	CreateWithPreferences(ctx context.Context, user *models.User, prefs *models.UserPreferences) error

	// FindByID finds a user by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.User, error)

	// FindByExternalID finds a user by the identity provider subject
	FindByExternalID(ctx context.Context, externalID string) (*models.User, error)

	// Update saves a user's own columns
	Update(ctx context.Context, user *models.User) error

	// Delete removes a user and everything it owns
	Delete(ctx context.Context, id uint64) error
}

// PreferencesRepository defines the interface for user preference data access
type PreferencesRepository interface {
	// FindByUserID finds the preferences of a user
	FindByUserID(ctx context.Context, userID uint64) (*models.UserPreferences, error)

	// Save creates or replaces a user's preferences
	Save(ctx context.Context, prefs *models.UserPreferences) error
}
