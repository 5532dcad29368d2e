package repository

import (
	"context"

	"github.com/yukikurage/calibrate-api/internal/database"
	"github.com/yukikurage/calibrate-api/internal/models"
	"github.com/yukikurage/calibrate-api/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

func orderSubtasks(db *gorm.DB) *gorm.DB {
	return db.Order("subtasks.position ASC, subtasks.id ASC")
}

// Create creates a task together with its subtasks
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(task).Error; err != nil {
			return err
		}

		if len(task.Subtasks) == 0 {
			return nil
		}
		for i := range task.Subtasks {
			task.Subtasks[i].TaskID = task.ID
		}
		return tx.Create(&task.Subtasks).Error
	})
}

// FindByID finds a task owned by userID with optional preloading
func (r *GormTaskRepository) FindByID(ctx context.Context, userID, id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db.WithContext(ctx)

	for _, p := range preload {
		if p == "Subtasks" {
			query = query.Preload(p, orderSubtasks)
			continue
		}
		query = query.Preload(p)
	}

	if err := query.Scopes(database.OwnedBy(userID)).First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves tasks with filtering and pagination, oldest first
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	query := r.db.WithContext(ctx).Model(&models.Task{}).Scopes(database.OwnedBy(filter.UserID))

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("id ASC")
	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.PaginationParams{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			Offset:   (filter.Page - 1) * filter.PageSize,
		}))
	}
	if filter.IncludeSubtasks {
		listQuery = listQuery.Preload("Subtasks", orderSubtasks)
	}

	if err := listQuery.Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// ListActive lists planned and in-progress tasks
func (r *GormTaskRepository) ListActive(ctx context.Context, userID uint64) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.WithContext(ctx).
		Scopes(database.OwnedBy(userID), database.ActiveTasks).
		Order("id ASC").
		Find(&tasks).Error
	return tasks, err
}

// ListCompleted lists completed tasks, most recently completed first
func (r *GormTaskRepository) ListCompleted(ctx context.Context, userID uint64) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.WithContext(ctx).
		Scopes(database.OwnedBy(userID)).
		Where("status = ?", models.TaskStatusCompleted).
		Order("completed_at DESC, id DESC").
		Find(&tasks).Error
	return tasks, err
}

// ListAll lists every task of a user with subtasks
func (r *GormTaskRepository) ListAll(ctx context.Context, userID uint64) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.WithContext(ctx).
		Scopes(database.OwnedBy(userID)).
		Preload("Subtasks", orderSubtasks).
		Order("id ASC").
		Find(&tasks).Error
	return tasks, err
}

// Update saves the task's own columns
func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(task).Error
}

// Delete removes a task and its subtasks. It returns gorm.ErrRecordNotFound
// when userID owns no such task.
func (r *GormTaskRepository) Delete(ctx context.Context, userID, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Task{}).Where("id = ? AND user_id = ?", id, userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Where("task_id = ?", id).Delete(&models.Subtask{}).Error; err != nil {
			return err
		}

		return tx.Where("user_id = ?", userID).Delete(&models.Task{}, id).Error
	})
}
