package repository

import (
	"context"

	"github.com/yukikurage/calibrate-api/internal/models"
	"gorm.io/gorm"
)

// GormSubtaskRepository is a GORM implementation of SubtaskRepository
type GormSubtaskRepository struct {
	db *gorm.DB
}

// NewSubtaskRepository creates a new SubtaskRepository
func NewSubtaskRepository(db *gorm.DB) SubtaskRepository {
	return &GormSubtaskRepository{db: db}
}

// ListByTask lists the subtasks of a task in display order
func (r *GormSubtaskRepository) ListByTask(ctx context.Context, taskID uint64) ([]models.Subtask, error) {
	var subtasks []models.Subtask
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("position ASC, id ASC").
		Find(&subtasks).Error
	return subtasks, err
}

// FindByID finds a subtask that belongs to taskID
func (r *GormSubtaskRepository) FindByID(ctx context.Context, taskID, id uint64) (*models.Subtask, error) {
	var subtask models.Subtask
	if err := r.db.WithContext(ctx).Where("task_id = ?", taskID).First(&subtask, id).Error; err != nil {
		return nil, err
	}
	return &subtask, nil
}

// Update saves a subtask
func (r *GormSubtaskRepository) Update(ctx context.Context, subtask *models.Subtask) error {
	return r.db.WithContext(ctx).Save(subtask).Error
}
