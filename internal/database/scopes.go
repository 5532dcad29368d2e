package database

import (
	"gorm.io/gorm"

	"github.com/yukikurage/calibrate-api/internal/models"
	"github.com/yukikurage/calibrate-api/internal/utils"
)

// Paginate applies pagination to a GORM query
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset).Limit(params.PageSize)
	}
}

// OwnedBy restricts a query to rows belonging to userID.
func OwnedBy(userID uint64) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	}
}

// ActiveTasks restricts a task query to statuses that count against capacity.
func ActiveTasks(db *gorm.DB) *gorm.DB {
	return db.Where("status IN ?", []models.TaskStatus{models.TaskStatusPlanned, models.TaskStatusInProgress})
}
