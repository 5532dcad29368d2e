package database

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/yukikurage/calibrate-api/internal/models"
	"gorm.io/gorm"
)

type index struct {
	model   interface{}
	name    string
	columns []string
}

// indexes are the composite indexes the task queries rely on. Single column
// indexes are declared on the models.
var indexes = []index{
	// Task list filtered by owner and status
	{&models.Task{}, "idx_tasks_user_status", []string{"user_id", "status"}},
	// Weekly capacity window
	{&models.Task{}, "idx_tasks_user_scheduled", []string{"user_id", "scheduled_date"}},
	{&models.Task{}, "idx_tasks_user_deadline", []string{"user_id", "deadline"}},
	// Completed history
	{&models.Task{}, "idx_tasks_user_completed_at", []string{"user_id", "completed_at"}},
	// Subtasks in display order
	{&models.Subtask{}, "idx_subtasks_task_position", []string{"task_id", "position"}},
}

// AddIndexes creates the named indexes that do not exist yet.
func AddIndexes(db *gorm.DB) error {
	for _, idx := range indexes {
		if db.Migrator().HasIndex(idx.model, idx.name) {
			continue
		}

		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(idx.model); err != nil {
			return fmt.Errorf("failed to parse model for index %s: %w", idx.name, err)
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, stmt.Schema.Table, strings.Join(idx.columns, ", "))
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		slog.Info("created index", "name", idx.name, "table", stmt.Schema.Table)
	}

	return nil
}
