package models

import "time"

type Subtask struct {
	ID               uint64     `gorm:"primarykey" json:"id"`
	TaskID           uint64     `gorm:"not null;index" json:"task_id"`
	Description      string     `gorm:"type:text;not null" json:"description"`
	EstimatedMinutes int        `gorm:"not null;default:0" json:"estimated_time"`
	Position         int        `gorm:"not null;default:0" json:"order"`
	IsCompleted      bool       `gorm:"not null;default:false" json:"is_completed"`
	CompletedAt      *time.Time `json:"completed_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
