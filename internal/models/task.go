package models

import (
	"time"
)

type TaskStatus string

const (
	TaskStatusPlanned    TaskStatus = "planned"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPlanned, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// Active reports whether a task in this status still counts against capacity.
func (s TaskStatus) Active() bool {
	return s == TaskStatusPlanned || s == TaskStatusInProgress
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	}
	return false
}

type TaskType string

const (
	TaskTypeCreative       TaskType = "creative"
	TaskTypeAnalytical     TaskType = "analytical"
	TaskTypeAdministrative TaskType = "administrative"
	TaskTypeCollaborative  TaskType = "collaborative"
	TaskTypeUnknown        TaskType = "unknown"
)

func (t TaskType) Valid() bool {
	switch t {
	case TaskTypeCreative, TaskTypeAnalytical, TaskTypeAdministrative, TaskTypeCollaborative, TaskTypeUnknown:
		return true
	}
	return false
}

// Task is a unit of planned work owned by a single user. All durations are minutes.
// ActualMinutes and CompletedAt are set only while Status is completed.
type Task struct {
	ID               uint64       `gorm:"primarykey" json:"id"`
	UserID           uint64       `gorm:"not null;index" json:"user_id"`
	Title            string       `gorm:"type:varchar(255);not null" json:"title"`
	Description      *string      `gorm:"type:text" json:"description"`
	TaskType         TaskType     `gorm:"type:varchar(20);not null;default:'unknown'" json:"task_type"`
	Priority         TaskPriority `gorm:"type:varchar(20);not null;default:'medium'" json:"priority"`
	Status           TaskStatus   `gorm:"type:varchar(20);not null;default:'planned';index" json:"status"`
	EstimatedMinutes int          `gorm:"not null;default:0" json:"estimated_time"`
	OptimisticTime   *int         `json:"optimistic_time"`
	RealisticTime    *int         `json:"realistic_time"`
	PessimisticTime  *int         `json:"pessimistic_time"`
	ActualMinutes    *int         `json:"actual_time"`
	Deadline         *time.Time   `json:"deadline"`
	ScheduledDate    *time.Time   `json:"scheduled_date"`
	CompletedAt      *time.Time   `json:"completed_at"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`

	// Relations
	User     User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Subtasks []Subtask `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"subtasks,omitempty"`
}

// PlanningDate is the day a task is planned for: its scheduled date, else its deadline.
func (t Task) PlanningDate() *time.Time {
	if t.ScheduledDate != nil {
		return t.ScheduledDate
	}
	return t.Deadline
}
