package client

import (
	"net/url"
	"strconv"
	"time"
)

type Preferences struct {
	WorkHoursPerDay      float64 `json:"work_hours_per_day"`
	BufferPercent        int     `json:"buffer_percent"`
	CautionThreshold     int     `json:"alert_caution_threshold"`
	Timezone             string  `json:"timezone"`
	NotificationsEnabled bool    `json:"notifications_enabled"`
	Onboarded            bool    `json:"onboarded"`
}

type User struct {
	ID          uint64       `json:"id"`
	Email       string       `json:"email"`
	FullName    *string      `json:"full_name"`
	CreatedAt   time.Time    `json:"created_at"`
	Preferences *Preferences `json:"preferences,omitempty"`
}

type Subtask struct {
	ID            uint64     `json:"id"`
	TaskID        uint64     `json:"task_id"`
	Description   string     `json:"description"`
	EstimatedTime int        `json:"estimated_time"`
	Order         int        `json:"order"`
	IsCompleted   bool       `json:"is_completed"`
	CompletedAt   *time.Time `json:"completed_at"`
}

type Task struct {
	ID              uint64     `json:"id"`
	Title           string     `json:"title"`
	Description     *string    `json:"description"`
	TaskType        string     `json:"task_type"`
	Priority        string     `json:"priority"`
	Status          string     `json:"status"`
	EstimatedTime   int        `json:"estimated_time"`
	OptimisticTime  *int       `json:"optimistic_time"`
	RealisticTime   *int       `json:"realistic_time"`
	PessimisticTime *int       `json:"pessimistic_time"`
	ActualTime      *int       `json:"actual_time"`
	Deadline        *time.Time `json:"deadline"`
	ScheduledDate   *time.Time `json:"scheduled_date"`
	CompletedAt     *time.Time `json:"completed_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Subtasks        []Subtask  `json:"subtasks,omitempty"`
}

type TaskList struct {
	Tasks      []Task `json:"tasks"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalCount int64  `json:"total_count"`
	TotalPages int    `json:"total_pages"`
}

// ListOptions filters ListTasks. Zero values are omitted.
type ListOptions struct {
	Status          string
	Page            int
	PageSize        int
	IncludeSubtasks bool
}

func (o ListOptions) values() url.Values {
	v := url.Values{}
	if o.Status != "" {
		v.Set("status", o.Status)
	}
	if o.Page > 0 {
		v.Set("page", strconv.Itoa(o.Page))
	}
	if o.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(o.PageSize))
	}
	if o.IncludeSubtasks {
		v.Set("include", "subtasks")
	}
	return v
}

type CreateSubtaskRequest struct {
	Description   string `json:"description"`
	EstimatedTime *int   `json:"estimated_time,omitempty"`
	Order         *int   `json:"order,omitempty"`
}

type CreateTaskRequest struct {
	Title           string                 `json:"title"`
	Description     *string                `json:"description,omitempty"`
	TaskType        string                 `json:"task_type,omitempty"`
	Priority        string                 `json:"priority,omitempty"`
	EstimatedTime   *int                   `json:"estimated_time,omitempty"`
	OptimisticTime  *int                   `json:"optimistic_time,omitempty"`
	RealisticTime   *int                   `json:"realistic_time,omitempty"`
	PessimisticTime *int                   `json:"pessimistic_time,omitempty"`
	Deadline        string                 `json:"deadline,omitempty"`
	ScheduledDate   string                 `json:"scheduled_date,omitempty"`
	Subtasks        []CreateSubtaskRequest `json:"subtasks,omitempty"`
}

type Capacity struct {
	Date             string         `json:"date"`
	Timezone         string         `json:"timezone"`
	AvailableMinutes int            `json:"available_minutes"`
	PlannedMinutes   int            `json:"planned_minutes"`
	BufferMinutes    int            `json:"buffer_minutes"`
	Percentage       int            `json:"percentage"`
	Status           string         `json:"status"`
	Recommendation   string         `json:"recommendation"`
	MinutesByType    map[string]int `json:"minutes_by_type"`
}

type Day struct {
	Date             string   `json:"date"`
	Weekday          string   `json:"weekday"`
	TaskIDs          []uint64 `json:"task_ids"`
	AvailableMinutes int      `json:"available_minutes"`
	PlannedMinutes   int      `json:"planned_minutes"`
	Percentage       int      `json:"percentage"`
	Status           string   `json:"status"`
}

type Week struct {
	Start              string `json:"start"`
	Timezone           string `json:"timezone"`
	Days               []Day  `json:"days"`
	UnscheduledMinutes int    `json:"unscheduled_minutes"`
	OverloadedDays     int    `json:"overloaded_days"`
}
