package dto

import (
	"github.com/yukikurage/calibrate-api/internal/models"
)

// CreateSubtaskRequest is one subtask inside CreateTaskRequest.
type CreateSubtaskRequest struct {
	Description   string   `json:"description" binding:"notblank"`
	EstimatedTime *Minutes `json:"estimated_time"`
	Order         *int     `json:"order" binding:"omitempty,gte=0"`
}

// CreateTaskRequest is the body of POST /api/tasks.
type CreateTaskRequest struct {
	Title           string                 `json:"title" binding:"notblank,max=255"`
	Description     *string                `json:"description"`
	TaskType        models.TaskType        `json:"task_type" binding:"omitempty,enum"`
	Priority        models.TaskPriority    `json:"priority" binding:"omitempty,enum"`
	EstimatedTime   *Minutes               `json:"estimated_time"`
	OptimisticTime  *Minutes               `json:"optimistic_time"`
	RealisticTime   *Minutes               `json:"realistic_time"`
	PessimisticTime *Minutes               `json:"pessimistic_time"`
	Deadline        *string                `json:"deadline"`
	ScheduledDate   *string                `json:"scheduled_date"`
	Subtasks        []CreateSubtaskRequest `json:"subtasks" binding:"max=50,dive"`
}

// UpdateTaskRequest is the body of PATCH /api/tasks/:id. Absent fields are
// left alone; null clears nullable fields.
type UpdateTaskRequest struct {
	Title           Optional[string]              `json:"title"`
	Description     Optional[string]              `json:"description"`
	TaskType        Optional[models.TaskType]     `json:"task_type"`
	Priority        Optional[models.TaskPriority] `json:"priority"`
	Status          Optional[models.TaskStatus]   `json:"status"`
	EstimatedTime   Optional[Minutes]             `json:"estimated_time"`
	OptimisticTime  Optional[Minutes]             `json:"optimistic_time"`
	RealisticTime   Optional[Minutes]             `json:"realistic_time"`
	PessimisticTime Optional[Minutes]             `json:"pessimistic_time"`
	ActualTime      Optional[Minutes]             `json:"actual_time"`
	Deadline        Optional[string]              `json:"deadline"`
	ScheduledDate   Optional[string]              `json:"scheduled_date"`
}

// Check reports problems the binding tags cannot express.
func (r UpdateTaskRequest) Check() FieldErrors {
	errs := FieldErrors{}

	notNull := map[string]bool{
		"title":          r.Title.Null,
		"task_type":      r.TaskType.Null,
		"priority":       r.Priority.Null,
		"status":         r.Status.Null,
		"estimated_time": r.EstimatedTime.Null,
	}
	for field, isNull := range notNull {
		if isNull {
			errs.Add(field, ErrNullNotAllowed.Error())
		}
	}

	if r.TaskType.Set && !r.TaskType.Null && !r.TaskType.Value.Valid() {
		errs.Add("task_type", "is not an allowed value")
	}
	if r.Priority.Set && !r.Priority.Null && !r.Priority.Value.Valid() {
		errs.Add("priority", "is not an allowed value")
	}
	if r.Status.Set && !r.Status.Null && !r.Status.Value.Valid() {
		errs.Add("status", "is not an allowed value")
	}
	return errs
}

// UpdateSubtaskRequest is the body of PATCH /api/tasks/:id/subtasks/:subtaskId.
type UpdateSubtaskRequest struct {
	Description   Optional[string]  `json:"description"`
	EstimatedTime Optional[Minutes] `json:"estimated_time"`
	Order         Optional[int]     `json:"order"`
	IsCompleted   Optional[bool]    `json:"is_completed"`
}

// Check reports problems the binding tags cannot express.
func (r UpdateSubtaskRequest) Check() FieldErrors {
	errs := FieldErrors{}
	for field, isNull := range map[string]bool{
		"description":    r.Description.Null,
		"estimated_time": r.EstimatedTime.Null,
		"order":          r.Order.Null,
		"is_completed":   r.IsCompleted.Null,
	} {
		if isNull {
			errs.Add(field, ErrNullNotAllowed.Error())
		}
	}
	if r.Order.Set && r.Order.Value < 0 {
		errs.Add("order", "must be at least 0")
	}
	return errs
}

// AnalyzeTaskRequest is the body of POST /api/tasks/analyze.
type AnalyzeTaskRequest struct {
	Title       string `json:"title" binding:"notblank,max=255"`
	Description string `json:"description" binding:"max=4000"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []models.Task `json:"tasks"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalCount int64         `json:"total_count"`
	TotalPages int           `json:"total_pages"`
}

// ToTaskListResponse converts a slice of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, page, pageSize int, totalCount int64) TaskListResponse {
	if tasks == nil {
		tasks = []models.Task{}
	}

	totalPages := 0
	if pageSize > 0 {
		totalPages = int(totalCount) / pageSize
		if int(totalCount)%pageSize > 0 {
			totalPages++
		}
	}

	return TaskListResponse{
		Tasks:      tasks,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}

// SubtaskListResponse wraps the subtasks of one task.
type SubtaskListResponse struct {
	TaskID   uint64           `json:"task_id"`
	Subtasks []models.Subtask `json:"subtasks"`
}
