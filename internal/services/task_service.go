package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/yukikurage/calibrate-api/internal/models"
	"github.com/yukikurage/calibrate-api/internal/repository"
	"github.com/yukikurage/calibrate-api/internal/utils"
	"gorm.io/gorm"
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo    repository.TaskRepository
	subtaskRepo repository.SubtaskRepository
	prefsRepo   repository.PreferencesRepository
	assistant   *EstimateAssistant
	now         func() time.Time
}

// NewTaskService creates a new TaskService. assistant may be nil.
func NewTaskService(taskRepo repository.TaskRepository, subtaskRepo repository.SubtaskRepository, prefsRepo repository.PreferencesRepository, assistant *EstimateAssistant) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		subtaskRepo: subtaskRepo,
		prefsRepo:   prefsRepo,
		assistant:   assistant,
		now:         time.Now,
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	UserID          uint64
	Status          *models.TaskStatus
	IncludeSubtasks bool
	Page            int
	PageSize        int
}

// CreateSubtaskInput is one subtask created along with its task
type CreateSubtaskInput struct {
	Description      string
	EstimatedMinutes *int
	Position         *int
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	UserID           uint64
	Title            string
	Description      *string
	TaskType         models.TaskType
	Priority         models.TaskPriority
	EstimatedMinutes *int
	OptimisticTime   *int
	RealisticTime    *int
	PessimisticTime  *int
	Deadline         *string
	ScheduledDate    *string
	Subtasks         []CreateSubtaskInput
}

// UpdateTaskInput represents input for updating a task. Nil fields are left
// unchanged; the Clear flags null out optional columns.
type UpdateTaskInput struct {
	Title                *string
	Description          *string
	ClearDescription     bool
	TaskType             *models.TaskType
	Priority             *models.TaskPriority
	Status               *models.TaskStatus
	EstimatedMinutes     *int
	OptimisticTime       *int
	ClearOptimisticTime  bool
	RealisticTime        *int
	ClearRealisticTime   bool
	PessimisticTime      *int
	ClearPessimisticTime bool
	ActualMinutes        *int
	Deadline             *string
	ClearDeadline        bool
	ScheduledDate        *string
	ClearScheduledDate   bool
}

// UpdateSubtaskInput represents input for updating a subtask
type UpdateSubtaskInput struct {
	Description      *string
	EstimatedMinutes *int
	Position         *int
	IsCompleted      *bool
}

// ListTasks returns one page of the user's tasks in insertion order
func (s *TaskService) ListTasks(ctx context.Context, input ListTasksInput) ([]models.Task, int64, error) {
	if input.Status != nil && !input.Status.Valid() {
		return nil, 0, fieldError("status", "is not an allowed value")
	}

	tasks, total, err := s.taskRepo.List(ctx, repository.TaskFilter{
		UserID:          input.UserID,
		Status:          input.Status,
		IncludeSubtasks: input.IncludeSubtasks,
		Page:            input.Page,
		PageSize:        input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a task with its subtasks
func (s *TaskService) GetTask(ctx context.Context, userID, taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, userID, taskID, "Subtasks")
	if err != nil {
		return nil, notFound(err, ErrTaskNotFound, "find task")
	}
	return task, nil
}

// CreateTask validates input and stores the task and its subtasks together
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fieldError("title", "is required")
	}

	task := &models.Task{
		UserID:      input.UserID,
		Title:       title,
		Description: normalizeText(input.Description),
		TaskType:    models.TaskTypeUnknown,
		Priority:    models.TaskPriorityMedium,
		Status:      models.TaskStatusPlanned,
	}

	if input.TaskType != "" {
		if !input.TaskType.Valid() {
			return nil, fieldError("task_type", "is not an allowed value")
		}
		task.TaskType = input.TaskType
	}
	if input.Priority != "" {
		if !input.Priority.Valid() {
			return nil, fieldError("priority", "is not an allowed value")
		}
		task.Priority = input.Priority
	}

	pert := []struct {
		field string
		value *int
		dest  **int
	}{
		{"optimistic_time", input.OptimisticTime, &task.OptimisticTime},
		{"realistic_time", input.RealisticTime, &task.RealisticTime},
		{"pessimistic_time", input.PessimisticTime, &task.PessimisticTime},
	}
	for _, p := range pert {
		if p.value == nil {
			continue
		}
		if err := checkMinutes(p.field, *p.value); err != nil {
			return nil, err
		}
		v := *p.value
		*p.dest = &v
	}

	switch {
	case input.EstimatedMinutes != nil:
		if err := checkMinutes("estimated_time", *input.EstimatedMinutes); err != nil {
			return nil, err
		}
		task.EstimatedMinutes = *input.EstimatedMinutes
	default:
		task.EstimatedMinutes = expectedMinutes(task.OptimisticTime, task.RealisticTime, task.PessimisticTime)
	}

	loc := s.location(ctx, input.UserID)
	var err error
	if task.Deadline, err = parseOptionalTime("deadline", input.Deadline, loc); err != nil {
		return nil, err
	}
	if task.ScheduledDate, err = parseOptionalTime("scheduled_date", input.ScheduledDate, loc); err != nil {
		return nil, err
	}

	for i, st := range input.Subtasks {
		desc := strings.TrimSpace(st.Description)
		if desc == "" {
			return nil, fieldError(fmt.Sprintf("subtasks[%d].description", i), "is required")
		}
		subtask := models.Subtask{Description: desc, Position: i}
		if st.EstimatedMinutes != nil {
			if err := checkMinutes(fmt.Sprintf("subtasks[%d].estimated_time", i), *st.EstimatedMinutes); err != nil {
				return nil, err
			}
			subtask.EstimatedMinutes = *st.EstimatedMinutes
		}
		if st.Position != nil {
			if *st.Position < 0 {
				return nil, fieldError(fmt.Sprintf("subtasks[%d].order", i), "must be at least 0")
			}
			subtask.Position = *st.Position
		}
		task.Subtasks = append(task.Subtasks, subtask)
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return task, nil
}

// UpdateTask applies a partial update. Moving into completed behaves like
// CompleteTask; moving out of it clears the actual time and completion stamp.
func (s *TaskService) UpdateTask(ctx context.Context, userID, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, userID, taskID)
	if err != nil {
		return nil, notFound(err, ErrTaskNotFound, "find task")
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, fieldError("title", "cannot be empty")
		}
		task.Title = title
	}
	if input.ClearDescription {
		task.Description = nil
	} else if input.Description != nil {
		task.Description = normalizeText(input.Description)
	}
	if input.TaskType != nil {
		if !input.TaskType.Valid() {
			return nil, fieldError("task_type", "is not an allowed value")
		}
		task.TaskType = *input.TaskType
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, fieldError("priority", "is not an allowed value")
		}
		task.Priority = *input.Priority
	}
	if input.EstimatedMinutes != nil {
		if err := checkMinutes("estimated_time", *input.EstimatedMinutes); err != nil {
			return nil, err
		}
		task.EstimatedMinutes = *input.EstimatedMinutes
	}

	pert := []struct {
		field string
		value *int
		clear bool
		dest  **int
	}{
		{"optimistic_time", input.OptimisticTime, input.ClearOptimisticTime, &task.OptimisticTime},
		{"realistic_time", input.RealisticTime, input.ClearRealisticTime, &task.RealisticTime},
		{"pessimistic_time", input.PessimisticTime, input.ClearPessimisticTime, &task.PessimisticTime},
	}
	for _, p := range pert {
		switch {
		case p.clear:
			*p.dest = nil
		case p.value != nil:
			if err := checkMinutes(p.field, *p.value); err != nil {
				return nil, err
			}
			v := *p.value
			*p.dest = &v
		}
	}

	if input.ClearDeadline || input.ClearScheduledDate || input.Deadline != nil || input.ScheduledDate != nil {
		loc := s.location(ctx, userID)
		if input.ClearDeadline {
			task.Deadline = nil
		} else if input.Deadline != nil {
			if task.Deadline, err = parseOptionalTime("deadline", input.Deadline, loc); err != nil {
				return nil, err
			}
		}
		if input.ClearScheduledDate {
			task.ScheduledDate = nil
		} else if input.ScheduledDate != nil {
			if task.ScheduledDate, err = parseOptionalTime("scheduled_date", input.ScheduledDate, loc); err != nil {
				return nil, err
			}
		}
	}

	target := task.Status
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, fieldError("status", "is not an allowed value")
		}
		target = *input.Status
	}
	if input.ActualMinutes != nil {
		if target != models.TaskStatusCompleted {
			return nil, fieldError("actual_time", "can only be set on completed tasks")
		}
		if err := checkMinutes("actual_time", *input.ActualMinutes); err != nil {
			return nil, err
		}
	}

	if target == models.TaskStatusCompleted {
		if task.Status != models.TaskStatusCompleted || input.ActualMinutes != nil {
			s.markCompleted(task, input.ActualMinutes)
		}
	} else {
		task.Status = target
		task.ActualMinutes = nil
		task.CompletedAt = nil
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.GetTask(ctx, userID, task.ID)
}

// CompleteTask marks a task completed. The actual time falls back to the
// estimate; the completion time is stamped only once.
func (s *TaskService) CompleteTask(ctx context.Context, userID, taskID uint64, actualMinutes *int) (*models.Task, error) {
	if actualMinutes != nil {
		if err := checkMinutes("actual_time", *actualMinutes); err != nil {
			return nil, err
		}
	}

	task, err := s.taskRepo.FindByID(ctx, userID, taskID)
	if err != nil {
		return nil, notFound(err, ErrTaskNotFound, "find task")
	}

	s.markCompleted(task, actualMinutes)

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}

	return s.GetTask(ctx, userID, task.ID)
}

// DeleteTask deletes a task and its subtasks
func (s *TaskService) DeleteTask(ctx context.Context, userID, taskID uint64) error {
	if err := s.taskRepo.Delete(ctx, userID, taskID); err != nil {
		return notFound(err, ErrTaskNotFound, "delete task")
	}
	return nil
}

// ListSubtasks returns the subtasks of an owned task in display order
func (s *TaskService) ListSubtasks(ctx context.Context, userID, taskID uint64) ([]models.Subtask, error) {
	if _, err := s.taskRepo.FindByID(ctx, userID, taskID); err != nil {
		return nil, notFound(err, ErrTaskNotFound, "find task")
	}

	subtasks, err := s.subtaskRepo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subtasks: %w", err)
	}
	if subtasks == nil {
		subtasks = []models.Subtask{}
	}
	return subtasks, nil
}

// UpdateSubtask applies a partial update to a subtask of an owned task
func (s *TaskService) UpdateSubtask(ctx context.Context, userID, taskID, subtaskID uint64, input UpdateSubtaskInput) (*models.Subtask, error) {
	subtask, err := s.findSubtask(ctx, userID, taskID, subtaskID)
	if err != nil {
		return nil, err
	}

	if input.Description != nil {
		desc := strings.TrimSpace(*input.Description)
		if desc == "" {
			return nil, fieldError("description", "cannot be empty")
		}
		subtask.Description = desc
	}
	if input.EstimatedMinutes != nil {
		if err := checkMinutes("estimated_time", *input.EstimatedMinutes); err != nil {
			return nil, err
		}
		subtask.EstimatedMinutes = *input.EstimatedMinutes
	}
	if input.Position != nil {
		if *input.Position < 0 {
			return nil, fieldError("order", "must be at least 0")
		}
		subtask.Position = *input.Position
	}
	if input.IsCompleted != nil {
		s.setSubtaskCompleted(subtask, *input.IsCompleted)
	}

	if err := s.subtaskRepo.Update(ctx, subtask); err != nil {
		return nil, fmt.Errorf("failed to update subtask: %w", err)
	}
	return subtask, nil
}

// CompleteSubtask marks a subtask done. Repeating it changes nothing.
func (s *TaskService) CompleteSubtask(ctx context.Context, userID, taskID, subtaskID uint64) (*models.Subtask, error) {
	subtask, err := s.findSubtask(ctx, userID, taskID, subtaskID)
	if err != nil {
		return nil, err
	}
	if subtask.IsCompleted {
		return subtask, nil
	}

	s.setSubtaskCompleted(subtask, true)
	if err := s.subtaskRepo.Update(ctx, subtask); err != nil {
		return nil, fmt.Errorf("failed to complete subtask: %w", err)
	}
	return subtask, nil
}

// AnalyzeTaskInput represents input for the estimate assistant
type AnalyzeTaskInput struct {
	Title       string
	Description string
}

// AnalyzeTask asks the estimate assistant for a breakdown. Nothing is stored.
func (s *TaskService) AnalyzeTask(ctx context.Context, input AnalyzeTaskInput) (*TaskAnalysis, error) {
	if s.assistant == nil {
		return nil, ErrAssistantNotConfigured
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fieldError("title", "is required")
	}

	analysis, err := s.assistant.Analyze(ctx, title, strings.TrimSpace(input.Description))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssistantFailed, err)
	}
	return analysis, nil
}

func (s *TaskService) findSubtask(ctx context.Context, userID, taskID, subtaskID uint64) (*models.Subtask, error) {
	if _, err := s.taskRepo.FindByID(ctx, userID, taskID); err != nil {
		return nil, notFound(err, ErrTaskNotFound, "find task")
	}

	subtask, err := s.subtaskRepo.FindByID(ctx, taskID, subtaskID)
	if err != nil {
		return nil, notFound(err, ErrSubtaskNotFound, "find subtask")
	}
	return subtask, nil
}

func (s *TaskService) markCompleted(task *models.Task, actualMinutes *int) {
	actual := task.EstimatedMinutes
	if actualMinutes != nil {
		actual = *actualMinutes
	}
	task.ActualMinutes = &actual

	if task.Status != models.TaskStatusCompleted || task.CompletedAt == nil {
		now := s.now().UTC()
		task.CompletedAt = &now
	}
	task.Status = models.TaskStatusCompleted
}

func (s *TaskService) setSubtaskCompleted(subtask *models.Subtask, completed bool) {
	if !completed {
		subtask.IsCompleted = false
		subtask.CompletedAt = nil
		return
	}
	if !subtask.IsCompleted || subtask.CompletedAt == nil {
		now := s.now().UTC()
		subtask.CompletedAt = &now
	}
	subtask.IsCompleted = true
}

// location is the user's configured timezone, UTC when unset or unknown.
func (s *TaskService) location(ctx context.Context, userID uint64) *time.Location {
	return userLocation(ctx, s.prefsRepo, userID)
}

func userLocation(ctx context.Context, prefsRepo repository.PreferencesRepository, userID uint64) *time.Location {
	if prefsRepo == nil {
		return time.UTC
	}
	prefs, err := prefsRepo.FindByUserID(ctx, userID)
	if err != nil {
		return time.UTC
	}
	loc, err := time.LoadLocation(prefs.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func checkMinutes(field string, minutes int) error {
	if minutes < 0 {
		return fieldError(field, utils.ErrInvalidMinutes.Error())
	}
	return nil
}

func parseOptionalTime(field string, value *string, loc *time.Location) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	t, err := utils.ParseDateTime(*value, loc)
	if err != nil {
		return nil, fieldError(field, err.Error())
	}
	return &t, nil
}

func normalizeText(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// expectedMinutes is the three-point (PERT) estimate when all points are
// known, else the realistic point, else 0.
func expectedMinutes(optimistic, realistic, pessimistic *int) int {
	if optimistic != nil && realistic != nil && pessimistic != nil {
		o, r, p := float64(*optimistic), float64(*realistic), float64(*pessimistic)
		return int(math.Round((o + 4*r + p) / 6))
	}
	if realistic != nil {
		return *realistic
	}
	return 0
}

// IsNotFound reports whether err is one of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTaskNotFound) || errors.Is(err, ErrSubtaskNotFound) || errors.Is(err, ErrUserNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}
