package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/calibrate-api/internal/dto"
	apierrors "github.com/yukikurage/calibrate-api/internal/errors"
	"github.com/yukikurage/calibrate-api/internal/middleware"
	"github.com/yukikurage/calibrate-api/internal/models"
	"github.com/yukikurage/calibrate-api/internal/services"
	"github.com/yukikurage/calibrate-api/internal/utils"
)

type TaskHandler struct {
	tasks *services.TaskService
}

func NewTaskHandler(tasks *services.TaskService) *TaskHandler {
	return &TaskHandler{
		tasks: tasks,
	}
}

// ListTasks returns one page of the current user's tasks
// Supports ?status=, ?page=, ?page_size= and ?include=subtasks
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	input := services.ListTasksInput{
		UserID:          userID,
		IncludeSubtasks: includes(c.Query("include"), "subtasks"),
		Page:            params.Page,
		PageSize:        params.PageSize,
	}
	if raw := c.Query("status"); raw != "" {
		status := models.TaskStatus(raw)
		input.Status = &status
	}

	tasks, total, err := h.tasks.ListTasks(c.Request.Context(), input)
	if err != nil {
		respondError(c, err, "fetch tasks")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params.Page, params.PageSize, total))
}

// GetTask returns a specific task with its subtasks
func (h *TaskHandler) GetTask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	task, err := h.tasks.GetTask(c.Request.Context(), userID, middleware.GetTaskID(c))
	if err != nil {
		respondError(c, err, "fetch task")
		return
	}

	c.JSON(http.StatusOK, task)
}

// CreateTask creates a task, and its subtasks when given
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	var req dto.CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	errs := dto.FieldErrors{}
	input := services.CreateTaskInput{
		UserID:           userID,
		Title:            req.Title,
		Description:      req.Description,
		TaskType:         req.TaskType,
		Priority:         req.Priority,
		EstimatedMinutes: minutesPtr(errs, "estimated_time", req.EstimatedTime),
		OptimisticTime:   minutesPtr(errs, "optimistic_time", req.OptimisticTime),
		RealisticTime:    minutesPtr(errs, "realistic_time", req.RealisticTime),
		PessimisticTime:  minutesPtr(errs, "pessimistic_time", req.PessimisticTime),
		Deadline:         req.Deadline,
		ScheduledDate:    req.ScheduledDate,
	}
	for i, st := range req.Subtasks {
		input.Subtasks = append(input.Subtasks, services.CreateSubtaskInput{
			Description:      st.Description,
			EstimatedMinutes: minutesPtr(errs, fmt.Sprintf("subtasks[%d].estimated_time", i), st.EstimatedTime),
			Position:         st.Order,
		})
	}
	if !checkFields(c, errs) {
		return
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), input)
	if err != nil {
		respondError(c, err, "create task")
		return
	}

	c.JSON(http.StatusCreated, task)
}

// UpdateTask applies a partial update. null clears nullable fields.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.UpdateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	errs := req.Check()
	input := services.UpdateTaskInput{
		Title:                req.Title.Ptr(),
		Description:          req.Description.Ptr(),
		ClearDescription:     req.Description.Null,
		TaskType:             req.TaskType.Ptr(),
		Priority:             req.Priority.Ptr(),
		Status:               req.Status.Ptr(),
		EstimatedMinutes:     errs.CheckOptionalMinutes("estimated_time", req.EstimatedTime),
		OptimisticTime:       errs.CheckOptionalMinutes("optimistic_time", req.OptimisticTime),
		ClearOptimisticTime:  req.OptimisticTime.Null,
		RealisticTime:        errs.CheckOptionalMinutes("realistic_time", req.RealisticTime),
		ClearRealisticTime:   req.RealisticTime.Null,
		PessimisticTime:      errs.CheckOptionalMinutes("pessimistic_time", req.PessimisticTime),
		ClearPessimisticTime: req.PessimisticTime.Null,
		ActualMinutes:        errs.CheckOptionalMinutes("actual_time", req.ActualTime),
		Deadline:             req.Deadline.Ptr(),
		ClearDeadline:        req.Deadline.Null,
		ScheduledDate:        req.ScheduledDate.Ptr(),
		ClearScheduledDate:   req.ScheduledDate.Null,
	}
	if !checkFields(c, errs) {
		return
	}

	task, err := h.tasks.UpdateTask(c.Request.Context(), userID, middleware.GetTaskID(c), input)
	if err != nil {
		respondError(c, err, "update task")
		return
	}

	c.JSON(http.StatusOK, task)
}

// CompleteTask marks a task completed. ?actual_time= records the time spent,
// otherwise the estimate is used.
func (h *TaskHandler) CompleteTask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var actual *int
	if raw, ok := c.GetQuery("actual_time"); ok {
		minutes, err := utils.ParseMinutes(raw)
		if err != nil {
			apierrors.ValidationFailed(c, "", map[string]string{"actual_time": err.Error()})
			return
		}
		actual = &minutes
	}

	task, err := h.tasks.CompleteTask(c.Request.Context(), userID, middleware.GetTaskID(c), actual)
	if err != nil {
		respondError(c, err, "complete task")
		return
	}

	c.JSON(http.StatusOK, task)
}

// DeleteTask removes a task and its subtasks
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	if err := h.tasks.DeleteTask(c.Request.Context(), userID, middleware.GetTaskID(c)); err != nil {
		respondError(c, err, "delete task")
		return
	}

	c.Status(http.StatusNoContent)
}

// AnalyzeTask returns the estimate assistant's suggestion without storing anything
func (h *TaskHandler) AnalyzeTask(c *gin.Context) {
	var req dto.AnalyzeTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	analysis, err := h.tasks.AnalyzeTask(c.Request.Context(), services.AnalyzeTaskInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err, "analyze task")
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// ListSubtasks returns a task's subtasks in position order
func (h *TaskHandler) ListSubtasks(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	taskID := middleware.GetTaskID(c)

	subtasks, err := h.tasks.ListSubtasks(c.Request.Context(), userID, taskID)
	if err != nil {
		respondError(c, err, "fetch subtasks")
		return
	}
	if subtasks == nil {
		subtasks = []models.Subtask{}
	}

	c.JSON(http.StatusOK, dto.SubtaskListResponse{TaskID: taskID, Subtasks: subtasks})
}

// UpdateSubtask applies a partial update to one subtask
func (h *TaskHandler) UpdateSubtask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.UpdateSubtaskRequest
	if !bindJSON(c, &req) {
		return
	}

	errs := req.Check()
	input := services.UpdateSubtaskInput{
		Description:      req.Description.Ptr(),
		EstimatedMinutes: errs.CheckOptionalMinutes("estimated_time", req.EstimatedTime),
		Position:         req.Order.Ptr(),
		IsCompleted:      req.IsCompleted.Ptr(),
	}
	if !checkFields(c, errs) {
		return
	}

	subtask, err := h.tasks.UpdateSubtask(c.Request.Context(), userID, middleware.GetTaskID(c), middleware.GetSubtaskID(c), input)
	if err != nil {
		respondError(c, err, "update subtask")
		return
	}

	c.JSON(http.StatusOK, subtask)
}

// CompleteSubtask marks one subtask completed
func (h *TaskHandler) CompleteSubtask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	subtask, err := h.tasks.CompleteSubtask(c.Request.Context(), userID, middleware.GetTaskID(c), middleware.GetSubtaskID(c))
	if err != nil {
		respondError(c, err, "complete subtask")
		return
	}

	c.JSON(http.StatusOK, subtask)
}

func minutesPtr(errs dto.FieldErrors, field string, m *dto.Minutes) *int {
	if m == nil {
		return nil
	}
	v := errs.CheckMinutes(field, *m)
	return &v
}

// includes reports whether a comma separated list contains name.
func includes(list, name string) bool {
	for _, item := range strings.Split(list, ",") {
		if strings.EqualFold(strings.TrimSpace(item), name) {
			return true
		}
	}
	return false
}
