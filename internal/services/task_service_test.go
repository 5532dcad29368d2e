package services

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/calibrate-api/internal/database"
	"github.com/yukikurage/calibrate-api/internal/models"
	"github.com/yukikurage/calibrate-api/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var fixedNow = time.Date(2026, 10, 21, 15, 30, 0, 0, time.UTC)

// ServiceTestSuite runs the services against an in-memory database.
type ServiceTestSuite struct {
	suite.Suite
	db        *gorm.DB
	ctx       context.Context
	taskRepo  repository.TaskRepository
	prefsRepo repository.PreferencesRepository
	tasks     *TaskService
	capacity  *CapacityService
	users     *UserService
	user      *models.User
}

func (suite *ServiceTestSuite) SetupTest() {
	var err error

	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	suite.Require().NoError(err)

	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	suite.Require().NoError(suite.db.AutoMigrate(database.Models()...))

	suite.ctx = context.Background()
	suite.taskRepo = repository.NewTaskRepository(suite.db)
	suite.prefsRepo = repository.NewPreferencesRepository(suite.db)
	userRepo := repository.NewUserRepository(suite.db)
	subtaskRepo := repository.NewSubtaskRepository(suite.db)

	suite.tasks = NewTaskService(suite.taskRepo, subtaskRepo, suite.prefsRepo, nil)
	suite.tasks.now = func() time.Time { return fixedNow }
	suite.capacity = NewCapacityService(suite.taskRepo, suite.prefsRepo)
	suite.capacity.now = func() time.Time { return fixedNow }
	suite.users = NewUserService(userRepo, suite.prefsRepo, suite.taskRepo)
	suite.users.now = func() time.Time { return fixedNow }

	suite.user, err = suite.users.Sync(suite.ctx, SyncInput{
		ExternalID: "5b0c7d8e-3f5a-4c4e-9a53-0f9f2b6a1c11",
		Email:      "owner@example.com",
	})
	suite.Require().NoError(err)
}

func (suite *ServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func (suite *ServiceTestSuite) createTask(title string, minutes int) *models.Task {
	task, err := suite.tasks.CreateTask(suite.ctx, CreateTaskInput{
		UserID:           suite.user.ID,
		Title:            title,
		EstimatedMinutes: intPtr(minutes),
	})
	suite.Require().NoError(err)
	return task
}

func (suite *ServiceTestSuite) otherUser() *models.User {
	other, err := suite.users.Sync(suite.ctx, SyncInput{ExternalID: "9e1f2a3b-0000-4000-8000-000000000002", Email: "other@example.com"})
	suite.Require().NoError(err)
	return other
}

func (suite *ServiceTestSuite) TestCreateTaskDefaults() {
	task, err := suite.tasks.CreateTask(suite.ctx, CreateTaskInput{
		UserID:      suite.user.ID,
		Title:       "  Write proposal  ",
		Description: strPtr("   "),
	})
	suite.Require().NoError(err)

	suite.Equal("Write proposal", task.Title)
	suite.Nil(task.Description)
	suite.Equal(models.TaskStatusPlanned, task.Status)
	suite.Equal(models.TaskPriorityMedium, task.Priority)
	suite.Equal(models.TaskTypeUnknown, task.TaskType)
	suite.Equal(0, task.EstimatedMinutes)
	suite.Nil(task.ActualMinutes)
	suite.Nil(task.CompletedAt)
}

func (suite *ServiceTestSuite) TestCreateTaskWithSubtasks() {
	task, err := suite.tasks.CreateTask(suite.ctx, CreateTaskInput{
		UserID:           suite.user.ID,
		Title:            "Launch",
		EstimatedMinutes: intPtr(120),
		TaskType:         models.TaskTypeCollaborative,
		Priority:         models.TaskPriorityUrgent,
		Subtasks: []CreateSubtaskInput{
			{Description: "plan", EstimatedMinutes: intPtr(30)},
			{Description: "ship"},
		},
	})
	suite.Require().NoError(err)

	subtasks, err := suite.tasks.ListSubtasks(suite.ctx, suite.user.ID, task.ID)
	suite.Require().NoError(err)
	suite.Require().Len(subtasks, 2)
	suite.Equal("plan", subtasks[0].Description)
	suite.Equal(0, subtasks[0].Position)
	suite.Equal(30, subtasks[0].EstimatedMinutes)
	suite.Equal(1, subtasks[1].Position)
}

func (suite *ServiceTestSuite) TestCreateTaskValidation() {
	cases := []struct {
		name  string
		input CreateTaskInput
		field string
	}{
		{"blank title", CreateTaskInput{Title: "   "}, "title"},
		{"negative estimate", CreateTaskInput{Title: "t", EstimatedMinutes: intPtr(-1)}, "estimated_time"},
		{"bad priority", CreateTaskInput{Title: "t", Priority: "critical"}, "priority"},
		{"bad type", CreateTaskInput{Title: "t", TaskType: "chores"}, "task_type"},
		{"bad deadline", CreateTaskInput{Title: "t", Deadline: strPtr("tomorrow")}, "deadline"},
		{"blank subtask", CreateTaskInput{Title: "t", Subtasks: []CreateSubtaskInput{{Description: "ok"}, {Description: " "}}}, "subtasks[1].description"},
	}

	for _, tc := range cases {
		suite.Run(tc.name, func() {
			tc.input.UserID = suite.user.ID
			_, err := suite.tasks.CreateTask(suite.ctx, tc.input)
			suite.Require().ErrorIs(err, ErrValidation)

			var fe *FieldError
			suite.Require().ErrorAs(err, &fe)
			suite.Equal(tc.field, fe.Field)
		})
	}

	var count int64
	suite.db.Model(&models.Task{}).Count(&count)
	suite.Zero(count)
}

func (suite *ServiceTestSuite) TestCreateTaskUsesThreePointEstimate() {
	task, err := suite.tasks.CreateTask(suite.ctx, CreateTaskInput{
		UserID:          suite.user.ID,
		Title:           "Estimate me",
		OptimisticTime:  intPtr(30),
		RealisticTime:   intPtr(60),
		PessimisticTime: intPtr(120),
	})
	suite.Require().NoError(err)
	// (30 + 4*60 + 120) / 6 = 65
	suite.Equal(65, task.EstimatedMinutes)
	suite.Equal(60, *task.RealisticTime)
}

func (suite *ServiceTestSuite) TestCreateTaskNormalisesDates() {
	tz := "Asia/Tokyo"
	_, err := suite.users.UpdatePreferences(suite.ctx, suite.user.ID, UpdatePreferencesInput{Timezone: &tz})
	suite.Require().NoError(err)

	task, err := suite.tasks.CreateTask(suite.ctx, CreateTaskInput{
		UserID:        suite.user.ID,
		Title:         "Dated",
		Deadline:      strPtr("2026-10-22T18:00:00Z"),
		ScheduledDate: strPtr("2026-10-22"),
	})
	suite.Require().NoError(err)

	suite.Equal(time.Date(2026, 10, 22, 18, 0, 0, 0, time.UTC), task.Deadline.UTC())
	// Midnight in Tokyo is 15:00 UTC the previous day.
	suite.Equal(time.Date(2026, 10, 21, 15, 0, 0, 0, time.UTC), task.ScheduledDate.UTC())
}

func (suite *ServiceTestSuite) TestGetTaskHidesOtherUsersTasks() {
	task := suite.createTask("mine", 30)
	other := suite.otherUser()

	_, err := suite.tasks.GetTask(suite.ctx, other.ID, task.ID)
	suite.ErrorIs(err, ErrTaskNotFound)

	_, err = suite.tasks.UpdateTask(suite.ctx, other.ID, task.ID, UpdateTaskInput{Title: strPtr("stolen")})
	suite.ErrorIs(err, ErrTaskNotFound)

	_, err = suite.tasks.CompleteTask(suite.ctx, other.ID, task.ID, nil)
	suite.ErrorIs(err, ErrTaskNotFound)

	suite.ErrorIs(suite.tasks.DeleteTask(suite.ctx, other.ID, task.ID), ErrTaskNotFound)

	_, err = suite.tasks.ListSubtasks(suite.ctx, other.ID, task.ID)
	suite.ErrorIs(err, ErrTaskNotFound)

	found, err := suite.tasks.GetTask(suite.ctx, suite.user.ID, task.ID)
	suite.Require().NoError(err)
	suite.Equal("mine", found.Title)
}

func (suite *ServiceTestSuite) TestListTasks() {
	for i := 0; i < 3; i++ {
		suite.createTask("task", 10)
	}
	done := suite.createTask("done", 10)
	_, err := suite.tasks.CompleteTask(suite.ctx, suite.user.ID, done.ID, nil)
	suite.Require().NoError(err)
	suite.createTaskFor(suite.otherUser().ID)

	tasks, total, err := suite.tasks.ListTasks(suite.ctx, ListTasksInput{UserID: suite.user.ID, Page: 1, PageSize: 20})
	suite.Require().NoError(err)
	suite.Equal(int64(4), total)
	suite.Len(tasks, 4)

	status := models.TaskStatusPlanned
	_, total, err = suite.tasks.ListTasks(suite.ctx, ListTasksInput{UserID: suite.user.ID, Status: &status, Page: 1, PageSize: 20})
	suite.Require().NoError(err)
	suite.Equal(int64(3), total)

	bad := models.TaskStatus("archived")
	_, _, err = suite.tasks.ListTasks(suite.ctx, ListTasksInput{UserID: suite.user.ID, Status: &bad})
	suite.ErrorIs(err, ErrValidation)
}

func (suite *ServiceTestSuite) createTaskFor(userID uint64) {
	_, err := suite.tasks.CreateTask(suite.ctx, CreateTaskInput{UserID: userID, Title: "someone else's"})
	suite.Require().NoError(err)
}

func (suite *ServiceTestSuite) TestCompleteTaskFallsBackToEstimate() {
	task := suite.createTask("Report", 90)

	completed, err := suite.tasks.CompleteTask(suite.ctx, suite.user.ID, task.ID, nil)
	suite.Require().NoError(err)

	suite.Equal(models.TaskStatusCompleted, completed.Status)
	suite.Require().NotNil(completed.ActualMinutes)
	suite.Equal(90, *completed.ActualMinutes)
	suite.Require().NotNil(completed.CompletedAt)
	suite.True(fixedNow.Equal(*completed.CompletedAt))
}

func (suite *ServiceTestSuite) TestCompleteTaskKeepsFirstCompletionTime() {
	task := suite.createTask("Report", 90)

	_, err := suite.tasks.CompleteTask(suite.ctx, suite.user.ID, task.ID, intPtr(120))
	suite.Require().NoError(err)

	suite.tasks.now = func() time.Time { return fixedNow.Add(2 * time.Hour) }
	again, err := suite.tasks.CompleteTask(suite.ctx, suite.user.ID, task.ID, intPtr(100))
	suite.Require().NoError(err)

	suite.Equal(100, *again.ActualMinutes)
	suite.True(fixedNow.Equal(*again.CompletedAt))
}

func (suite *ServiceTestSuite) TestCompleteTaskRejectsNegativeActual() {
	task := suite.createTask("Report", 90)
	_, err := suite.tasks.CompleteTask(suite.ctx, suite.user.ID, task.ID, intPtr(-5))
	suite.ErrorIs(err, ErrValidation)
}

func (suite *ServiceTestSuite) TestUpdateTaskStatusTransitions() {
	task := suite.createTask("Review", 45)
	completed := models.TaskStatusCompleted
	inProgress := models.TaskStatusInProgress

	updated, err := suite.tasks.UpdateTask(suite.ctx, suite.user.ID, task.ID, UpdateTaskInput{Status: &completed, ActualMinutes: intPtr(50)})
	suite.Require().NoError(err)
	suite.Equal(50, *updated.ActualMinutes)
	suite.NotNil(updated.CompletedAt)

	updated, err = suite.tasks.UpdateTask(suite.ctx, suite.user.ID, task.ID, UpdateTaskInput{Status: &inProgress})
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusInProgress, updated.Status)
	suite.Nil(updated.ActualMinutes)
	suite.Nil(updated.CompletedAt)

	_, err = suite.tasks.UpdateTask(suite.ctx, suite.user.ID, task.ID, UpdateTaskInput{ActualMinutes: intPtr(10)})
	var fe *FieldError
	suite.Require().ErrorAs(err, &fe)
	suite.Equal("actual_time", fe.Field)
}

func (suite *ServiceTestSuite) TestUpdateTaskIsIdempotent() {
	task := suite.createTask("Review", 45)
	completed := models.TaskStatusCompleted
	input := UpdateTaskInput{
		Title:         strPtr("Reviewed"),
		Status:        &completed,
		ScheduledDate: strPtr("2026-10-23"),
	}

	first, err := suite.tasks.UpdateTask(suite.ctx, suite.user.ID, task.ID, input)
	suite.Require().NoError(err)

	suite.tasks.now = func() time.Time { return fixedNow.Add(time.Hour) }
	second, err := suite.tasks.UpdateTask(suite.ctx, suite.user.ID, task.ID, input)
	suite.Require().NoError(err)

	suite.Equal(first.Title, second.Title)
	suite.Equal(*first.ActualMinutes, *second.ActualMinutes)
	suite.True(first.CompletedAt.Equal(*second.CompletedAt))
	suite.True(first.ScheduledDate.Equal(*second.ScheduledDate))
}

func (suite *ServiceTestSuite) TestUpdateTaskClearsNullableFields() {
	task, err := suite.tasks.CreateTask(suite.ctx, CreateTaskInput{
		UserID:        suite.user.ID,
		Title:         "Clear me",
		Description:   strPtr("details"),
		Deadline:      strPtr("2026-10-30"),
		RealisticTime: intPtr(30),
	})
	suite.Require().NoError(err)

	updated, err := suite.tasks.UpdateTask(suite.ctx, suite.user.ID, task.ID, UpdateTaskInput{
		ClearDescription:   true,
		ClearDeadline:      true,
		ClearRealisticTime: true,
		EstimatedMinutes:   intPtr(15),
	})
	suite.Require().NoError(err)

	suite.Nil(updated.Description)
	suite.Nil(updated.Deadline)
	suite.Nil(updated.RealisticTime)
	suite.Equal(15, updated.EstimatedMinutes)
	suite.Equal("Clear me", updated.Title)
}

func (suite *ServiceTestSuite) TestUpdateTaskRejectsEmptyTitle() {
	task := suite.createTask("Keep", 10)
	_, err := suite.tasks.UpdateTask(suite.ctx, suite.user.ID, task.ID, UpdateTaskInput{Title: strPtr(" ")})
	suite.ErrorIs(err, ErrValidation)

	found, err := suite.tasks.GetTask(suite.ctx, suite.user.ID, task.ID)
	suite.Require().NoError(err)
	suite.Equal("Keep", found.Title)
}

func (suite *ServiceTestSuite) TestDeleteTask() {
	task, err := suite.tasks.CreateTask(suite.ctx, CreateTaskInput{
		UserID:   suite.user.ID,
		Title:    "Doomed",
		Subtasks: []CreateSubtaskInput{{Description: "a"}},
	})
	suite.Require().NoError(err)

	suite.Require().NoError(suite.tasks.DeleteTask(suite.ctx, suite.user.ID, task.ID))
	suite.ErrorIs(suite.tasks.DeleteTask(suite.ctx, suite.user.ID, task.ID), ErrTaskNotFound)

	var count int64
	suite.db.Model(&models.Subtask{}).Count(&count)
	suite.Zero(count)
}

func (suite *ServiceTestSuite) TestSubtaskOperations() {
	task, err := suite.tasks.CreateTask(suite.ctx, CreateTaskInput{
		UserID:   suite.user.ID,
		Title:    "Parent",
		Subtasks: []CreateSubtaskInput{{Description: "first"}, {Description: "second"}},
	})
	suite.Require().NoError(err)
	subID := task.Subtasks[0].ID

	updated, err := suite.tasks.UpdateSubtask(suite.ctx, suite.user.ID, task.ID, subID, UpdateSubtaskInput{
		Description:      strPtr("renamed"),
		EstimatedMinutes: intPtr(25),
		Position:         intPtr(5),
	})
	suite.Require().NoError(err)
	suite.Equal("renamed", updated.Description)
	suite.Equal(25, updated.EstimatedMinutes)

	subtasks, err := suite.tasks.ListSubtasks(suite.ctx, suite.user.ID, task.ID)
	suite.Require().NoError(err)
	suite.Equal("second", subtasks[0].Description)
	suite.Equal("renamed", subtasks[1].Description)

	done, err := suite.tasks.CompleteSubtask(suite.ctx, suite.user.ID, task.ID, subID)
	suite.Require().NoError(err)
	suite.True(done.IsCompleted)
	suite.Require().NotNil(done.CompletedAt)

	suite.tasks.now = func() time.Time { return fixedNow.Add(time.Hour) }
	again, err := suite.tasks.CompleteSubtask(suite.ctx, suite.user.ID, task.ID, subID)
	suite.Require().NoError(err)
	suite.True(done.CompletedAt.Equal(*again.CompletedAt))

	parent, err := suite.tasks.GetTask(suite.ctx, suite.user.ID, task.ID)
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusPlanned, parent.Status, "subtask completion leaves the parent alone")

	reopened, err := suite.tasks.UpdateSubtask(suite.ctx, suite.user.ID, task.ID, subID, UpdateSubtaskInput{IsCompleted: new(bool)})
	suite.Require().NoError(err)
	suite.False(reopened.IsCompleted)
	suite.Nil(reopened.CompletedAt)
}

func (suite *ServiceTestSuite) TestSubtaskMustBelongToTask() {
	first, err := suite.tasks.CreateTask(suite.ctx, CreateTaskInput{UserID: suite.user.ID, Title: "one", Subtasks: []CreateSubtaskInput{{Description: "a"}}})
	suite.Require().NoError(err)
	second := suite.createTask("two", 10)

	_, err = suite.tasks.CompleteSubtask(suite.ctx, suite.user.ID, second.ID, first.Subtasks[0].ID)
	suite.ErrorIs(err, ErrSubtaskNotFound)

	other := suite.otherUser()
	_, err = suite.tasks.CompleteSubtask(suite.ctx, other.ID, first.ID, first.Subtasks[0].ID)
	suite.ErrorIs(err, ErrTaskNotFound)
}

func (suite *ServiceTestSuite) TestAnalyzeWithoutAssistant() {
	_, err := suite.tasks.AnalyzeTask(suite.ctx, AnalyzeTaskInput{Title: "anything"})
	suite.ErrorIs(err, ErrAssistantNotConfigured)
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}
