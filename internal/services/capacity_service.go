package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yukikurage/calibrate-api/internal/capacity"
	"github.com/yukikurage/calibrate-api/internal/models"
	"github.com/yukikurage/calibrate-api/internal/repository"
	"github.com/yukikurage/calibrate-api/internal/utils"
	"gorm.io/gorm"
)

// CapacityService feeds stored tasks and preferences to the capacity evaluator
type CapacityService struct {
	taskRepo  repository.TaskRepository
	prefsRepo repository.PreferencesRepository
	now       func() time.Time
}

// NewCapacityService creates a new CapacityService
func NewCapacityService(taskRepo repository.TaskRepository, prefsRepo repository.PreferencesRepository) *CapacityService {
	return &CapacityService{
		taskRepo:  taskRepo,
		prefsRepo: prefsRepo,
		now:       time.Now,
	}
}

// DailyCapacity is today's capacity together with the preferences behind it
type DailyCapacity struct {
	Date        string
	Preferences models.UserPreferences
	Status      capacity.Status
}

// Daily evaluates every active task against one day of availability
func (s *CapacityService) Daily(ctx context.Context, userID uint64) (*DailyCapacity, error) {
	prefs, loc, err := s.preferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.ListActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active tasks: %w", err)
	}

	status, err := capacity.Evaluate(prefs.AvailableMinutes(), prefs.CautionThreshold, tasks)
	if err != nil {
		return nil, noCapacity(err)
	}

	return &DailyCapacity{
		Date:        s.now().In(loc).Format("2006-01-02"),
		Preferences: *prefs,
		Status:      status,
	}, nil
}

// Weekly evaluates seven days starting at start (YYYY-MM-DD in the user's
// timezone), or at the current week's Monday when start is empty.
func (s *CapacityService) Weekly(ctx context.Context, userID uint64, start string) (*capacity.Week, error) {
	prefs, loc, err := s.preferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	var from time.Time
	if start == "" {
		from = capacity.StartOfWeek(s.now(), loc)
	} else if from, err = utils.ParseDate(start, loc); err != nil {
		return nil, fieldError("start", "must be a date in YYYY-MM-DD format")
	}

	tasks, err := s.taskRepo.ListActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active tasks: %w", err)
	}

	week, err := capacity.EvaluateWeek(from, loc, prefs.AvailableMinutes(), prefs.CautionThreshold, tasks)
	if err != nil {
		return nil, noCapacity(err)
	}
	return &week, nil
}

// Insights compares estimates with actual times over completed tasks
func (s *CapacityService) Insights(ctx context.Context, userID uint64) (*capacity.Insights, error) {
	tasks, err := s.taskRepo.ListCompleted(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed tasks: %w", err)
	}

	insights := capacity.Calibrate(tasks)
	return &insights, nil
}

// preferences loads the user's preferences, falling back to defaults for
// users that have none yet.
func (s *CapacityService) preferences(ctx context.Context, userID uint64) (*models.UserPreferences, *time.Location, error) {
	prefs, err := s.prefsRepo.FindByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("failed to load preferences: %w", err)
		}
		defaults := models.DefaultPreferences(userID)
		prefs = &defaults
	}

	loc, err := time.LoadLocation(prefs.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return prefs, loc, nil
}

func noCapacity(err error) error {
	if errors.Is(err, capacity.ErrNoCapacity) {
		return fieldError("work_hours_per_day", "must be greater than 0")
	}
	return err
}
