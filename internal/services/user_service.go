package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yukikurage/calibrate-api/internal/constants"
	"github.com/yukikurage/calibrate-api/internal/models"
	"github.com/yukikurage/calibrate-api/internal/repository"
	"gorm.io/gorm"
)

// UserService handles local user records for provider identities, along with
// profile, preferences and account lifecycle.
type UserService struct {
	userRepo  repository.UserRepository
	prefsRepo repository.PreferencesRepository
	taskRepo  repository.TaskRepository
	now       func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, prefsRepo repository.PreferencesRepository, taskRepo repository.TaskRepository) *UserService {
	return &UserService{
		userRepo:  userRepo,
		prefsRepo: prefsRepo,
		taskRepo:  taskRepo,
		now:       time.Now,
	}
}

// SyncInput is the verified identity to map onto a local user.
type SyncInput struct {
	ExternalID string
	Email      string
}

// UpdateProfileInput represents input for updating the profile.
type UpdateProfileInput struct {
	FullName      *string
	ClearFullName bool
}

// UpdatePreferencesInput represents a partial preferences update.
type UpdatePreferencesInput struct {
	WorkHoursPerDay      *float64
	BufferPercent        *int
	CautionThreshold     *int
	Timezone             *string
	NotificationsEnabled *bool
}

// OnboardingInput sets the first preferences of a new user.
type OnboardingInput struct {
	FullName    *string
	Preferences UpdatePreferencesInput
}

// Export is everything stored for one user.
type Export struct {
	ExportedAt  time.Time
	User        models.User
	Preferences models.UserPreferences
	Tasks       []models.Task
}

// Sync returns the local user for a verified identity, creating it with
// default preferences on first sight and refreshing a changed email.
func (s *UserService) Sync(ctx context.Context, input SyncInput) (*models.User, error) {
	if input.ExternalID == "" {
		return nil, fmt.Errorf("external id is required")
	}

	user, err := s.userRepo.FindByExternalID(ctx, input.ExternalID)
	switch {
	case err == nil:
		if input.Email != "" && user.Email != input.Email {
			user.Email = input.Email
			if err := s.userRepo.Update(ctx, user); err != nil {
				return nil, fmt.Errorf("failed to refresh email: %w", err)
			}
		}
		return user, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	user = &models.User{ExternalID: input.ExternalID, Email: input.Email}
	prefs := models.DefaultPreferences(0)
	if err := s.userRepo.CreateWithPreferences(ctx, user, &prefs); err != nil {
		// A concurrent request may have created the same user first.
		if existing, findErr := s.userRepo.FindByExternalID(ctx, input.ExternalID); findErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.InfoContext(ctx, "user created", "user_id", user.ID)
	return user, nil
}

// GetProfile returns the user with preferences.
func (s *UserService) GetProfile(ctx context.Context, userID uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID, "Preferences")
	if err != nil {
		return nil, notFound(err, ErrUserNotFound, "find user")
	}
	return user, nil
}

// UpdateProfile changes the user's own fields.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint64, input UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound, "find user")
	}

	if input.ClearFullName {
		user.FullName = nil
	} else if input.FullName != nil {
		user.FullName = normalizeText(input.FullName)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return s.GetProfile(ctx, userID)
}

// GetPreferences returns the user's preferences, defaults when none are stored.
func (s *UserService) GetPreferences(ctx context.Context, userID uint64) (*models.UserPreferences, error) {
	prefs, err := s.prefsRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			defaults := models.DefaultPreferences(userID)
			return &defaults, nil
		}
		return nil, fmt.Errorf("failed to find preferences: %w", err)
	}
	return prefs, nil
}

// UpdatePreferences merges input into the stored preferences.
func (s *UserService) UpdatePreferences(ctx context.Context, userID uint64, input UpdatePreferencesInput) (*models.UserPreferences, error) {
	prefs, err := s.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := applyPreferences(prefs, input); err != nil {
		return nil, err
	}

	if err := s.prefsRepo.Save(ctx, prefs); err != nil {
		return nil, fmt.Errorf("failed to save preferences: %w", err)
	}
	return prefs, nil
}

// Onboard stores the first preferences and marks the user onboarded.
func (s *UserService) Onboard(ctx context.Context, userID uint64, input OnboardingInput) (*models.User, error) {
	if input.Preferences.WorkHoursPerDay == nil {
		return nil, fieldError("work_hours_per_day", "is required")
	}

	prefs, err := s.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := applyPreferences(prefs, input.Preferences); err != nil {
		return nil, err
	}
	prefs.Onboarded = true

	if input.FullName != nil {
		if _, err := s.UpdateProfile(ctx, userID, UpdateProfileInput{FullName: input.FullName}); err != nil {
			return nil, err
		}
	}

	if err := s.prefsRepo.Save(ctx, prefs); err != nil {
		return nil, fmt.Errorf("failed to save preferences: %w", err)
	}
	return s.GetProfile(ctx, userID)
}

// Export gathers the profile, preferences and all tasks with subtasks.
func (s *UserService) Export(ctx context.Context, userID uint64) (*Export, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	prefs, err := s.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.ListAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}

	return &Export{
		ExportedAt:  s.now().UTC(),
		User:        *user,
		Preferences: *prefs,
		Tasks:       tasks,
	}, nil
}

// DeleteAccount removes the user and everything it owns.
func (s *UserService) DeleteAccount(ctx context.Context, userID uint64) error {
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return notFound(err, ErrUserNotFound, "delete user")
	}
	slog.InfoContext(ctx, "user deleted", "user_id", userID)
	return nil
}

func applyPreferences(prefs *models.UserPreferences, input UpdatePreferencesInput) error {
	if input.WorkHoursPerDay != nil {
		hours := *input.WorkHoursPerDay
		if hours <= 0 || hours > constants.MaxWorkHoursPerDay {
			return fieldError("work_hours_per_day", "must be greater than 0 and at most 24")
		}
		prefs.WorkHoursPerDay = hours
	}
	if input.BufferPercent != nil {
		if *input.BufferPercent < 0 || *input.BufferPercent > 100 {
			return fieldError("buffer_percent", "must be between 0 and 100")
		}
		prefs.BufferPercent = *input.BufferPercent
	}
	if input.CautionThreshold != nil {
		if *input.CautionThreshold < 1 || *input.CautionThreshold > 100 {
			return fieldError("alert_caution_threshold", "must be between 1 and 100")
		}
		prefs.CautionThreshold = *input.CautionThreshold
	}
	if input.Timezone != nil {
		tz := strings.TrimSpace(*input.Timezone)
		if tz == "" {
			return fieldError("timezone", "must be a valid IANA timezone")
		}
		if _, err := time.LoadLocation(tz); err != nil {
			return fieldError("timezone", "must be a valid IANA timezone")
		}
		prefs.Timezone = tz
	}
	if input.NotificationsEnabled != nil {
		prefs.NotificationsEnabled = *input.NotificationsEnabled
	}
	return nil
}
