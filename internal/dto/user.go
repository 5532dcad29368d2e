package dto

import (
	"time"

	"github.com/yukikurage/calibrate-api/internal/models"
)

// ProfileDTO is the authenticated user's profile.
type ProfileDTO struct {
	ID          uint64                  `json:"id"`
	Email       string                  `json:"email"`
	FullName    *string                 `json:"full_name"`
	CreatedAt   time.Time               `json:"created_at"`
	Preferences *models.UserPreferences `json:"preferences,omitempty"`
}

// ToProfileDTO converts a User model to ProfileDTO
func ToProfileDTO(user models.User) ProfileDTO {
	return ProfileDTO{
		ID:          user.ID,
		Email:       user.Email,
		FullName:    user.FullName,
		CreatedAt:   user.CreatedAt,
		Preferences: user.Preferences,
	}
}

// UpdateProfileRequest is the body of PATCH /api/me.
type UpdateProfileRequest struct {
	FullName Optional[string] `json:"full_name"`
}

// Check reports problems the binding tags cannot express.
func (r UpdateProfileRequest) Check() FieldErrors {
	errs := FieldErrors{}
	if r.FullName.Set && len(r.FullName.Value) > 255 {
		errs.Add("full_name", "must be at most 255")
	}
	return errs
}

// UpdatePreferencesRequest is the body of PATCH /api/me/preferences.
type UpdatePreferencesRequest struct {
	WorkHoursPerDay      Optional[float64] `json:"work_hours_per_day"`
	BufferPercent        Optional[int]     `json:"buffer_percent"`
	CautionThreshold     Optional[int]     `json:"alert_caution_threshold"`
	Timezone             Optional[string]  `json:"timezone"`
	NotificationsEnabled Optional[bool]    `json:"notifications_enabled"`
}

// Check reports problems the binding tags cannot express.
func (r UpdatePreferencesRequest) Check() FieldErrors {
	errs := FieldErrors{}
	for field, isNull := range map[string]bool{
		"work_hours_per_day":      r.WorkHoursPerDay.Null,
		"buffer_percent":          r.BufferPercent.Null,
		"alert_caution_threshold": r.CautionThreshold.Null,
		"timezone":                r.Timezone.Null,
		"notifications_enabled":   r.NotificationsEnabled.Null,
	} {
		if isNull {
			errs.Add(field, ErrNullNotAllowed.Error())
		}
	}
	return errs
}

// OnboardingRequest is the body of POST /api/me/onboarding.
type OnboardingRequest struct {
	FullName             *string `json:"full_name" binding:"omitempty,max=255"`
	WorkHoursPerDay      float64 `json:"work_hours_per_day" binding:"gt=0,lte=24"`
	BufferPercent        *int    `json:"buffer_percent" binding:"omitempty,gte=0,lte=100"`
	CautionThreshold     *int    `json:"alert_caution_threshold" binding:"omitempty,gte=1,lte=100"`
	Timezone             *string `json:"timezone" binding:"omitempty,timezone"`
	NotificationsEnabled *bool   `json:"notifications_enabled"`
}

// ExportDTO is everything stored for one user.
type ExportDTO struct {
	ExportedAt  time.Time               `json:"exported_at"`
	Profile     ProfileDTO              `json:"profile"`
	Preferences *models.UserPreferences `json:"preferences"`
	Tasks       []models.Task           `json:"tasks"`
}
