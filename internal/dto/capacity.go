package dto

import (
	"github.com/yukikurage/calibrate-api/internal/capacity"
	"github.com/yukikurage/calibrate-api/internal/models"
)

// CapacityResponse is today's capacity for the authenticated user.
type CapacityResponse struct {
	Date                  string  `json:"date"`
	Timezone              string  `json:"timezone"`
	WorkHoursPerDay       float64 `json:"work_hours_per_day"`
	ReservedBufferMinutes int     `json:"reserved_buffer_minutes"`
	capacity.Status
}

// ToCapacityResponse combines an evaluated status with the preferences it was computed from.
func ToCapacityResponse(date string, prefs models.UserPreferences, status capacity.Status) CapacityResponse {
	return CapacityResponse{
		Date:                  date,
		Timezone:              prefs.Timezone,
		WorkHoursPerDay:       prefs.WorkHoursPerDay,
		ReservedBufferMinutes: status.AvailableMinutes * prefs.BufferPercent / 100,
		Status:                status,
	}
}
