package models

import (
	"math"
	"time"

	"github.com/yukikurage/calibrate-api/internal/constants"
)

type UserPreferences struct {
	UserID               uint64    `gorm:"primarykey;autoIncrement:false" json:"-"`
	WorkHoursPerDay      float64   `gorm:"not null;default:8" json:"work_hours_per_day"`
	BufferPercent        int       `gorm:"not null;default:20" json:"buffer_percent"`
	CautionThreshold     int       `gorm:"not null;default:80" json:"alert_caution_threshold"`
	Timezone             string    `gorm:"type:varchar(64);not null;default:'UTC'" json:"timezone"`
	NotificationsEnabled bool      `gorm:"not null" json:"notifications_enabled"`
	Onboarded            bool      `gorm:"not null;default:false" json:"onboarded"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// DefaultPreferences returns the settings a user starts with.
func DefaultPreferences(userID uint64) UserPreferences {
	return UserPreferences{
		UserID:               userID,
		WorkHoursPerDay:      constants.DefaultWorkHoursPerDay,
		BufferPercent:        constants.DefaultBufferPercent,
		CautionThreshold:     constants.DefaultCautionThreshold,
		Timezone:             constants.DefaultTimezone,
		NotificationsEnabled: true,
	}
}

// AvailableMinutes is the daily work capacity in whole minutes.
func (p UserPreferences) AvailableMinutes() int {
	return int(math.Round(p.WorkHoursPerDay * 60))
}
