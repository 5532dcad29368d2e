package models

import (
	"time"
)

// User is the local record for an identity issued by the external provider.
type User struct {
	ID         uint64    `gorm:"primarykey" json:"id"`
	ExternalID string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	Email      string    `gorm:"type:varchar(255);not null" json:"email"`
	FullName   *string   `gorm:"type:varchar(255)" json:"full_name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Relations
	Preferences *UserPreferences `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"preferences,omitempty"`
	Tasks       []Task           `gorm:"foreignKey:UserID" json:"-"`
}
