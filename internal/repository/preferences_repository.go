package repository

import (
	"context"

	"github.com/yukikurage/calibrate-api/internal/models"
	"gorm.io/gorm"
)

// GormPreferencesRepository is a GORM implementation of PreferencesRepository
type GormPreferencesRepository struct {
	db *gorm.DB
}

// NewPreferencesRepository creates a new PreferencesRepository
func NewPreferencesRepository(db *gorm.DB) PreferencesRepository {
	return &GormPreferencesRepository{db: db}
}

// FindByUserID finds the preferences of a user
func (r *GormPreferencesRepository) FindByUserID(ctx context.Context, userID uint64) (*models.UserPreferences, error) {
	var prefs models.UserPreferences
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&prefs).Error; err != nil {
		return nil, err
	}
	return &prefs, nil
}

// Save creates or replaces a user's preferences
func (r *GormPreferencesRepository) Save(ctx context.Context, prefs *models.UserPreferences) error {
	return r.db.WithContext(ctx).Save(prefs).Error
}
