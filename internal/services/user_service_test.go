package services

import (
	"github.com/yukikurage/calibrate-api/internal/models"
)

func (suite *ServiceTestSuite) TestSyncCreatesUserOnce() {
	again, err := suite.users.Sync(suite.ctx, SyncInput{
		ExternalID: "5b0c7d8e-3f5a-4c4e-9a53-0f9f2b6a1c11",
		Email:      "owner@example.com",
	})
	suite.Require().NoError(err)
	suite.Equal(suite.user.ID, again.ID)

	var count int64
	suite.db.Model(&models.User{}).Count(&count)
	suite.Equal(int64(1), count)

	prefs, err := suite.users.GetPreferences(suite.ctx, suite.user.ID)
	suite.Require().NoError(err)
	suite.Equal(8.0, prefs.WorkHoursPerDay)
	suite.Equal(20, prefs.BufferPercent)
}

func (suite *ServiceTestSuite) TestSyncRefreshesEmail() {
	updated, err := suite.users.Sync(suite.ctx, SyncInput{
		ExternalID: "5b0c7d8e-3f5a-4c4e-9a53-0f9f2b6a1c11",
		Email:      "new@example.com",
	})
	suite.Require().NoError(err)
	suite.Equal("new@example.com", updated.Email)

	profile, err := suite.users.GetProfile(suite.ctx, suite.user.ID)
	suite.Require().NoError(err)
	suite.Equal("new@example.com", profile.Email)
	suite.Require().NotNil(profile.Preferences)
}

func (suite *ServiceTestSuite) TestSyncRequiresSubject() {
	_, err := suite.users.Sync(suite.ctx, SyncInput{Email: "x@example.com"})
	suite.Error(err)
}

func (suite *ServiceTestSuite) TestUpdateProfile() {
	user, err := suite.users.UpdateProfile(suite.ctx, suite.user.ID, UpdateProfileInput{FullName: strPtr(" Ada Lovelace ")})
	suite.Require().NoError(err)
	suite.Equal("Ada Lovelace", *user.FullName)

	user, err = suite.users.UpdateProfile(suite.ctx, suite.user.ID, UpdateProfileInput{ClearFullName: true})
	suite.Require().NoError(err)
	suite.Nil(user.FullName)

	_, err = suite.users.UpdateProfile(suite.ctx, 9999, UpdateProfileInput{})
	suite.ErrorIs(err, ErrUserNotFound)
}

func (suite *ServiceTestSuite) TestUpdatePreferencesMerges() {
	buffer := 10
	notify := false
	prefs, err := suite.users.UpdatePreferences(suite.ctx, suite.user.ID, UpdatePreferencesInput{
		BufferPercent:        &buffer,
		NotificationsEnabled: &notify,
	})
	suite.Require().NoError(err)
	suite.Equal(10, prefs.BufferPercent)
	suite.False(prefs.NotificationsEnabled)
	suite.Equal(8.0, prefs.WorkHoursPerDay, "untouched fields keep their value")

	reloaded, err := suite.users.GetPreferences(suite.ctx, suite.user.ID)
	suite.Require().NoError(err)
	suite.False(reloaded.NotificationsEnabled)
}

func (suite *ServiceTestSuite) TestUpdatePreferencesValidation() {
	zero := 0.0
	tooMany := 25.0
	threshold := 0
	buffer := 101
	tz := "Mars/Olympus_Mons"

	cases := map[string]UpdatePreferencesInput{
		"work_hours_per_day":      {WorkHoursPerDay: &zero},
		"buffer_percent":          {BufferPercent: &buffer},
		"alert_caution_threshold": {CautionThreshold: &threshold},
		"timezone":                {Timezone: &tz},
	}
	for field, input := range cases {
		_, err := suite.users.UpdatePreferences(suite.ctx, suite.user.ID, input)
		var fe *FieldError
		suite.Require().ErrorAs(err, &fe, field)
		suite.Equal(field, fe.Field)
	}

	_, err := suite.users.UpdatePreferences(suite.ctx, suite.user.ID, UpdatePreferencesInput{WorkHoursPerDay: &tooMany})
	suite.ErrorIs(err, ErrValidation)
}

func (suite *ServiceTestSuite) TestOnboard() {
	_, err := suite.users.Onboard(suite.ctx, suite.user.ID, OnboardingInput{})
	suite.ErrorIs(err, ErrValidation)

	hours := 6.0
	tz := "Europe/Berlin"
	user, err := suite.users.Onboard(suite.ctx, suite.user.ID, OnboardingInput{
		FullName:    strPtr("Grace"),
		Preferences: UpdatePreferencesInput{WorkHoursPerDay: &hours, Timezone: &tz},
	})
	suite.Require().NoError(err)

	suite.Equal("Grace", *user.FullName)
	suite.Require().NotNil(user.Preferences)
	suite.True(user.Preferences.Onboarded)
	suite.Equal(360, user.Preferences.AvailableMinutes())
	suite.Equal("Europe/Berlin", user.Preferences.Timezone)
}

func (suite *ServiceTestSuite) TestExport() {
	_, err := suite.tasks.CreateTask(suite.ctx, CreateTaskInput{
		UserID:   suite.user.ID,
		Title:    "exported",
		Subtasks: []CreateSubtaskInput{{Description: "step"}},
	})
	suite.Require().NoError(err)

	export, err := suite.users.Export(suite.ctx, suite.user.ID)
	suite.Require().NoError(err)

	suite.Equal(fixedNow, export.ExportedAt)
	suite.Equal(suite.user.ID, export.User.ID)
	suite.Equal("UTC", export.Preferences.Timezone)
	suite.Require().Len(export.Tasks, 1)
	suite.Len(export.Tasks[0].Subtasks, 1)
}

func (suite *ServiceTestSuite) TestDeleteAccount() {
	suite.createTask("gone", 10)

	suite.Require().NoError(suite.users.DeleteAccount(suite.ctx, suite.user.ID))
	suite.ErrorIs(suite.users.DeleteAccount(suite.ctx, suite.user.ID), ErrUserNotFound)

	_, err := suite.users.GetProfile(suite.ctx, suite.user.ID)
	suite.ErrorIs(err, ErrUserNotFound)

	var count int64
	suite.db.Model(&models.Task{}).Count(&count)
	suite.Zero(count)
}
