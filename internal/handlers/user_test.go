package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/yukikurage/calibrate-api/internal/models"
)

type profileBody struct {
	ID          uint64                  `json:"id"`
	Email       string                  `json:"email"`
	FullName    *string                 `json:"full_name"`
	Preferences *models.UserPreferences `json:"preferences"`
}

func (suite *HandlerTestSuite) TestMe_SyncsUserOnFirstRequest() {
	w := suite.request(http.MethodGet, "/api/me", suite.token, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	var profile profileBody
	suite.decode(w, &profile)
	suite.Equal("owner@example.com", profile.Email)
	suite.Require().NotNil(profile.Preferences)
	suite.Equal(8.0, profile.Preferences.WorkHoursPerDay)
	suite.False(profile.Preferences.Onboarded)

	// A changed email in the token is picked up on the next request.
	token := suite.issueToken(ownerSub, "renamed@example.com", time.Hour)
	w = suite.request(http.MethodGet, "/api/me", token, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	var again profileBody
	suite.decode(w, &again)
	suite.Equal(profile.ID, again.ID)
	suite.Equal("renamed@example.com", again.Email)

	var count int64
	suite.db.Model(&models.User{}).Count(&count)
	suite.Equal(int64(1), count)
}

func (suite *HandlerTestSuite) TestUpdateMe() {
	w := suite.request(http.MethodPatch, "/api/me", suite.token, map[string]any{"full_name": "  Ada Lovelace "})
	suite.Require().Equal(http.StatusOK, w.Code)

	var profile profileBody
	suite.decode(w, &profile)
	suite.Require().NotNil(profile.FullName)
	suite.Equal("Ada Lovelace", *profile.FullName)

	w = suite.request(http.MethodPatch, "/api/me", suite.token, `{"full_name": null}`)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(w, &profile)
	suite.Nil(profile.FullName)
}

func (suite *HandlerTestSuite) TestPreferences() {
	w := suite.request(http.MethodPatch, "/api/me/preferences", suite.token, map[string]any{
		"work_hours_per_day":      6.5,
		"alert_caution_threshold": 70,
		"timezone":                "Asia/Tokyo",
	})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var prefs models.UserPreferences
	suite.decode(w, &prefs)
	suite.Equal(6.5, prefs.WorkHoursPerDay)
	suite.Equal(70, prefs.CautionThreshold)
	suite.Equal("Asia/Tokyo", prefs.Timezone)
	suite.Equal(20, prefs.BufferPercent)

	w = suite.request(http.MethodGet, "/api/me/preferences", suite.token, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(w, &prefs)
	suite.Equal("Asia/Tokyo", prefs.Timezone)

	tests := []struct {
		body  any
		field string
	}{
		{map[string]any{"work_hours_per_day": 0}, "work_hours_per_day"},
		{map[string]any{"work_hours_per_day": 25}, "work_hours_per_day"},
		{map[string]any{"buffer_percent": 101}, "buffer_percent"},
		{map[string]any{"timezone": "Mars/Olympus"}, "timezone"},
		{`{"timezone": null}`, "timezone"},
	}
	for _, tt := range tests {
		w = suite.request(http.MethodPatch, "/api/me/preferences", suite.token, tt.body)
		suite.Equal(http.StatusBadRequest, w.Code, tt.field)

		var body errorBody
		suite.decode(w, &body)
		suite.Contains(body.Details, tt.field)
	}
}

func (suite *HandlerTestSuite) TestOnboarding() {
	w := suite.request(http.MethodPost, "/api/me/onboarding", suite.token, map[string]any{"buffer_percent": 10})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodPost, "/api/me/onboarding", suite.token, map[string]any{
		"full_name":          "Grace",
		"work_hours_per_day": 7,
		"timezone":           "Europe/Berlin",
	})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var profile profileBody
	suite.decode(w, &profile)
	suite.Equal("Grace", *profile.FullName)
	suite.Require().NotNil(profile.Preferences)
	suite.True(profile.Preferences.Onboarded)
	suite.Equal(7.0, profile.Preferences.WorkHoursPerDay)
	suite.Equal("Europe/Berlin", profile.Preferences.Timezone)
}

func (suite *HandlerTestSuite) TestExport() {
	suite.createTask(map[string]any{"title": "Keep", "subtasks": []map[string]any{{"description": "part"}}})

	w := suite.request(http.MethodGet, "/api/me/export", suite.token, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Contains(w.Header().Get("Content-Disposition"), "attachment")

	var export struct {
		Profile     profileBody             `json:"profile"`
		Preferences *models.UserPreferences `json:"preferences"`
		Tasks       []models.Task           `json:"tasks"`
	}
	suite.decode(w, &export)
	suite.Equal("owner@example.com", export.Profile.Email)
	suite.NotNil(export.Preferences)
	suite.Require().Len(export.Tasks, 1)
	suite.Len(export.Tasks[0].Subtasks, 1)
}

func (suite *HandlerTestSuite) TestDeleteMe() {
	task := suite.createTask(map[string]any{"title": "Gone", "subtasks": []map[string]any{{"description": "too"}}})

	w := suite.request(http.MethodDelete, "/api/me", suite.token, nil)
	suite.Equal(http.StatusNoContent, w.Code)

	for _, model := range []any{&models.Task{}, &models.Subtask{}, &models.UserPreferences{}} {
		var count int64
		suite.db.Model(model).Count(&count)
		suite.Zero(count, fmt.Sprintf("%T", model))
	}

	// The next request signs the same identity up again as a fresh user.
	w = suite.request(http.MethodGet, fmt.Sprintf("/api/tasks/%d", task.ID), suite.token, nil)
	suite.Equal(http.StatusNotFound, w.Code)
}
