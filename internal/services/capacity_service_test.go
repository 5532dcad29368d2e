package services

import (
	"time"

	"github.com/yukikurage/calibrate-api/internal/capacity"
	"github.com/yukikurage/calibrate-api/internal/models"
)

func (suite *ServiceTestSuite) TestDailyCapacity() {
	suite.createTask("deep work", 300)
	suite.createTask("email", 150)
	done := suite.createTask("finished", 500)
	_, err := suite.tasks.CompleteTask(suite.ctx, suite.user.ID, done.ID, nil)
	suite.Require().NoError(err)

	daily, err := suite.capacity.Daily(suite.ctx, suite.user.ID)
	suite.Require().NoError(err)

	suite.Equal("2026-10-21", daily.Date)
	suite.Equal(480, daily.Status.AvailableMinutes)
	suite.Equal(450, daily.Status.PlannedMinutes)
	suite.Equal(94, daily.Status.Percentage)
	suite.Equal(capacity.LevelYellow, daily.Status.Level)
	suite.Equal("You are nearing capacity.", daily.Status.Recommendation)
}

func (suite *ServiceTestSuite) TestDailyCapacityUsesUserThreshold() {
	suite.createTask("deep work", 300)
	threshold := 95
	hours := 10.0
	_, err := suite.users.UpdatePreferences(suite.ctx, suite.user.ID, UpdatePreferencesInput{
		CautionThreshold: &threshold,
		WorkHoursPerDay:  &hours,
	})
	suite.Require().NoError(err)

	daily, err := suite.capacity.Daily(suite.ctx, suite.user.ID)
	suite.Require().NoError(err)
	suite.Equal(600, daily.Status.AvailableMinutes)
	suite.Equal(50, daily.Status.Percentage)
	suite.Equal(capacity.LevelGreen, daily.Status.Level)
	suite.Equal(95, daily.Preferences.CautionThreshold)
}

func (suite *ServiceTestSuite) TestDailyCapacityWithoutPreferences() {
	suite.Require().NoError(suite.db.Where("user_id = ?", suite.user.ID).Delete(&models.UserPreferences{}).Error)

	daily, err := suite.capacity.Daily(suite.ctx, suite.user.ID)
	suite.Require().NoError(err)
	suite.Equal(480, daily.Status.AvailableMinutes)
}

func (suite *ServiceTestSuite) TestWeeklyCapacity() {
	_, err := suite.tasks.CreateTask(suite.ctx, CreateTaskInput{
		UserID: suite.user.ID, Title: "tuesday", EstimatedMinutes: intPtr(500), ScheduledDate: strPtr("2026-10-20"),
	})
	suite.Require().NoError(err)
	_, err = suite.tasks.CreateTask(suite.ctx, CreateTaskInput{
		UserID: suite.user.ID, Title: "friday deadline", EstimatedMinutes: intPtr(60), Deadline: strPtr("2026-10-23T17:00:00Z"),
	})
	suite.Require().NoError(err)
	suite.createTask("someday", 30)

	week, err := suite.capacity.Weekly(suite.ctx, suite.user.ID, "")
	suite.Require().NoError(err)

	suite.Equal("2026-10-19", week.Start)
	suite.Equal(capacity.LevelRed, week.Days[1].Level)
	suite.Equal(60, week.Days[4].PlannedMinutes)
	suite.Equal(30, week.UnscheduledMinutes)
	suite.Equal(1, week.OverloadedDays)

	next, err := suite.capacity.Weekly(suite.ctx, suite.user.ID, "2026-10-26")
	suite.Require().NoError(err)
	suite.Equal("2026-10-26", next.Start)
	suite.Zero(next.OverloadedDays)

	_, err = suite.capacity.Weekly(suite.ctx, suite.user.ID, "26/10/2026")
	suite.ErrorIs(err, ErrValidation)
}

func (suite *ServiceTestSuite) TestWeeklyCapacityFollowsTimezone() {
	tz := "America/New_York"
	_, err := suite.users.UpdatePreferences(suite.ctx, suite.user.ID, UpdatePreferencesInput{Timezone: &tz})
	suite.Require().NoError(err)

	// 02:00 UTC on Tuesday is still Monday evening in New York.
	_, err = suite.tasks.CreateTask(suite.ctx, CreateTaskInput{
		UserID: suite.user.ID, Title: "late", EstimatedMinutes: intPtr(60), ScheduledDate: strPtr("2026-10-20T02:00:00Z"),
	})
	suite.Require().NoError(err)

	week, err := suite.capacity.Weekly(suite.ctx, suite.user.ID, "2026-10-19")
	suite.Require().NoError(err)
	suite.Equal("America/New_York", week.Timezone)
	suite.Equal(60, week.Days[0].PlannedMinutes)
	suite.Zero(week.Days[1].PlannedMinutes)
}

func (suite *ServiceTestSuite) TestInsights() {
	over := suite.createTask("over", 60)
	under := suite.createTask("under", 100)
	suite.createTask("open", 999)

	_, err := suite.tasks.CompleteTask(suite.ctx, suite.user.ID, over.ID, intPtr(90))
	suite.Require().NoError(err)
	suite.tasks.now = func() time.Time { return fixedNow.Add(time.Minute) }
	_, err = suite.tasks.CompleteTask(suite.ctx, suite.user.ID, under.ID, intPtr(50))
	suite.Require().NoError(err)

	insights, err := suite.capacity.Insights(suite.ctx, suite.user.ID)
	suite.Require().NoError(err)

	suite.Equal(2, insights.Overall.CompletedTasks)
	suite.Equal(160, insights.Overall.EstimatedMinutes)
	suite.Equal(140, insights.Overall.ActualMinutes)
	suite.Equal(0.88, insights.Overall.CalibrationFactor)
	suite.Contains(insights.ByType, models.TaskTypeUnknown)
}
