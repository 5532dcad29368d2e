package capacity

import (
	"time"

	"github.com/yukikurage/calibrate-api/internal/models"
)

const dateLayout = "2006-01-02"

// Day is the capacity status of one calendar day.
type Day struct {
	Date    string   `json:"date"`
	Weekday string   `json:"weekday"`
	TaskIDs []uint64 `json:"task_ids"`
	Status
}

// Week is a seven-day capacity breakdown starting at Start.
type Week struct {
	Start              string `json:"start"`
	Timezone           string `json:"timezone"`
	Days               []Day  `json:"days"`
	UnscheduledMinutes int    `json:"unscheduled_minutes"`
	OverloadedDays     int    `json:"overloaded_days"`
}

// StartOfWeek returns local midnight of the Monday on or before t.
func StartOfWeek(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	offset := (int(local.Weekday()) + 6) % 7
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return day.AddDate(0, 0, -offset)
}

// EvaluateWeek buckets active tasks by planning date (scheduled date, else
// deadline) into the seven days starting at start, evaluated in loc. Active
// tasks without any date are summed into UnscheduledMinutes.
func EvaluateWeek(start time.Time, loc *time.Location, availableMinutes, cautionThreshold int, tasks []models.Task) (Week, error) {
	if availableMinutes <= 0 {
		return Week{}, ErrNoCapacity
	}

	local := start.In(loc)
	first := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	buckets := make(map[string][]models.Task, 7)
	unscheduled := 0
	for _, t := range tasks {
		if !t.Status.Active() {
			continue
		}
		date := t.PlanningDate()
		if date == nil {
			unscheduled += max(t.EstimatedMinutes, 0)
			continue
		}
		key := date.In(loc).Format(dateLayout)
		buckets[key] = append(buckets[key], t)
	}

	week := Week{
		Start:              first.Format(dateLayout),
		Timezone:           loc.String(),
		Days:               make([]Day, 0, 7),
		UnscheduledMinutes: unscheduled,
	}
	for i := 0; i < 7; i++ {
		day := first.AddDate(0, 0, i)
		key := day.Format(dateLayout)
		dayTasks := buckets[key]

		status, err := Evaluate(availableMinutes, cautionThreshold, dayTasks)
		if err != nil {
			return Week{}, err
		}

		ids := make([]uint64, 0, len(dayTasks))
		for _, t := range dayTasks {
			ids = append(ids, t.ID)
		}

		if status.Level == LevelRed {
			week.OverloadedDays++
		}
		week.Days = append(week.Days, Day{
			Date:    key,
			Weekday: day.Weekday().String(),
			TaskIDs: ids,
			Status:  status,
		})
	}

	return week, nil
}
