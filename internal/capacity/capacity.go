// Package capacity derives workload status from a user's active tasks and
// daily availability. Everything here is a pure computation over its inputs.
package capacity

import (
	"errors"
	"math"

	"github.com/yukikurage/calibrate-api/internal/models"
)

// Level is the tri-state capacity classification.
type Level string

const (
	LevelGreen  Level = "GREEN"
	LevelYellow Level = "YELLOW"
	LevelRed    Level = "RED"
)

const (
	// DefaultCautionThreshold is the percentage above which a day turns YELLOW.
	DefaultCautionThreshold = 80
	// OvercommitThreshold is the percentage above which a day turns RED.
	OvercommitThreshold = 100
)

var recommendations = map[Level]string{
	LevelGreen:  "Your schedule looks manageable.",
	LevelYellow: "You are nearing capacity.",
	LevelRed:    "You are overcommitted. Consider deferring some tasks.",
}

// ErrNoCapacity is returned when the available minutes are not positive.
var ErrNoCapacity = errors.New("available minutes must be positive")

// Status is the capacity summary for one period.
type Status struct {
	AvailableMinutes int                     `json:"available_minutes"`
	PlannedMinutes   int                     `json:"planned_minutes"`
	BufferMinutes    int                     `json:"buffer_minutes"`
	Percentage       int                     `json:"percentage"`
	Level            Level                   `json:"status"`
	Recommendation   string                  `json:"recommendation"`
	MinutesByType    map[models.TaskType]int `json:"minutes_by_type"`
}

// Recommendation returns the fixed advice shown for a level.
func Recommendation(level Level) string {
	return recommendations[level]
}

// Evaluate computes the capacity status of the active tasks in tasks against
// availableMinutes. Completed tasks are ignored. A cautionThreshold outside
// 1..100 falls back to DefaultCautionThreshold.
func Evaluate(availableMinutes, cautionThreshold int, tasks []models.Task) (Status, error) {
	if availableMinutes <= 0 {
		return Status{}, ErrNoCapacity
	}

	planned := 0
	byType := make(map[models.TaskType]int)
	for _, t := range tasks {
		if !t.Status.Active() {
			continue
		}
		minutes := max(t.EstimatedMinutes, 0)
		planned += minutes

		taskType := t.TaskType
		if taskType == "" {
			taskType = models.TaskTypeUnknown
		}
		byType[taskType] += minutes
	}

	percentage := Percentage(planned, availableMinutes)
	level := Classify(percentage, cautionThreshold)

	return Status{
		AvailableMinutes: availableMinutes,
		PlannedMinutes:   planned,
		BufferMinutes:    max(availableMinutes-planned, 0),
		Percentage:       percentage,
		Level:            level,
		Recommendation:   recommendations[level],
		MinutesByType:    byType,
	}, nil
}

// Percentage returns round(planned / available * 100), or 0 when nothing is available.
func Percentage(planned, available int) int {
	if available <= 0 {
		return 0
	}
	return int(math.Round(float64(planned) / float64(available) * 100))
}

// Classify maps a utilisation percentage to a level.
func Classify(percentage, cautionThreshold int) Level {
	if cautionThreshold < 1 || cautionThreshold > OvercommitThreshold {
		cautionThreshold = DefaultCautionThreshold
	}
	switch {
	case percentage > OvercommitThreshold:
		return LevelRed
	case percentage > cautionThreshold:
		return LevelYellow
	default:
		return LevelGreen
	}
}
