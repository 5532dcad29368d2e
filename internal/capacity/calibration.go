package capacity

import (
	"math"

	"github.com/yukikurage/calibrate-api/internal/models"
)

// Calibration summarises how completed tasks compared with their estimates.
type Calibration struct {
	CompletedTasks    int     `json:"completed_tasks"`
	EstimatedMinutes  int     `json:"estimated_minutes"`
	ActualMinutes     int     `json:"actual_minutes"`
	CalibrationFactor float64 `json:"calibration_factor"`
	MeanBiasMinutes   float64 `json:"mean_bias_minutes"`
	AccuracyPercent   float64 `json:"accuracy_percent"`
}

// Insights holds the overall calibration and one entry per task type.
type Insights struct {
	Overall Calibration                     `json:"overall"`
	ByType  map[models.TaskType]Calibration `json:"by_type"`
}

type accumulator struct {
	count     int
	estimated int
	actual    int
	bias      int
	accuracy  float64
}

func (a *accumulator) add(estimated, actual int) {
	a.count++
	a.estimated += estimated
	a.actual += actual
	a.bias += actual - estimated
	a.accuracy += accuracy(estimated, actual)
}

func (a *accumulator) result() Calibration {
	c := Calibration{
		CompletedTasks:   a.count,
		EstimatedMinutes: a.estimated,
		ActualMinutes:    a.actual,
	}
	if a.count == 0 {
		return c
	}
	if a.estimated > 0 {
		c.CalibrationFactor = round2(float64(a.actual) / float64(a.estimated))
	}
	c.MeanBiasMinutes = round2(float64(a.bias) / float64(a.count))
	c.AccuracyPercent = round2(a.accuracy / float64(a.count))
	return c
}

// Calibrate computes estimate accuracy over completed tasks that recorded an
// actual time. Other tasks are ignored.
func Calibrate(tasks []models.Task) Insights {
	var overall accumulator
	byType := make(map[models.TaskType]*accumulator)

	for _, t := range tasks {
		if t.Status != models.TaskStatusCompleted || t.ActualMinutes == nil {
			continue
		}
		estimated := max(t.EstimatedMinutes, 0)
		actual := max(*t.ActualMinutes, 0)

		overall.add(estimated, actual)

		taskType := t.TaskType
		if taskType == "" {
			taskType = models.TaskTypeUnknown
		}
		acc, ok := byType[taskType]
		if !ok {
			acc = &accumulator{}
			byType[taskType] = acc
		}
		acc.add(estimated, actual)
	}

	insights := Insights{
		Overall: overall.result(),
		ByType:  make(map[models.TaskType]Calibration, len(byType)),
	}
	for taskType, acc := range byType {
		insights.ByType[taskType] = acc.result()
	}
	return insights
}

// accuracy is min/max of the two durations as a percentage; two zeros agree perfectly.
func accuracy(estimated, actual int) float64 {
	if estimated == actual {
		return 100
	}
	if estimated == 0 || actual == 0 {
		return 0
	}
	return float64(min(estimated, actual)) / float64(max(estimated, actual)) * 100
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
