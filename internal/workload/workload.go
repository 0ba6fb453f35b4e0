// Package workload computes per-user, per-day allocation against capacity
// and flags overload and bottleneck conditions. All functions operate on
// task/user snapshots passed by value and never mutate them.
package workload

import (
	"math"
	"time"

	"github.com/zulandar/replan/internal/calendar"
	"github.com/zulandar/replan/internal/models"
)

// fallbackHoursPerDay is charged for tasks whose date span contains no
// working day. Lenient by design: tasks with incomplete data still count
// instead of failing the computation.
const fallbackHoursPerDay = 4

// Default bottleneck thresholds: a day is a bottleneck when any user's load
// exceeds the load threshold or more than taskThreshold tasks are active.
const (
	DefaultLoadThreshold = 80
	DefaultTaskThreshold = 5
)

// Sample is one user's computed load for one day.
type Sample struct {
	UserID         string  `json:"userId"`
	Date           time.Time `json:"date"`
	HoursAllocated float64 `json:"hoursAllocated"`
	HoursAvailable float64 `json:"hoursAvailable"`
	LoadPercent    int     `json:"loadPercent"`
	Overloaded     bool    `json:"overloaded"`
}

// Bottleneck describes one day's aggregate pressure.
type Bottleneck struct {
	Date           time.Time `json:"date"`
	ActiveTasks    int       `json:"activeTasks"`
	MaxLoadPercent int       `json:"maxLoadPercent"`
	Bottleneck     bool      `json:"bottleneck"`
}

// Report aggregates workload over a date range.
type Report struct {
	Start          time.Time    `json:"start"`
	End            time.Time    `json:"end"`
	AverageLoad    int          `json:"averageLoad"`
	MaxLoad        int          `json:"maxLoad"`
	TotalTasks     int          `json:"totalTasks"`
	BottleneckDays []Bottleneck `json:"bottleneckDays"`
}

// Thresholds overrides the default bottleneck rule.
type Thresholds struct {
	LoadPercent int
	TaskCount   int
}

// DefaultThresholds returns the canonical bottleneck rule.
func DefaultThresholds() Thresholds {
	return Thresholds{LoadPercent: DefaultLoadThreshold, TaskCount: DefaultTaskThreshold}
}

// ActiveOn reports whether a task counts toward allocation on a date.
// Tasks with both dates are active inside their span; tasks with missing
// dates are treated as always active until completed.
func ActiveOn(t *models.Task, date time.Time) bool {
	if t.StartDate == nil || t.EndDate == nil {
		return !t.Completed()
	}
	day := dateOnly(date)
	return !day.Before(dateOnly(*t.StartDate)) && !day.After(dateOnly(*t.EndDate))
}

// PerDayHours returns the hours a task charges against its assignee on one
// active day. Tasks spread their estimate evenly over working days; spans
// with no working day fall back to 4 h/day, and tasks with no dates at all
// charge their raw estimate.
func PerDayHours(t *models.Task) float64 {
	if t.StartDate == nil || t.EndDate == nil {
		if t.EstimatedHours != nil {
			return *t.EstimatedHours
		}
		return fallbackHoursPerDay
	}
	if t.EstimatedHours == nil {
		return fallbackHoursPerDay
	}
	days := calendar.WorkingDaysBetween(*t.StartDate, *t.EndDate)
	if days < 1 {
		return fallbackHoursPerDay
	}
	return *t.EstimatedHours / float64(days)
}

// Daily computes each user's allocation for one date.
func Daily(date time.Time, tasks []models.Task, users []models.User) []Sample {
	samples := make([]Sample, 0, len(users))
	for i := range users {
		u := &users[i]
		var allocated float64
		for j := range tasks {
			tk := &tasks[j]
			if tk.AssigneeID == nil || *tk.AssigneeID != u.ID {
				continue
			}
			if !ActiveOn(tk, date) {
				continue
			}
			allocated += PerDayHours(tk)
		}
		available := u.Capacity()
		load := int(math.Round(allocated / available * 100))
		samples = append(samples, Sample{
			UserID:         u.ID,
			Date:           dateOnly(date),
			HoursAllocated: allocated,
			HoursAvailable: available,
			LoadPercent:    load,
			Overloaded:     load > 100,
		})
	}
	return samples
}

// DetectBottleneck evaluates one day against the bottleneck thresholds.
func DetectBottleneck(date time.Time, tasks []models.Task, users []models.User, th Thresholds) Bottleneck {
	active := 0
	for i := range tasks {
		if ActiveOn(&tasks[i], date) {
			active++
		}
	}

	maxLoad := 0
	for _, s := range Daily(date, tasks, users) {
		if s.LoadPercent > maxLoad {
			maxLoad = s.LoadPercent
		}
	}

	return Bottleneck{
		Date:           dateOnly(date),
		ActiveTasks:    active,
		MaxLoadPercent: maxLoad,
		Bottleneck:     maxLoad > th.LoadPercent || active > th.TaskCount,
	}
}

// GenerateReport walks every calendar day in [start, end] and aggregates
// load statistics and bottleneck days.
func GenerateReport(start, end time.Time, tasks []models.Task, users []models.User, th Thresholds) Report {
	report := Report{Start: dateOnly(start), End: dateOnly(end)}

	var loadSum, loadCount int
	seen := make(map[string]bool)

	for d := dateOnly(start); !d.After(dateOnly(end)); d = d.AddDate(0, 0, 1) {
		for _, s := range Daily(d, tasks, users) {
			loadSum += s.LoadPercent
			loadCount++
			if s.LoadPercent > report.MaxLoad {
				report.MaxLoad = s.LoadPercent
			}
		}
		b := DetectBottleneck(d, tasks, users, th)
		if b.Bottleneck {
			report.BottleneckDays = append(report.BottleneckDays, b)
		}
		for i := range tasks {
			if ActiveOn(&tasks[i], d) && !seen[tasks[i].ID] {
				seen[tasks[i].ID] = true
			}
		}
	}

	if loadCount > 0 {
		report.AverageLoad = int(math.Round(float64(loadSum) / float64(loadCount)))
	}
	report.TotalTasks = len(seen)
	return report
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
