// Package reschedule propagates task completion through the dependency
// graph and re-lays out whole projects. Every operation runs under its
// project's lock and commits all writes in one transaction.
package reschedule

import (
	"math"
	"time"

	"github.com/zulandar/replan/internal/calendar"
	"github.com/zulandar/replan/internal/models"
	"github.com/zulandar/replan/internal/workload"
	"gorm.io/gorm"
)

// Engine executes reschedule operations against the store.
type Engine struct {
	db         *gorm.DB
	bufferDays int
	thresholds workload.Thresholds
	locks      *projectLocks
	now        func() time.Time
}

// Options tunes an Engine. Zero values select the defaults.
type Options struct {
	// BufferDays is the number of idle working days placed between
	// consecutive tasks by the bulk strategies. Default 1.
	BufferDays int
	// Thresholds overrides the bottleneck rule used by AUTO placement.
	Thresholds workload.Thresholds
	// Now is an injectable clock for tests.
	Now func() time.Time
}

// New creates an Engine.
func New(db *gorm.DB, opts Options) *Engine {
	e := &Engine{
		db:         db,
		bufferDays: opts.BufferDays,
		thresholds: opts.Thresholds,
		locks:      newProjectLocks(),
		now:        opts.Now,
	}
	if e.bufferDays <= 0 {
		e.bufferDays = 1
	}
	if e.thresholds == (workload.Thresholds{}) {
		e.thresholds = workload.DefaultThresholds()
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// today returns the clock's date with the time-of-day dropped.
func (e *Engine) today() time.Time {
	return dateOnly(e.now())
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween returns the signed calendar-day difference b - a. Both sides
// are reduced to their date in a fixed location so a wall-clock finish time
// compared against a stored UTC midnight cannot skew the count.
func daysBetween(a, b time.Time) int {
	return int(dateUTC(b).Sub(dateUTC(a)).Hours() / 24)
}

func dateUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// shiftDate moves a date by a signed number of calendar days, preserving nil.
func shiftDate(t *time.Time, days int) *time.Time {
	if t == nil {
		return nil
	}
	moved := dateOnly(*t).AddDate(0, 0, days)
	return &moved
}

// assumedSpanDays is the working-day duration assumed for tasks carrying
// neither dates nor an hour estimate.
const assumedSpanDays = 5

// taskDuration returns a task's working-day duration: its recorded span if
// both dates are set, otherwise the estimate at 8 hours per working day,
// otherwise the assumed span. Never less than one day.
func taskDuration(t *models.Task) int {
	if t.StartDate != nil && t.EndDate != nil {
		if d := calendar.WorkingDaysBetween(*t.StartDate, *t.EndDate); d > 0 {
			return d
		}
		return 1
	}
	if t.EstimatedHours != nil && *t.EstimatedHours > 0 {
		return int(math.Ceil(*t.EstimatedHours / 8))
	}
	return assumedSpanDays
}
