package reschedule

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/zulandar/replan/internal/calendar"
	"github.com/zulandar/replan/internal/models"
	"gorm.io/gorm"
)

// Strategy is the closed set of bulk reschedule strategies.
type Strategy string

const (
	// StrategySequential lays every incomplete task end to end on one
	// cursor. Safest, longest total timeline.
	StrategySequential Strategy = "sequential"
	// StrategyParallel runs an independent sequential cursor per assignee.
	StrategyParallel Strategy = "parallel"
	// StrategyCritical re-lays only high and urgent priority tasks.
	StrategyCritical Strategy = "critical"
	// StrategyAuto inspects overdue pressure and picks a strategy itself.
	StrategyAuto Strategy = "auto"
)

// ParseStrategy validates a request's reschedule type.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategySequential, StrategyParallel, StrategyCritical, StrategyAuto:
		return Strategy(s), nil
	case "":
		return "", &ValidationError{Field: "rescheduleType", Reason: "missing"}
	default:
		return "", &ValidationError{Field: "rescheduleType", Reason: "unknown type " + s}
	}
}

// BulkResult is the outcome of one whole-project reschedule.
type BulkResult struct {
	Strategy      Strategy                `json:"rescheduleType"`
	AffectedTasks int                     `json:"affectedTasks"`
	NewProjectEnd time.Time               `json:"newProjectEndDate"`
	DelayDays     int                     `json:"delayDays"`
	Changes       []models.ScheduleChange `json:"-"`
}

// placement is one task's new window produced by a strategy.
type placement struct {
	task     models.Task
	oldStart *time.Time
	oldEnd   *time.Time
}

// BulkReschedule re-lays out a project's incomplete tasks using the given
// strategy and writes the new dates plus the project's new end date in one
// transaction under the project lock.
func (e *Engine) BulkReschedule(projectID string, strategy Strategy, delayDays int) (*BulkResult, error) {
	if delayDays < 0 {
		return nil, &ValidationError{Field: "delayDays", Reason: "must not be negative"}
	}

	var project models.Project
	if err := e.db.First(&project, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: project %s", ErrNotFound, projectID)
		}
		return nil, fmt.Errorf("reschedule: load project %s: %w", projectID, err)
	}

	unlock := e.locks.acquire(projectID)
	defer unlock()

	var all []models.Task
	if err := e.db.Where("project_id = ?", projectID).Find(&all).Error; err != nil {
		return nil, fmt.Errorf("reschedule: load tasks for %s: %w", projectID, err)
	}

	var incomplete []models.Task
	for _, t := range all {
		if !t.Completed() {
			incomplete = append(incomplete, t)
		}
	}

	used := strategy
	if strategy == StrategyAuto {
		used, delayDays = e.autoSelect(all, incomplete)
	}

	var placements []placement
	var projectEnd time.Time

	switch used {
	case StrategySequential:
		var cursor time.Time
		placements, cursor = e.placeSequential(incomplete, e.startCursor(delayDays))
		projectEnd = cursor
	case StrategyParallel:
		placements, projectEnd = e.placeParallel(incomplete, delayDays)
	case StrategyCritical:
		var critical []models.Task
		for _, t := range incomplete {
			if t.Priority == models.PriorityHigh || t.Priority == models.PriorityUrgent {
				critical = append(critical, t)
			}
		}
		placements, _ = e.placeSequential(critical, e.startCursor(delayDays))
		if n := len(placements); n > 0 {
			projectEnd = *placements[n-1].task.EndDate
		}
	default:
		return nil, &ValidationError{Field: "rescheduleType", Reason: "unknown type " + string(used)}
	}

	if projectEnd.IsZero() {
		if project.EndDate != nil {
			projectEnd = *project.EndDate
		} else {
			projectEnd = e.today()
		}
	}

	changes := make([]models.ScheduleChange, 0, len(placements))
	for _, p := range placements {
		changes = append(changes, models.ScheduleChange{
			TaskID:     p.task.ID,
			ProjectID:  projectID,
			OldStart:   p.oldStart,
			NewStart:   p.task.StartDate,
			OldEnd:     p.oldEnd,
			NewEnd:     p.task.EndDate,
			Reason:     fmt.Sprintf("bulk reschedule (%s)", used),
			ImpactDays: impactDays(p.oldEnd, p.task.EndDate),
		})
	}

	err := e.db.Transaction(func(tx *gorm.DB) error {
		for _, p := range placements {
			if err := tx.Model(&models.Task{}).Where("id = ?", p.task.ID).Updates(map[string]interface{}{
				"start_date":       p.task.StartDate,
				"end_date":         p.task.EndDate,
				"estimated_finish": p.task.EndDate,
			}).Error; err != nil {
				return fmt.Errorf("reschedule: place task %s: %w", p.task.ID, err)
			}
		}
		for i := range changes {
			if err := tx.Create(&changes[i]).Error; err != nil {
				return fmt.Errorf("reschedule: record change for %s: %w", changes[i].TaskID, err)
			}
		}

		updates := map[string]interface{}{
			"end_date":   projectEnd,
			"delay_days": delayDays,
		}
		if project.OriginalEndDate == nil && project.EndDate != nil {
			updates["original_end_date"] = project.EndDate
		}
		if err := tx.Model(&models.Project{}).Where("id = ?", projectID).Updates(updates).Error; err != nil {
			return fmt.Errorf("reschedule: update project %s: %w", projectID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &BulkResult{
		Strategy:      used,
		AffectedTasks: len(placements),
		NewProjectEnd: projectEnd,
		DelayDays:     delayDays,
		Changes:       changes,
	}, nil
}

// startCursor is where the first placed task begins: today shifted by the
// injected delay. The result may land on a weekend; only durations consume
// working days.
func (e *Engine) startCursor(delayDays int) time.Time {
	return e.today().AddDate(0, 0, delayDays)
}

// placeSequential lays tasks end to end from cursor, ordered by original
// start date. Each next task begins one working day after the previous end
// plus the buffer. Returns the placements and the final cursor value.
func (e *Engine) placeSequential(tasks []models.Task, cursor time.Time) ([]placement, time.Time) {
	ordered := make([]models.Task, len(tasks))
	copy(ordered, tasks)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i].StartDate, ordered[j].StartDate
		switch {
		case a == nil && b == nil:
			return ordered[i].ID < ordered[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case a.Equal(*b):
			return ordered[i].ID < ordered[j].ID
		default:
			return a.Before(*b)
		}
	})

	placements := make([]placement, 0, len(ordered))
	for _, t := range ordered {
		duration := taskDuration(&t)
		p := placement{oldStart: t.StartDate, oldEnd: t.EndDate}

		start := cursor
		end := calendar.AddWorkingDays(start, duration-1)
		t.StartDate = &start
		t.EndDate = &end
		p.task = t
		placements = append(placements, p)

		cursor = calendar.AddWorkingDays(end, 1+e.bufferDays)
	}
	return placements, cursor
}

// placeParallel partitions tasks by assignee and runs an independent
// sequential cursor per partition. The project end is the latest end date
// across all partitions.
func (e *Engine) placeParallel(tasks []models.Task, delayDays int) ([]placement, time.Time) {
	groups := make(map[string][]models.Task)
	var keys []string
	for _, t := range tasks {
		key := ""
		if t.AssigneeID != nil {
			key = *t.AssigneeID
		}
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], t)
	}
	sort.Strings(keys)

	var placements []placement
	var projectEnd time.Time
	for _, key := range keys {
		placed, _ := e.placeSequential(groups[key], e.startCursor(delayDays))
		for _, p := range placed {
			if p.task.EndDate.After(projectEnd) {
				projectEnd = *p.task.EndDate
			}
		}
		placements = append(placements, placed...)
	}
	return placements, projectEnd
}

// autoSelect inspects overdue pressure and picks a concrete strategy plus
// the delay to inject. More than half the tasks overdue calls for the
// conservative sequential layout; any overdue work replans in parallel with
// the worst slip; otherwise parallel with no injected delay.
func (e *Engine) autoSelect(all, incomplete []models.Task) (Strategy, int) {
	today := e.today()
	overdue := 0
	totalDelay := 0
	for _, t := range incomplete {
		if t.EndDate == nil || !dateOnly(*t.EndDate).Before(today) {
			continue
		}
		overdue++
		if slip := daysBetween(*t.EndDate, today); slip > totalDelay {
			totalDelay = slip
		}
	}

	switch {
	case len(all) > 0 && overdue*2 > len(all):
		return StrategySequential, totalDelay
	case overdue > 0:
		return StrategyParallel, totalDelay
	default:
		return StrategyParallel, 0
	}
}

// impactDays is the signed end-date movement of a placement.
func impactDays(oldEnd, newEnd *time.Time) int {
	if oldEnd == nil || newEnd == nil {
		return 0
	}
	return daysBetween(*oldEnd, *newEnd)
}
