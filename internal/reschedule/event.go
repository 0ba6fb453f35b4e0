package reschedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/replan/internal/depgraph"
	"github.com/zulandar/replan/internal/models"
	"gorm.io/gorm"
)

// CompletionResult is the outcome of one task-completion event.
type CompletionResult struct {
	Task          models.Task             `json:"updatedTask"`
	AffectedTasks []string                `json:"affectedTasks"`
	Changes       []models.ScheduleChange `json:"scheduleChanges"`
	PolicyUsed    string                  `json:"strategyUsed,omitempty"`
	Viz           depgraph.VizData        `json:"visualizationData"`
}

// CompleteTask marks a task completed at actualFinish and propagates the
// early/late day difference to its dependents according to the task's own
// schedule policy. All writes commit in one transaction under the project
// lock.
func (e *Engine) CompleteTask(taskID string, actualFinish time.Time) (*CompletionResult, error) {
	var task models.Task
	if err := e.db.First(&task, "id = ?", taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: task %s", ErrNotFound, taskID)
		}
		return nil, fmt.Errorf("reschedule: load task %s: %w", taskID, err)
	}

	unlock := e.locks.acquire(task.ProjectID)
	defer unlock()

	est := task.FinishEstimate()
	if task.Kind == models.KindConnected && est == nil {
		return nil, &ValidationError{
			Field:  "estimatedFinish",
			Reason: fmt.Sprintf("connected task %s has no estimated finish or end date", taskID),
		}
	}

	dayDiff := 0
	if est != nil {
		dayDiff = daysBetween(*est, actualFinish)
	}

	graph, err := depgraph.LoadProject(e.db, task.ProjectID)
	if err != nil {
		return nil, err
	}

	var (
		shifted    []models.Task
		changes    []models.ScheduleChange
		policyName string
	)

	if task.Kind == models.KindConnected {
		policy, err := ParsePolicy(task.SchedulePolicy)
		if err != nil {
			return nil, err
		}
		policyName = policy.String()

		switch policy {
		case PolicySecure:
			shifted, changes = e.shiftDependents(graph, &task, dayDiff)
		case PolicyStandard:
			if dayDiff > 0 {
				shifted, changes = e.shiftDependents(graph, &task, dayDiff)
			}
		case PolicyAuto:
			shifted, changes, err = e.placeTransitive(graph, &task, actualFinish, dayDiff)
			if err != nil {
				return nil, err
			}
		}
	} else {
		// Independent tasks never propagate; record the outcome only.
		changes = append(changes, models.ScheduleChange{
			TaskID:    task.ID,
			ProjectID: task.ProjectID,
			OldStart:  task.StartDate,
			NewStart:  task.StartDate,
			OldEnd:    task.EndDate,
			NewEnd:    task.EndDate,
			Reason:    fmt.Sprintf("completed %s; independent task, no dependents affected", describeDiff(dayDiff)),
			ImpactDays: dayDiff,
		})
	}

	finish := dateOnly(actualFinish)
	task.Status = models.StatusCompleted
	task.ActualFinish = &finish
	if dayDiff > 0 {
		task.DelayDays = dayDiff
	}

	err = e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Task{}).Where("id = ?", task.ID).Updates(map[string]interface{}{
			"status":        task.Status,
			"actual_finish": task.ActualFinish,
			"delay_days":    task.DelayDays,
		}).Error; err != nil {
			return fmt.Errorf("reschedule: complete task %s: %w", task.ID, err)
		}
		for i := range shifted {
			s := &shifted[i]
			if err := tx.Model(&models.Task{}).Where("id = ?", s.ID).Updates(map[string]interface{}{
				"start_date":       s.StartDate,
				"end_date":         s.EndDate,
				"estimated_finish": s.EstimatedFinish,
				"delay_days":       s.DelayDays,
			}).Error; err != nil {
				return fmt.Errorf("reschedule: shift task %s: %w", s.ID, err)
			}
		}
		for i := range changes {
			if err := tx.Create(&changes[i]).Error; err != nil {
				return fmt.Errorf("reschedule: record change for %s: %w", changes[i].TaskID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Regenerate the visualization from the committed state.
	graph, err = depgraph.LoadProject(e.db, task.ProjectID)
	if err != nil {
		return nil, err
	}

	affected := make([]string, 0, len(shifted))
	for _, s := range shifted {
		affected = append(affected, s.ID)
	}

	return &CompletionResult{
		Task:          task,
		AffectedTasks: affected,
		Changes:       changes,
		PolicyUsed:    policyName,
		Viz:           graph.Visualization(),
	}, nil
}

// shiftDependents moves every direct dependent of task by dayDiff calendar
// days. Used by the SECURE policy (any diff) and STANDARD (late only).
func (e *Engine) shiftDependents(g *depgraph.Graph, task *models.Task, dayDiff int) ([]models.Task, []models.ScheduleChange) {
	if dayDiff == 0 {
		return nil, nil
	}

	var shifted []models.Task
	var changes []models.ScheduleChange
	for _, id := range g.DirectDependents(task.ID) {
		dep, ok := g.Task(id)
		if !ok || dep.Completed() {
			continue
		}
		change := models.ScheduleChange{
			TaskID:     dep.ID,
			ProjectID:  dep.ProjectID,
			OldStart:   dep.StartDate,
			OldEnd:     dep.EndDate,
			Reason:     fmt.Sprintf("dependency %s %s", task.ID, describeDiff(dayDiff)),
			ImpactDays: dayDiff,
		}
		dep.StartDate = shiftDate(dep.StartDate, dayDiff)
		dep.EndDate = shiftDate(dep.EndDate, dayDiff)
		dep.EstimatedFinish = shiftDate(dep.EstimatedFinish, dayDiff)
		if dayDiff > 0 {
			dep.DelayDays += dayDiff
		}
		change.NewStart = dep.StartDate
		change.NewEnd = dep.EndDate
		shifted = append(shifted, dep)
		changes = append(changes, change)
	}
	return shifted, changes
}

// describeDiff renders a signed day difference for change reasons.
func describeDiff(dayDiff int) string {
	switch {
	case dayDiff > 0:
		return fmt.Sprintf("finished %d day(s) late", dayDiff)
	case dayDiff < 0:
		return fmt.Sprintf("finished %d day(s) early", -dayDiff)
	default:
		return "finished on schedule"
	}
}
