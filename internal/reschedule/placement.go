package reschedule

import (
	"fmt"
	"time"

	"github.com/zulandar/replan/internal/calendar"
	"github.com/zulandar/replan/internal/depgraph"
	"github.com/zulandar/replan/internal/models"
	"github.com/zulandar/replan/internal/workload"
)

// maxProbeOffsets bounds how far forward the AUTO placement searches for a
// window that avoids overload. Greedy by design, not a solver.
const maxProbeOffsets = 5

// placeTransitive replans the full transitive dependent set of a completed
// task. Each dependent is placed in topological order no earlier than one
// working day after its latest dependency's new end, probing forward for a
// window that keeps its assignee at or under full capacity.
func (e *Engine) placeTransitive(g *depgraph.Graph, task *models.Task, actualFinish time.Time, dayDiff int) ([]models.Task, []models.ScheduleChange, error) {
	ids := g.AllDependents(task.ID)
	if len(ids) == 0 {
		return nil, nil, nil
	}

	affected := make(map[string]bool, len(ids))
	for _, id := range ids {
		if t, ok := g.Task(id); ok && !t.Completed() {
			affected[id] = true
		}
	}

	var users []models.User
	if err := e.db.Find(&users).Error; err != nil {
		return nil, nil, fmt.Errorf("reschedule: load users: %w", err)
	}

	// Simulation copy of the project's tasks, updated as placements land.
	sim := g.Tasks()
	simIdx := make(map[string]int, len(sim))
	for i := range sim {
		simIdx[sim[i].ID] = i
	}

	newEnds := map[string]time.Time{task.ID: dateOnly(actualFinish)}

	var shifted []models.Task
	var changes []models.ScheduleChange

	for _, id := range topoOrder(g, affected) {
		t, ok := g.Task(id)
		if !ok {
			continue
		}

		// A dependent cannot start before its dependencies' new end dates.
		var earliest time.Time
		for _, dep := range g.Dependencies(id) {
			var depEnd time.Time
			if end, ok := newEnds[dep]; ok {
				depEnd = end
			} else if depTask, ok := g.Task(dep); ok && depTask.EndDate != nil {
				depEnd = dateOnly(*depTask.EndDate)
			} else {
				continue
			}
			candidate := calendar.AddWorkingDays(depEnd, 1)
			if candidate.After(earliest) {
				earliest = candidate
			}
		}
		if earliest.IsZero() {
			if t.StartDate != nil {
				earliest = dateOnly(*t.StartDate)
			} else {
				earliest = e.today()
			}
		}

		duration := taskDuration(&t)
		start, end := e.probeWindow(&t, earliest, duration, sim, users)

		change := models.ScheduleChange{
			TaskID:    t.ID,
			ProjectID: t.ProjectID,
			OldStart:  t.StartDate,
			OldEnd:    t.EndDate,
			Reason:    fmt.Sprintf("replanned after %s %s", task.ID, describeDiff(dayDiff)),
		}
		if t.EndDate != nil {
			change.ImpactDays = daysBetween(*t.EndDate, end)
		}

		t.StartDate = &start
		t.EndDate = &end
		t.EstimatedFinish = &end
		if change.ImpactDays > 0 {
			t.DelayDays += change.ImpactDays
		}
		change.NewStart = t.StartDate
		change.NewEnd = t.EndDate

		if i, ok := simIdx[t.ID]; ok {
			sim[i] = t
		}
		newEnds[t.ID] = end
		shifted = append(shifted, t)
		changes = append(changes, change)
	}

	return shifted, changes, nil
}

// probeWindow tries successive working-day offsets from earliest and
// returns the first window whose peak assignee load stays at or under 100%,
// falling back to the lowest-peak window probed.
func (e *Engine) probeWindow(t *models.Task, earliest time.Time, duration int, sim []models.Task, users []models.User) (time.Time, time.Time) {
	bestStart := earliest
	bestEnd := calendar.AddWorkingDays(earliest, duration-1)
	if t.AssigneeID == nil {
		return bestStart, bestEnd
	}

	var assignee *models.User
	for i := range users {
		if users[i].ID == *t.AssigneeID {
			assignee = &users[i]
			break
		}
	}
	if assignee == nil {
		return bestStart, bestEnd
	}

	bestPeak := -1
	for off := 0; off <= maxProbeOffsets; off++ {
		start := calendar.AddWorkingDays(earliest, off)
		end := calendar.AddWorkingDays(start, duration-1)
		peak := e.peakLoad(t, start, end, sim, assignee)
		if bestPeak < 0 || peak < bestPeak {
			bestPeak = peak
			bestStart = start
			bestEnd = end
		}
		if peak <= 100 {
			return start, end
		}
	}
	return bestStart, bestEnd
}

// peakLoad simulates placing t at [start, end] and returns the assignee's
// maximum daily load percent over that window.
func (e *Engine) peakLoad(t *models.Task, start, end time.Time, sim []models.Task, assignee *models.User) int {
	probe := make([]models.Task, len(sim))
	copy(probe, sim)
	for i := range probe {
		if probe[i].ID == t.ID {
			probe[i].StartDate = &start
			probe[i].EndDate = &end
			break
		}
	}

	peak := 0
	userSlice := []models.User{*assignee}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		for _, s := range workload.Daily(d, probe, userSlice) {
			if s.LoadPercent > peak {
				peak = s.LoadPercent
			}
		}
	}
	return peak
}

// topoOrder orders the affected set so dependencies come before dependents.
// Nodes whose remaining in-set dependencies form a cycle are appended last
// so the walk always terminates.
func topoOrder(g *depgraph.Graph, affected map[string]bool) []string {
	placed := make(map[string]bool, len(affected))
	var order []string

	remaining := make([]string, 0, len(affected))
	for _, t := range g.Tasks() {
		if affected[t.ID] {
			remaining = append(remaining, t.ID)
		}
	}

	for len(remaining) > 0 {
		progressed := false
		var next []string
		for _, id := range remaining {
			ready := true
			for _, dep := range g.Dependencies(id) {
				if affected[dep] && !placed[dep] {
					ready = false
					break
				}
			}
			if ready {
				order = append(order, id)
				placed[id] = true
				progressed = true
			} else {
				next = append(next, id)
			}
		}
		if !progressed {
			order = append(order, next...)
			break
		}
		remaining = next
	}
	return order
}
