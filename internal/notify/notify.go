// Package notify pushes reschedule outcomes to chat platforms (Slack,
// Discord). Delivery is best-effort: a failed notification is logged and
// never fails the reschedule that produced it.
package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/zulandar/replan/internal/reschedule"
)

// Severities for notification rendering.
const (
	SeverityInfo    = "info"
	SeveritySuccess = "success"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Event is one reschedule outcome formatted for delivery.
type Event struct {
	Title    string
	Body     string
	Severity string
	Fields   []Field
}

// Field is a key-value pair displayed alongside an event.
type Field struct {
	Name  string
	Value string
}

// Notifier delivers events to one platform.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
	Close() error
}

// Fanout broadcasts each event to every configured notifier. Failures are
// logged per sink; Notify itself never returns an error.
type Fanout struct {
	sinks []Notifier
}

// NewFanout creates a Fanout over the given sinks.
func NewFanout(sinks ...Notifier) *Fanout {
	return &Fanout{sinks: sinks}
}

// Notify delivers ev to every sink.
func (f *Fanout) Notify(ctx context.Context, ev Event) error {
	for _, s := range f.sinks {
		if err := s.Notify(ctx, ev); err != nil {
			log.Printf("notify: deliver %q: %v", ev.Title, err)
		}
	}
	return nil
}

// Close shuts down every sink, returning the first error encountered.
func (f *Fanout) Close() error {
	var first error
	for _, s := range f.sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// CompletionEvent renders a task-completion result.
func CompletionEvent(res *reschedule.CompletionResult) Event {
	sev := SeveritySuccess
	if res.Task.DelayDays > 0 {
		sev = SeverityWarning
	}

	ev := Event{
		Title:    fmt.Sprintf("Task %s completed", res.Task.ID),
		Body:     res.Task.Title,
		Severity: sev,
		Fields: []Field{
			{Name: "Affected tasks", Value: fmt.Sprintf("%d", len(res.AffectedTasks))},
		},
	}
	if res.Task.DelayDays > 0 {
		ev.Fields = append(ev.Fields, Field{
			Name: "Delay", Value: fmt.Sprintf("%d day(s)", res.Task.DelayDays),
		})
	}
	if res.PolicyUsed != "" {
		ev.Fields = append(ev.Fields, Field{Name: "Policy", Value: res.PolicyUsed})
	}
	return ev
}

// BulkEvent renders a whole-project reschedule result.
func BulkEvent(projectID string, res *reschedule.BulkResult) Event {
	sev := SeverityInfo
	if res.DelayDays > 0 {
		sev = SeverityWarning
	}
	return Event{
		Title:    fmt.Sprintf("Project %s rescheduled", projectID),
		Body:     fmt.Sprintf("%d task(s) replanned using the %s strategy", res.AffectedTasks, res.Strategy),
		Severity: sev,
		Fields: []Field{
			{Name: "New end date", Value: res.NewProjectEnd.Format("2006-01-02")},
			{Name: "Delay", Value: fmt.Sprintf("%d day(s)", res.DelayDays)},
		},
	}
}
