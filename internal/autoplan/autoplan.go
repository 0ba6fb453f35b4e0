// Package autoplan is the background daemon that periodically replans
// projects flagged for automatic rescheduling and refreshes their workload
// snapshots.
package autoplan

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/zulandar/replan/internal/models"
	"github.com/zulandar/replan/internal/notify"
	"github.com/zulandar/replan/internal/reschedule"
	"github.com/zulandar/replan/internal/workload"
	"gorm.io/gorm"
)

// DefaultSchedule fires every day at 06:00.
const DefaultSchedule = "0 6 * * *"

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// rescheduler abstracts the reschedule engine, enabling test mocks.
type rescheduler interface {
	BulkReschedule(projectID string, strategy reschedule.Strategy, delayDays int) (*reschedule.BulkResult, error)
}

// Daemon runs the auto-reschedule pass on a cron schedule.
type Daemon struct {
	db       *gorm.DB
	engine   rescheduler
	notifier notify.Notifier
	schedule cron.Schedule
	now      func() time.Time
}

// Opts holds parameters for creating a Daemon.
type Opts struct {
	DB       *gorm.DB
	Engine   rescheduler
	Notifier notify.Notifier       // optional
	Schedule string                // 5-field cron expression; defaults to DefaultSchedule
	Now      func() time.Time      // injectable clock for tests
}

// New creates a Daemon.
func New(opts Opts) (*Daemon, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("autoplan: db is required")
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("autoplan: engine is required")
	}

	expr := opts.Schedule
	if expr == "" {
		expr = DefaultSchedule
	}
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("autoplan: parse schedule %q: %w", expr, err)
	}

	d := &Daemon{
		db:       opts.DB,
		engine:   opts.Engine,
		notifier: opts.Notifier,
		schedule: sched,
		now:      opts.Now,
	}
	if d.now == nil {
		d.now = time.Now
	}
	return d, nil
}

// Outcome is the result of replanning one project.
type Outcome struct {
	ProjectID string
	Result    *reschedule.BulkResult
	Err       error
}

// RunOnce replans every project flagged for automatic rescheduling. One
// project failing never stops the pass; its error is recorded in the
// outcome and the pass moves on.
func (d *Daemon) RunOnce(ctx context.Context) ([]Outcome, error) {
	var projects []models.Project
	if err := d.db.Where("auto_reschedule = ?", true).Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("autoplan: load projects: %w", err)
	}

	outcomes := make([]Outcome, 0, len(projects))
	for _, p := range projects {
		out := Outcome{ProjectID: p.ID}
		out.Result, out.Err = d.engine.BulkReschedule(p.ID, reschedule.StrategyAuto, 0)
		if out.Err != nil {
			log.Printf("autoplan: replan %s: %v", p.ID, out.Err)
			outcomes = append(outcomes, out)
			continue
		}

		if err := d.refreshSnapshots(p.ID); err != nil {
			log.Printf("autoplan: snapshots for %s: %v", p.ID, err)
		}
		if d.notifier != nil && out.Result.AffectedTasks > 0 {
			_ = d.notifier.Notify(ctx, notify.BulkEvent(p.ID, out.Result))
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

// refreshSnapshots recomputes and stores today's workload samples for one
// project.
func (d *Daemon) refreshSnapshots(projectID string) error {
	var tasks []models.Task
	if err := d.db.Where("project_id = ?", projectID).Find(&tasks).Error; err != nil {
		return err
	}
	var users []models.User
	if err := d.db.Find(&users).Error; err != nil {
		return err
	}
	today := d.now()
	return workload.CacheDaily(d.db, projectID, today, workload.Daily(today, tasks, users))
}

// Run blocks until the context is cancelled, firing RunOnce at each
// scheduled time.
func (d *Daemon) Run(ctx context.Context) error {
	for {
		next := d.schedule.Next(d.now())
		wait := time.Until(next)
		if wait < 0 {
			wait = 0
		}
		log.Printf("autoplan: next pass at %s", next.Format(time.RFC3339))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		if _, err := d.RunOnce(ctx); err != nil {
			log.Printf("autoplan: pass failed: %v", err)
		}
	}
}
