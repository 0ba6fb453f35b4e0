package autoplan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zulandar/replan/internal/models"
	"github.com/zulandar/replan/internal/notify"
	"github.com/zulandar/replan/internal/reschedule"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Project{},
		&models.User{},
		&models.Task{},
		&models.WorkloadSnapshot{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// mockEngine records replanned projects and returns scripted results.
type mockEngine struct {
	replanned []string
	failFor   map[string]error
	affected  int
}

func (m *mockEngine) BulkReschedule(projectID string, strategy reschedule.Strategy, delayDays int) (*reschedule.BulkResult, error) {
	if err, ok := m.failFor[projectID]; ok {
		return nil, err
	}
	m.replanned = append(m.replanned, projectID)
	return &reschedule.BulkResult{
		Strategy:      reschedule.StrategyParallel,
		AffectedTasks: m.affected,
		NewProjectEnd: time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
	}, nil
}

// recordingNotifier captures delivered events.
type recordingNotifier struct {
	events []notify.Event
}

func (r *recordingNotifier) Notify(_ context.Context, ev notify.Event) error {
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingNotifier) Close() error { return nil }

func seedProject(t *testing.T, db *gorm.DB, id string, auto bool) {
	t.Helper()
	if err := db.Create(&models.Project{ID: id, Name: id, AutoReschedule: auto}).Error; err != nil {
		t.Fatalf("create project %s: %v", id, err)
	}
}

func TestNewValidatesSchedule(t *testing.T) {
	db := testDB(t)
	if _, err := New(Opts{DB: db, Engine: &mockEngine{}, Schedule: "not a cron"}); err == nil {
		t.Error("expected error for a bad cron expression")
	}
	if _, err := New(Opts{Engine: &mockEngine{}}); err == nil {
		t.Error("expected error without db")
	}
	if _, err := New(Opts{DB: db}); err == nil {
		t.Error("expected error without engine")
	}
}

func TestRunOnceReplansFlaggedProjects(t *testing.T) {
	db := testDB(t)
	seedProject(t, db, "pj-auto", true)
	seedProject(t, db, "pj-manual", false)

	engine := &mockEngine{affected: 2}
	d, err := New(Opts{DB: db, Engine: engine})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	outcomes, err := d.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].ProjectID != "pj-auto" {
		t.Fatalf("outcomes = %+v, want one for pj-auto", outcomes)
	}
	if len(engine.replanned) != 1 || engine.replanned[0] != "pj-auto" {
		t.Errorf("replanned = %v, want [pj-auto]", engine.replanned)
	}
}

func TestRunOnceIsolatesFailures(t *testing.T) {
	db := testDB(t)
	seedProject(t, db, "pj-a", true)
	seedProject(t, db, "pj-b", true)

	engine := &mockEngine{failFor: map[string]error{"pj-a": errors.New("locked")}}
	d, err := New(Opts{DB: db, Engine: engine})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	outcomes, err := d.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(outcomes))
	}

	byProject := map[string]Outcome{}
	for _, o := range outcomes {
		byProject[o.ProjectID] = o
	}
	if byProject["pj-a"].Err == nil {
		t.Error("pj-a failure not recorded")
	}
	if byProject["pj-b"].Err != nil {
		t.Errorf("pj-b failed: %v", byProject["pj-b"].Err)
	}
}

func TestRunOnceNotifies(t *testing.T) {
	db := testDB(t)
	seedProject(t, db, "pj-auto", true)

	sink := &recordingNotifier{}
	d, err := New(Opts{DB: db, Engine: &mockEngine{affected: 3}, Notifier: sink})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := d.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(sink.events) != 1 {
		t.Fatalf("events = %d, want 1", len(sink.events))
	}
	if sink.events[0].Title != "Project pj-auto rescheduled" {
		t.Errorf("event title = %q", sink.events[0].Title)
	}
}

func TestRunOnceSkipsNotifyWhenNothingMoved(t *testing.T) {
	db := testDB(t)
	seedProject(t, db, "pj-auto", true)

	sink := &recordingNotifier{}
	d, err := New(Opts{DB: db, Engine: &mockEngine{affected: 0}, Notifier: sink})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := d.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(sink.events) != 0 {
		t.Errorf("events = %d, want none for an empty replan", len(sink.events))
	}
}

func TestRunOnceRefreshesSnapshots(t *testing.T) {
	db := testDB(t)
	seedProject(t, db, "pj-auto", true)
	today := time.Date(2025, 1, 6, 10, 30, 0, 0, time.UTC)

	if err := db.Create(&models.User{ID: "u1", Name: "Alice", MaxHoursPerDay: 8}).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC)
	hours := 8.0
	task := models.Task{ID: "tk-1", Title: "Work", Status: models.StatusInProgress,
		ProjectID: "pj-auto", AssigneeID: ptr("u1"),
		StartDate: &start, EndDate: &end, EstimatedHours: &hours}
	if err := db.Create(&task).Error; err != nil {
		t.Fatalf("create task: %v", err)
	}

	d, err := New(Opts{DB: db, Engine: &mockEngine{affected: 1},
		Now: func() time.Time { return today }})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := d.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	var rows []models.WorkloadSnapshot
	if err := db.Find(&rows).Error; err != nil {
		t.Fatalf("load snapshots: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("snapshots = %d, want 1", len(rows))
	}
	if rows[0].UserID != "u1" || rows[0].LoadPercent != 50 {
		t.Errorf("snapshot = %+v, want u1 at 50%%", rows[0])
	}
}

func ptr[T any](v T) *T { return &v }
