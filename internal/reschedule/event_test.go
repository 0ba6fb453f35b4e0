package reschedule

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/zulandar/replan/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB creates an in-memory SQLite database with all required tables.
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
		&models.TaskDep{},
		&models.ScheduleChange{},
		&models.WorkloadSnapshot{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// testEngine creates an Engine with a pinned clock.
func testEngine(t *testing.T, db *gorm.DB, today time.Time) *Engine {
	t.Helper()
	return New(db, Options{Now: func() time.Time { return today }})
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

// seedProject inserts a project and returns its ID.
func seedProject(t *testing.T, db *gorm.DB) string {
	t.Helper()
	p := models.Project{ID: "pj-1", Name: "Launch"}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("create project: %v", err)
	}
	return p.ID
}

// seedTask inserts a task into pj-1.
func seedTask(t *testing.T, db *gorm.DB, task models.Task) models.Task {
	t.Helper()
	if task.ProjectID == "" {
		task.ProjectID = "pj-1"
	}
	if task.Status == "" {
		task.Status = models.StatusInProgress
	}
	if err := db.Create(&task).Error; err != nil {
		t.Fatalf("create task %s: %v", task.ID, err)
	}
	return task
}

// seedDep links taskID -> dependsOn directly, bypassing store validation.
func seedDep(t *testing.T, db *gorm.DB, taskID, dependsOn string) {
	t.Helper()
	if err := db.Create(&models.TaskDep{TaskID: taskID, DependsOn: dependsOn}).Error; err != nil {
		t.Fatalf("create dep %s -> %s: %v", taskID, dependsOn, err)
	}
}

func reloadTask(t *testing.T, db *gorm.DB, id string) models.Task {
	t.Helper()
	var task models.Task
	if err := db.First(&task, "id = ?", id).Error; err != nil {
		t.Fatalf("reload task %s: %v", id, err)
	}
	return task
}

func TestCompleteTask_NotFound(t *testing.T) {
	db := testDB(t)
	e := testEngine(t, db, date(2025, 1, 6))

	_, err := e.CompleteTask("tk-missing", date(2025, 1, 10))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCompleteTask_ConnectedWithoutEstimate(t *testing.T) {
	db := testDB(t)
	seedProject(t, db)
	seedTask(t, db, models.Task{ID: "tk-p", Title: "Parent", Kind: models.KindConnected,
		SchedulePolicy: models.PolicySecure})
	e := testEngine(t, db, date(2025, 1, 6))

	_, err := e.CompleteTask("tk-p", date(2025, 1, 10))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestCompleteTask_Independent(t *testing.T) {
	db := testDB(t)
	seedProject(t, db)
	seedTask(t, db, models.Task{ID: "tk-1", Title: "Solo", Kind: models.KindIndependent,
		EndDate: ptr(date(2025, 1, 7))})
	e := testEngine(t, db, date(2025, 1, 6))

	res, err := e.CompleteTask("tk-1", date(2025, 1, 10))
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}

	if len(res.AffectedTasks) != 0 {
		t.Errorf("AffectedTasks = %v, want none", res.AffectedTasks)
	}
	if len(res.Changes) != 1 {
		t.Fatalf("expected 1 informational change, got %d", len(res.Changes))
	}
	c := res.Changes[0]
	if c.ImpactDays != 3 {
		t.Errorf("ImpactDays = %d, want 3", c.ImpactDays)
	}
	if !strings.Contains(c.Reason, "independent") {
		t.Errorf("Reason = %q, want to mention independent", c.Reason)
	}

	got := reloadTask(t, db, "tk-1")
	if got.Status != models.StatusCompleted {
		t.Errorf("Status = %q, want completed", got.Status)
	}
	if got.DelayDays != 3 {
		t.Errorf("DelayDays = %d, want 3", got.DelayDays)
	}
}

func TestCompleteTask_SecureLate(t *testing.T) {
	db := testDB(t)
	seedProject(t, db)
	seedTask(t, db, models.Task{ID: "tk-p", Title: "Parent", Kind: models.KindConnected,
		SchedulePolicy:  models.PolicySecure,
		EstimatedFinish: ptr(date(2025, 1, 7))})
	seedTask(t, db, models.Task{ID: "tk-d", Title: "Dependent", Kind: models.KindConnected,
		StartDate: ptr(date(2025, 1, 10)),
		EndDate:   ptr(date(2025, 1, 15))})
	seedDep(t, db, "tk-d", "tk-p")
	e := testEngine(t, db, date(2025, 1, 6))

	// Three days late: estimated Jan 7, actual Jan 10.
	res, err := e.CompleteTask("tk-p", date(2025, 1, 10))
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}

	if res.PolicyUsed != models.PolicySecure {
		t.Errorf("PolicyUsed = %q, want secure", res.PolicyUsed)
	}
	if len(res.AffectedTasks) != 1 || res.AffectedTasks[0] != "tk-d" {
		t.Fatalf("AffectedTasks = %v, want [tk-d]", res.AffectedTasks)
	}

	got := reloadTask(t, db, "tk-d")
	if !got.StartDate.Equal(date(2025, 1, 13)) {
		t.Errorf("new start = %s, want 2025-01-13", got.StartDate.Format("2006-01-02"))
	}
	if !got.EndDate.Equal(date(2025, 1, 18)) {
		t.Errorf("new end = %s, want 2025-01-18", got.EndDate.Format("2006-01-02"))
	}
	if got.DelayDays != 3 {
		t.Errorf("DelayDays = %d, want 3", got.DelayDays)
	}
}

func TestCompleteTask_SecureEarly(t *testing.T) {
	db := testDB(t)
	seedProject(t, db)
	seedTask(t, db, models.Task{ID: "tk-p", Title: "Parent", Kind: models.KindConnected,
		SchedulePolicy:  models.PolicySecure,
		EstimatedFinish: ptr(date(2025, 1, 10))})
	seedTask(t, db, models.Task{ID: "tk-d", Title: "Dependent", Kind: models.KindConnected,
		StartDate: ptr(date(2025, 1, 13)),
		EndDate:   ptr(date(2025, 1, 17))})
	seedDep(t, db, "tk-d", "tk-p")
	e := testEngine(t, db, date(2025, 1, 6))

	// Two days early: the rigid chain pulls dependents forward too.
	res, err := e.CompleteTask("tk-p", date(2025, 1, 8))
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if len(res.AffectedTasks) != 1 {
		t.Fatalf("AffectedTasks = %v, want 1", res.AffectedTasks)
	}

	got := reloadTask(t, db, "tk-d")
	if !got.StartDate.Equal(date(2025, 1, 11)) {
		t.Errorf("new start = %s, want 2025-01-11", got.StartDate.Format("2006-01-02"))
	}
	if got.DelayDays != 0 {
		t.Errorf("DelayDays = %d, want 0 for early shift", got.DelayDays)
	}
}

func TestCompleteTask_StandardEarlyIsNoOp(t *testing.T) {
	db := testDB(t)
	seedProject(t, db)
	seedTask(t, db, models.Task{ID: "tk-p", Title: "Parent", Kind: models.KindConnected,
		SchedulePolicy:  models.PolicyStandard,
		EstimatedFinish: ptr(date(2025, 1, 10))})
	seedTask(t, db, models.Task{ID: "tk-d", Title: "Dependent", Kind: models.KindConnected,
		StartDate: ptr(date(2025, 1, 13)),
		EndDate:   ptr(date(2025, 1, 17))})
	seedDep(t, db, "tk-d", "tk-p")
	e := testEngine(t, db, date(2025, 1, 6))

	res, err := e.CompleteTask("tk-p", date(2025, 1, 8))
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if len(res.AffectedTasks) != 0 || len(res.Changes) != 0 {
		t.Errorf("early finish under standard policy must not move anything: %+v", res)
	}

	got := reloadTask(t, db, "tk-d")
	if !got.StartDate.Equal(date(2025, 1, 13)) || !got.EndDate.Equal(date(2025, 1, 17)) {
		t.Errorf("dependent dates changed: %s / %s",
			got.StartDate.Format("2006-01-02"), got.EndDate.Format("2006-01-02"))
	}
}

func TestCompleteTask_StandardLateShifts(t *testing.T) {
	db := testDB(t)
	seedProject(t, db)
	seedTask(t, db, models.Task{ID: "tk-p", Title: "Parent", Kind: models.KindConnected,
		SchedulePolicy:  models.PolicyStandard,
		EstimatedFinish: ptr(date(2025, 1, 7))})
	seedTask(t, db, models.Task{ID: "tk-d", Title: "Dependent", Kind: models.KindConnected,
		StartDate: ptr(date(2025, 1, 10)),
		EndDate:   ptr(date(2025, 1, 15))})
	seedDep(t, db, "tk-d", "tk-p")
	e := testEngine(t, db, date(2025, 1, 6))

	res, err := e.CompleteTask("tk-p", date(2025, 1, 9))
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if len(res.AffectedTasks) != 1 {
		t.Fatalf("AffectedTasks = %v, want 1", res.AffectedTasks)
	}

	got := reloadTask(t, db, "tk-d")
	if !got.StartDate.Equal(date(2025, 1, 12)) {
		t.Errorf("new start = %s, want 2025-01-12", got.StartDate.Format("2006-01-02"))
	}
}

func TestCompleteTask_SkipsCompletedDependents(t *testing.T) {
	db := testDB(t)
	seedProject(t, db)
	seedTask(t, db, models.Task{ID: "tk-p", Title: "Parent", Kind: models.KindConnected,
		SchedulePolicy:  models.PolicySecure,
		EstimatedFinish: ptr(date(2025, 1, 7))})
	seedTask(t, db, models.Task{ID: "tk-d", Title: "Done already", Kind: models.KindConnected,
		Status:    models.StatusCompleted,
		StartDate: ptr(date(2025, 1, 2)),
		EndDate:   ptr(date(2025, 1, 3))})
	seedDep(t, db, "tk-d", "tk-p")
	e := testEngine(t, db, date(2025, 1, 6))

	res, err := e.CompleteTask("tk-p", date(2025, 1, 10))
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if len(res.AffectedTasks) != 0 {
		t.Errorf("completed dependents must not be shifted: %v", res.AffectedTasks)
	}
}

func TestCompleteTask_PersistsChanges(t *testing.T) {
	db := testDB(t)
	seedProject(t, db)
	seedTask(t, db, models.Task{ID: "tk-p", Title: "Parent", Kind: models.KindConnected,
		SchedulePolicy:  models.PolicySecure,
		EstimatedFinish: ptr(date(2025, 1, 7))})
	seedTask(t, db, models.Task{ID: "tk-d", Title: "Dependent", Kind: models.KindConnected,
		StartDate: ptr(date(2025, 1, 10)),
		EndDate:   ptr(date(2025, 1, 15))})
	seedDep(t, db, "tk-d", "tk-p")
	e := testEngine(t, db, date(2025, 1, 6))

	if _, err := e.CompleteTask("tk-p", date(2025, 1, 10)); err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}

	var count int64
	db.Model(&models.ScheduleChange{}).Count(&count)
	if count != 1 {
		t.Errorf("persisted change rows = %d, want 1", count)
	}
}

func TestCompleteTask_VisualizationReflectsState(t *testing.T) {
	db := testDB(t)
	seedProject(t, db)
	seedTask(t, db, models.Task{ID: "tk-p", Title: "Parent", Kind: models.KindConnected,
		SchedulePolicy:  models.PolicySecure,
		EstimatedFinish: ptr(date(2025, 1, 7))})
	seedTask(t, db, models.Task{ID: "tk-d", Title: "Dependent", Kind: models.KindConnected,
		StartDate: ptr(date(2025, 1, 10)),
		EndDate:   ptr(date(2025, 1, 15))})
	seedDep(t, db, "tk-d", "tk-p")
	e := testEngine(t, db, date(2025, 1, 6))

	res, err := e.CompleteTask("tk-p", date(2025, 1, 10))
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}

	if len(res.Viz.Nodes) != 2 {
		t.Fatalf("viz nodes = %d, want 2", len(res.Viz.Nodes))
	}
	for _, n := range res.Viz.Nodes {
		if n.ID == "tk-p" && n.Status != models.StatusCompleted {
			t.Errorf("viz node tk-p status = %q, want completed", n.Status)
		}
	}
	if len(res.Viz.Edges) != 1 {
		t.Fatalf("viz edges = %d, want 1", len(res.Viz.Edges))
	}
	if res.Viz.Edges[0].DelayDays != 3 {
		t.Errorf("viz edge delay = %d, want 3", res.Viz.Edges[0].DelayDays)
	}
}
