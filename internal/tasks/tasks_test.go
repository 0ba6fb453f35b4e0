package tasks

import (
	"strings"
	"testing"
	"time"

	"github.com/zulandar/replan/internal/models"
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
	if err := db.AutoMigrate(&models.Project{}, &models.User{}, &models.Task{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	if err := db.Create(&models.Project{ID: "pj-1", Name: "Launch"}).Error; err != nil {
		t.Fatalf("create project: %v", err)
	}
	return db
}

func TestGenerateID(t *testing.T) {
	id, err := GenerateID()
	if err != nil {
		t.Fatalf("GenerateID: %v", err)
	}
	if !strings.HasPrefix(id, "tk-") || len(id) != 8 {
		t.Errorf("id = %q, want tk- prefix and 5 hex chars", id)
	}
}

func TestCreate(t *testing.T) {
	db := testDB(t)

	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	hours := 16.0
	task, err := Create(db, CreateOpts{
		Title:          "Build API",
		ProjectID:      "pj-1",
		Priority:       models.PriorityHigh,
		AssigneeID:     "u1",
		StartDate:      &start,
		EstimatedHours: &hours,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if task.Status != models.StatusTodo {
		t.Errorf("Status = %q, want todo", task.Status)
	}
	if task.Kind != models.KindIndependent {
		t.Errorf("Kind = %q, want independent", task.Kind)
	}
	if task.AssigneeID == nil || *task.AssigneeID != "u1" {
		t.Errorf("AssigneeID = %v, want u1", task.AssigneeID)
	}

	var stored models.Task
	if err := db.First(&stored, "id = ?", task.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Title != "Build API" || stored.Priority != models.PriorityHigh {
		t.Errorf("stored = %+v", stored)
	}
}

func TestCreate_DefaultPriority(t *testing.T) {
	db := testDB(t)

	task, err := Create(db, CreateOpts{Title: "Small fix", ProjectID: "pj-1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if task.Priority != models.PriorityMedium {
		t.Errorf("Priority = %q, want medium", task.Priority)
	}
}

func TestCreate_Validation(t *testing.T) {
	db := testDB(t)

	tests := []struct {
		name string
		opts CreateOpts
		want string
	}{
		{"missing title", CreateOpts{ProjectID: "pj-1"}, "title is required"},
		{"missing project", CreateOpts{Title: "x"}, "project is required"},
		{"unknown project", CreateOpts{Title: "x", ProjectID: "pj-nope"}, "not found"},
		{"bad priority", CreateOpts{Title: "x", ProjectID: "pj-1", Priority: "asap"}, "invalid priority"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Create(db, tt.opts)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want to contain %q", err, tt.want)
			}
		})
	}
}

func TestList_Filters(t *testing.T) {
	db := testDB(t)
	if err := db.Create(&models.Project{ID: "pj-2", Name: "Other"}).Error; err != nil {
		t.Fatalf("create project: %v", err)
	}

	u1 := "u1"
	seed := []models.Task{
		{ID: "tk-1", Title: "A", ProjectID: "pj-1", Status: models.StatusTodo, AssigneeID: &u1},
		{ID: "tk-2", Title: "B", ProjectID: "pj-1", Status: models.StatusCompleted},
		{ID: "tk-3", Title: "C", ProjectID: "pj-2", Status: models.StatusTodo},
	}
	for _, task := range seed {
		if err := db.Create(&task).Error; err != nil {
			t.Fatalf("seed %s: %v", task.ID, err)
		}
	}

	tests := []struct {
		name    string
		filters ListFilters
		want    []string
	}{
		{"all", ListFilters{}, []string{"tk-1", "tk-2", "tk-3"}},
		{"by project", ListFilters{ProjectID: "pj-1"}, []string{"tk-1", "tk-2"}},
		{"by status", ListFilters{Status: models.StatusTodo}, []string{"tk-1", "tk-3"}},
		{"by assignee", ListFilters{Assignee: "u1"}, []string{"tk-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := List(db, tt.filters)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			ids := make([]string, len(got))
			for i, task := range got {
				ids[i] = task.ID
			}
			if len(ids) != len(tt.want) {
				t.Fatalf("ids = %v, want %v", ids, tt.want)
			}
			for i := range ids {
				if ids[i] != tt.want[i] {
					t.Errorf("ids = %v, want %v", ids, tt.want)
					break
				}
			}
		})
	}
}

func TestList_OrdersByStartDateThenDateless(t *testing.T) {
	db := testDB(t)

	late := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	early := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	seed := []models.Task{
		{ID: "tk-1", Title: "Late", ProjectID: "pj-1", StartDate: &late},
		{ID: "tk-2", Title: "Dateless", ProjectID: "pj-1"},
		{ID: "tk-3", Title: "Early", ProjectID: "pj-1", StartDate: &early},
	}
	for _, task := range seed {
		if err := db.Create(&task).Error; err != nil {
			t.Fatalf("seed %s: %v", task.ID, err)
		}
	}

	got, err := List(db, ListFilters{ProjectID: "pj-1"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"tk-3", "tk-1", "tk-2"}
	for i := range want {
		if got[i].ID != want[i] {
			t.Fatalf("order = [%s %s %s], want %v", got[0].ID, got[1].ID, got[2].ID, want)
		}
	}
}
