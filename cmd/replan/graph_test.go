package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/zulandar/replan/internal/models"
)

func TestRunGraph(t *testing.T) {
	db := testDB(t)
	seedProject(t, db)
	seedTask(t, db, models.Task{ID: "tk-1", Title: "First", Kind: models.KindConnected})
	seedTask(t, db, models.Task{ID: "tk-2", Title: "Second", Kind: models.KindConnected})
	if err := db.Create(&models.TaskDep{TaskID: "tk-2", DependsOn: "tk-1"}).Error; err != nil {
		t.Fatalf("create dep: %v", err)
	}

	buf := new(bytes.Buffer)
	if err := runGraph(buf, db, "pj-1"); err != nil {
		t.Fatalf("runGraph: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "2 tasks, 1 edges") {
		t.Errorf("output = %q, want node/edge counts", out)
	}
	if !strings.Contains(out, "tk-1 -> tk-2") {
		t.Errorf("output = %q, want edge line", out)
	}
}

func TestRunGraph_ReportsCycle(t *testing.T) {
	db := testDB(t)
	seedProject(t, db)
	seedTask(t, db, models.Task{ID: "tk-1", Title: "First", Kind: models.KindConnected})
	seedTask(t, db, models.Task{ID: "tk-2", Title: "Second", Kind: models.KindConnected})
	// Insert a cycle directly, bypassing the store's pre-commit check.
	for _, d := range []models.TaskDep{
		{TaskID: "tk-2", DependsOn: "tk-1"},
		{TaskID: "tk-1", DependsOn: "tk-2"},
	} {
		if err := db.Create(&d).Error; err != nil {
			t.Fatalf("create dep: %v", err)
		}
	}

	buf := new(bytes.Buffer)
	if err := runGraph(buf, db, "pj-1"); err != nil {
		t.Fatalf("runGraph: %v", err)
	}
	if !strings.Contains(buf.String(), "INVALID") {
		t.Errorf("output = %q, want cycle report", buf.String())
	}
}

func TestRunGraph_UnknownProject(t *testing.T) {
	db := testDB(t)
	if err := runGraph(new(bytes.Buffer), db, "pj-missing"); err == nil {
		t.Fatal("expected error for unknown project")
	}
}
