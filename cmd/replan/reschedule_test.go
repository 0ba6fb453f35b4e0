package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/zulandar/replan/internal/models"
	"github.com/zulandar/replan/internal/reschedule"
)

func TestRunReschedule(t *testing.T) {
	db := testDB(t)
	seedProject(t, db)
	seedTask(t, db, models.Task{ID: "tk-1", Title: "Build",
		StartDate: ptr(date(2025, 1, 1)), EndDate: ptr(date(2025, 1, 2))})

	engine := testEngine(t, db, date(2025, 1, 6))
	buf := new(bytes.Buffer)

	err := runReschedule(context.Background(), buf, engine, nil, "pj-1",
		reschedule.StrategySequential, 0)
	if err != nil {
		t.Fatalf("runReschedule: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Project pj-1 rescheduled (sequential)") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, "Affected tasks: 1") {
		t.Errorf("output = %q, want affected count", out)
	}
}

func TestRunReschedule_UnknownProject(t *testing.T) {
	db := testDB(t)
	engine := testEngine(t, db, date(2025, 1, 6))

	err := runReschedule(context.Background(), new(bytes.Buffer), engine, nil,
		"pj-missing", reschedule.StrategySequential, 0)
	if err == nil {
		t.Fatal("expected error for unknown project")
	}
}
