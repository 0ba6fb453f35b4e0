// Package tasks provides task creation and listing for seeding projects.
package tasks

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/zulandar/replan/internal/models"
	"gorm.io/gorm"
)

// CreateOpts holds parameters for creating a new task.
type CreateOpts struct {
	Title          string
	Description    string
	ProjectID      string
	Priority       string
	AssigneeID     string
	StartDate      *time.Time
	EndDate        *time.Time
	EstimatedHours *float64
}

// ListFilters holds optional filters for listing tasks.
type ListFilters struct {
	ProjectID string
	Status    string
	Assignee  string
}

// GenerateID creates a unique task ID in tk-xxxxx format (5-char hex).
func GenerateID() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("tasks: generate ID: %w", err)
	}
	return "tk-" + hex.EncodeToString(b)[:5], nil
}

// Create inserts a new task. Tasks start independent with status todo;
// adding a dependency edge later marks them connected.
func Create(db *gorm.DB, opts CreateOpts) (*models.Task, error) {
	if opts.Title == "" {
		return nil, fmt.Errorf("tasks: title is required")
	}
	if opts.ProjectID == "" {
		return nil, fmt.Errorf("tasks: project is required")
	}

	var count int64
	if err := db.Model(&models.Project{}).Where("id = ?", opts.ProjectID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("tasks: check project %s: %w", opts.ProjectID, err)
	}
	if count == 0 {
		return nil, fmt.Errorf("tasks: project %s not found", opts.ProjectID)
	}

	priority := opts.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	switch priority {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityUrgent:
	default:
		return nil, fmt.Errorf("tasks: invalid priority %q", priority)
	}

	id, err := GenerateID()
	if err != nil {
		return nil, err
	}

	task := models.Task{
		ID:             id,
		Title:          opts.Title,
		Description:    opts.Description,
		ProjectID:      opts.ProjectID,
		Status:         models.StatusTodo,
		Priority:       priority,
		Kind:           models.KindIndependent,
		StartDate:      opts.StartDate,
		EndDate:        opts.EndDate,
		EstimatedHours: opts.EstimatedHours,
	}
	if opts.AssigneeID != "" {
		task.AssigneeID = &opts.AssigneeID
	}

	if err := db.Create(&task).Error; err != nil {
		return nil, fmt.Errorf("tasks: create task: %w", err)
	}
	return &task, nil
}

// List returns tasks matching the filters, ordered by start date with
// dateless tasks last.
func List(db *gorm.DB, filters ListFilters) ([]models.Task, error) {
	q := db.Model(&models.Task{})
	if filters.ProjectID != "" {
		q = q.Where("project_id = ?", filters.ProjectID)
	}
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	if filters.Assignee != "" {
		q = q.Where("assignee_id = ?", filters.Assignee)
	}

	var out []models.Task
	if err := q.Order("start_date IS NULL, start_date, id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("tasks: list: %w", err)
	}
	return out, nil
}
