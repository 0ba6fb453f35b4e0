package depgraph

import (
	"errors"
	"fmt"

	"github.com/zulandar/replan/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a referenced task does not exist.
var ErrNotFound = errors.New("depgraph: task not found")

// AddDep creates a dependency edge: taskID depends on dependsOn. Validates
// both IDs exist, prevents self-dependency and duplicates, and rejects edges
// that would create a cycle before anything is written. Both endpoints are
// marked connected in the same transaction as the edge.
func AddDep(db *gorm.DB, taskID, dependsOn string) error {
	if taskID == dependsOn {
		return &CycleError{Path: []string{taskID, taskID}}
	}

	// Verify both tasks exist.
	for _, id := range []string{taskID, dependsOn} {
		var count int64
		if err := db.Model(&models.Task{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("depgraph: check task %s: %w", id, err)
		}
		if count == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
	}

	// Reject duplicates.
	var dup int64
	if err := db.Model(&models.TaskDep{}).
		Where("task_id = ? AND depends_on = ?", taskID, dependsOn).
		Count(&dup).Error; err != nil {
		return fmt.Errorf("depgraph: check duplicate %s -> %s: %w", taskID, dependsOn, err)
	}
	if dup > 0 {
		return fmt.Errorf("depgraph: dependency %s -> %s already exists", taskID, dependsOn)
	}

	// Cycle check before the edge is committed: the edge closes a cycle
	// when taskID is already reachable from dependsOn via dependsOn edges.
	// A failed walk aborts the add; the edge never commits unchecked.
	path, err := reachPath(db, dependsOn, taskID, map[string]bool{})
	if err != nil {
		return err
	}
	if path != nil {
		full := append([]string{taskID}, path...)
		return &CycleError{Path: full}
	}

	return db.Transaction(func(tx *gorm.DB) error {
		dep := models.TaskDep{TaskID: taskID, DependsOn: dependsOn}
		if err := tx.Create(&dep).Error; err != nil {
			return fmt.Errorf("depgraph: create %s -> %s: %w", taskID, dependsOn, err)
		}
		if err := tx.Model(&models.Task{}).Where("id IN ?", []string{taskID, dependsOn}).
			Update("kind", models.KindConnected).Error; err != nil {
			return fmt.Errorf("depgraph: mark connected: %w", err)
		}
		return nil
	})
}

// RemoveDep deletes a dependency edge.
func RemoveDep(db *gorm.DB, taskID, dependsOn string) error {
	result := db.Where("task_id = ? AND depends_on = ?", taskID, dependsOn).
		Delete(&models.TaskDep{})
	if result.Error != nil {
		return fmt.Errorf("depgraph: remove %s -> %s: %w", taskID, dependsOn, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("depgraph: dependency %s -> %s not found", taskID, dependsOn)
	}
	return nil
}

// ListDeps returns the dependencies of a task (what it waits on) and its
// dependents (what waits on it).
func ListDeps(db *gorm.DB, taskID string) (dependencies, dependents []models.TaskDep, err error) {
	if err := db.Where("task_id = ?", taskID).Find(&dependencies).Error; err != nil {
		return nil, nil, fmt.Errorf("depgraph: list dependencies for %s: %w", taskID, err)
	}
	if err := db.Where("depends_on = ?", taskID).Find(&dependents).Error; err != nil {
		return nil, nil, fmt.Errorf("depgraph: list dependents for %s: %w", taskID, err)
	}
	return dependencies, dependents, nil
}

// LoadProject builds an in-memory Graph from a project's tasks and edges.
func LoadProject(db *gorm.DB, projectID string) (*Graph, error) {
	var tasks []models.Task
	if err := db.Where("project_id = ?", projectID).Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("depgraph: load tasks for %s: %w", projectID, err)
	}
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	var deps []models.TaskDep
	if len(ids) > 0 {
		if err := db.Where("task_id IN ?", ids).Find(&deps).Error; err != nil {
			return nil, fmt.Errorf("depgraph: load edges for %s: %w", projectID, err)
		}
	}
	return Build(tasks, deps), nil
}

// reachPath performs a DFS from current following dependsOn edges and
// returns the path to target if reachable, nil otherwise. Query failures
// surface to the caller rather than reading as "not reachable".
func reachPath(db *gorm.DB, current, target string, visited map[string]bool) ([]string, error) {
	if current == target {
		return []string{current}, nil
	}
	if visited[current] {
		return nil, nil
	}
	visited[current] = true

	var deps []models.TaskDep
	if err := db.Where("task_id = ?", current).Find(&deps).Error; err != nil {
		return nil, fmt.Errorf("depgraph: walk deps of %s: %w", current, err)
	}
	for _, d := range deps {
		path, err := reachPath(db, d.DependsOn, target, visited)
		if err != nil {
			return nil, err
		}
		if path != nil {
			return append([]string{current}, path...), nil
		}
	}
	return nil, nil
}
