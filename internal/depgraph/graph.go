// Package depgraph maintains the task dependency graph: a persisted edge
// store with pre-commit cycle checks, and an in-memory snapshot for cycle
// validation, transitive closures, impact levels, and the critical path.
package depgraph

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/zulandar/replan/internal/models"
)

// Impact levels derived from transitive dependent counts.
const (
	ImpactHigh   = "high"
	ImpactMedium = "medium"
	ImpactLow    = "low"
)

// criticalShare is the fraction of connected tasks reported as critical.
const criticalShare = 0.3

// CycleError reports a dependency cycle found during validation.
type CycleError struct {
	// Path lists the task IDs forming the cycle, in dependsOn order.
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("depgraph: dependency cycle: %s", strings.Join(e.Path, " -> "))
}

// Graph is an immutable in-memory snapshot of tasks and dependency edges.
// Analyzers never mutate it; reschedules build a fresh snapshot.
type Graph struct {
	tasks      map[string]models.Task
	dependsOn  map[string][]string
	dependents map[string][]string
}

// Build constructs a Graph from task and edge snapshots. Edges referring to
// unknown tasks are kept; validation treats them as leaf nodes.
func Build(tasks []models.Task, deps []models.TaskDep) *Graph {
	g := &Graph{
		tasks:      make(map[string]models.Task, len(tasks)),
		dependsOn:  make(map[string][]string),
		dependents: make(map[string][]string),
	}
	for _, t := range tasks {
		g.tasks[t.ID] = t
	}
	for _, d := range deps {
		g.dependsOn[d.TaskID] = append(g.dependsOn[d.TaskID], d.DependsOn)
		g.dependents[d.DependsOn] = append(g.dependents[d.DependsOn], d.TaskID)
	}
	return g
}

// Task returns the snapshot's copy of a task.
func (g *Graph) Task(id string) (models.Task, bool) {
	t, ok := g.tasks[id]
	return t, ok
}

// Tasks returns a copy of every task in the snapshot, ordered by ID.
func (g *Graph) Tasks() []models.Task {
	ids := make([]string, 0, len(g.tasks))
	for id := range g.tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]models.Task, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.tasks[id])
	}
	return out
}

// Dependencies returns the tasks id directly depends on.
func (g *Graph) Dependencies(id string) []string {
	out := append([]string(nil), g.dependsOn[id]...)
	sort.Strings(out)
	return out
}

// Validate runs a depth-first traversal from every task and returns one
// CycleError per cycle found. An empty slice means the graph is a DAG.
func (g *Graph) Validate() []*CycleError {
	var cycles []*CycleError
	reported := make(map[string]bool)

	ids := make([]string, 0, len(g.tasks))
	for id := range g.tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if reported[id] {
			continue
		}
		if path := g.findCycle(id); path != nil {
			cycles = append(cycles, &CycleError{Path: path})
			for _, p := range path {
				reported[p] = true
			}
		}
	}
	return cycles
}

// findCycle walks dependsOn edges from start and returns the cycle path if
// start is reachable from itself.
func (g *Graph) findCycle(start string) []string {
	var path []string
	onPath := make(map[string]bool)
	visited := make(map[string]bool)

	var dfs func(id string) []string
	dfs = func(id string) []string {
		if onPath[id] {
			if id == start {
				return append(append([]string(nil), path...), id)
			}
			return nil
		}
		if visited[id] {
			return nil
		}
		visited[id] = true
		onPath[id] = true
		path = append(path, id)
		for _, dep := range g.dependsOn[id] {
			if found := dfs(dep); found != nil {
				return found
			}
		}
		path = path[:len(path)-1]
		onPath[id] = false
		return nil
	}

	return dfs(start)
}

// DirectDependents returns the tasks whose dependsOn set includes id.
func (g *Graph) DirectDependents(id string) []string {
	out := append([]string(nil), g.dependents[id]...)
	sort.Strings(out)
	return out
}

// AllDependents returns the transitive dependent closure of id, computed by
// repeated expansion with cycle protection. The result excludes id itself.
func (g *Graph) AllDependents(id string) []string {
	visited := map[string]bool{id: true}
	var out []string
	queue := append([]string(nil), g.dependents[id]...)

	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if visited[next] {
			continue
		}
		visited[next] = true
		out = append(out, next)
		queue = append(queue, g.dependents[next]...)
	}
	sort.Strings(out)
	return out
}

// ImpactLevel classifies a task by how many tasks transitively depend on it.
func (g *Graph) ImpactLevel(id string) string {
	n := len(g.AllDependents(id))
	switch {
	case n >= 5:
		return ImpactHigh
	case n >= 2:
		return ImpactMedium
	default:
		return ImpactLow
	}
}

// CriticalPath returns the top 30% (rounded up) of connected tasks ranked by
// descending transitive-dependent count. This is a fan-out heuristic, not a
// longest-path computation.
func (g *Graph) CriticalPath() []string {
	type ranked struct {
		id   string
		fans int
	}
	var connected []ranked
	for id, t := range g.tasks {
		if t.Kind != models.KindConnected {
			continue
		}
		connected = append(connected, ranked{id: id, fans: len(g.AllDependents(id))})
	}
	if len(connected) == 0 {
		return nil
	}

	sort.Slice(connected, func(i, j int) bool {
		if connected[i].fans != connected[j].fans {
			return connected[i].fans > connected[j].fans
		}
		return connected[i].id < connected[j].id
	})

	take := int(math.Ceil(float64(len(connected)) * criticalShare))
	out := make([]string, 0, take)
	for _, r := range connected[:take] {
		out = append(out, r.id)
	}
	return out
}
