package depgraph

import "sort"

// VizNode is one task in the visualization projection.
type VizNode struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Impact   string `json:"impact"`
	Critical bool   `json:"critical"`
}

// VizEdge is one dependency edge annotated with the upstream task's delay.
type VizEdge struct {
	From      string `json:"from"` // the dependency
	To        string `json:"to"`   // the dependent
	DelayDays int    `json:"delayDays"`
}

// VizData is a read-only projection of the graph for presentation layers.
// It is regenerated on demand and never persisted.
type VizData struct {
	Nodes []VizNode `json:"nodes"`
	Edges []VizEdge `json:"edges"`
}

// Visualization builds the presentation projection from the current snapshot.
func (g *Graph) Visualization() VizData {
	critical := make(map[string]bool)
	for _, id := range g.CriticalPath() {
		critical[id] = true
	}

	ids := make([]string, 0, len(g.tasks))
	for id := range g.tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var data VizData
	for _, id := range ids {
		t := g.tasks[id]
		data.Nodes = append(data.Nodes, VizNode{
			ID:       id,
			Title:    t.Title,
			Status:   t.Status,
			Impact:   g.ImpactLevel(id),
			Critical: critical[id],
		})
		for _, dep := range g.dependsOn[id] {
			delay := 0
			if upstream, ok := g.tasks[dep]; ok {
				delay = upstream.DelayDays
			}
			data.Edges = append(data.Edges, VizEdge{From: dep, To: id, DelayDays: delay})
		}
	}
	return data
}
