package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zulandar/replan/internal/depgraph"
	"github.com/zulandar/replan/internal/models"
	"gorm.io/gorm"
)

func newGraphCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "graph <project-id>",
		Short: "Show a project's dependency graph",
		Long:  "Prints every task with its impact level, marks critical-path tasks, and reports dependency cycles.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			return runGraph(cmd.OutOrStdout(), gormDB, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "replan.yaml", "path to Replan config file")
	return cmd
}

func runGraph(out io.Writer, gormDB *gorm.DB, projectID string) error {
	var project models.Project
	if err := gormDB.First(&project, "id = ?", projectID).Error; err != nil {
		return fmt.Errorf("load project %s: %w", projectID, err)
	}

	g, err := depgraph.LoadProject(gormDB, projectID)
	if err != nil {
		return err
	}

	if cycles := g.Validate(); len(cycles) > 0 {
		fmt.Fprintf(out, "INVALID: %d dependency cycle(s)\n", len(cycles))
		for _, c := range cycles {
			fmt.Fprintf(out, "  %s\n", strings.Join(c.Path, " -> "))
		}
		return nil
	}

	viz := g.Visualization()
	fmt.Fprintf(out, "Dependency graph for %s (%d tasks, %d edges)\n",
		projectID, len(viz.Nodes), len(viz.Edges))
	for _, n := range viz.Nodes {
		marker := ""
		if n.Critical {
			marker = "  [critical]"
		}
		fmt.Fprintf(out, "  %-12s %-12s impact:%s%s\n", n.ID, n.Status, n.Impact, marker)
	}
	for _, e := range viz.Edges {
		note := ""
		if e.DelayDays > 0 {
			note = fmt.Sprintf("  (+%d day(s) upstream delay)", e.DelayDays)
		}
		fmt.Fprintf(out, "  %s -> %s%s\n", e.From, e.To, note)
	}
	return nil
}
