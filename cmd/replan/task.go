package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/replan/internal/tasks"
	"gorm.io/gorm"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Task management commands",
	}

	cmd.AddCommand(newTaskCreateCmd())
	cmd.AddCommand(newTaskListCmd())
	return cmd
}

func newTaskCreateCmd() *cobra.Command {
	var (
		configPath  string
		title       string
		description string
		projectID   string
		priority    string
		assignee    string
		startFlag   string
		endFlag     string
		estimate    float64
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new task",
		Long:  "Creates a task with an auto-generated ID. Tasks start independent; use 'dep add' to connect them.",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := tasks.CreateOpts{
				Title:       title,
				Description: description,
				ProjectID:   projectID,
				Priority:    priority,
				AssigneeID:  assignee,
			}
			var err error
			if opts.StartDate, err = parseDateFlag("start", startFlag); err != nil {
				return err
			}
			if opts.EndDate, err = parseDateFlag("end", endFlag); err != nil {
				return err
			}
			if cmd.Flags().Changed("hours") {
				opts.EstimatedHours = &estimate
			}

			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			return runTaskCreate(cmd.OutOrStdout(), gormDB, opts)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "replan.yaml", "path to Replan config file")
	cmd.Flags().StringVar(&title, "title", "", "task title (required)")
	cmd.Flags().StringVar(&description, "description", "", "detailed description")
	cmd.Flags().StringVar(&projectID, "project", "", "project ID (required)")
	cmd.Flags().StringVar(&priority, "priority", "", "priority (low, medium, high, urgent)")
	cmd.Flags().StringVar(&assignee, "assignee", "", "assignee user ID")
	cmd.Flags().StringVar(&startFlag, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endFlag, "end", "", "end date (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&estimate, "hours", 0, "estimated hours")
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("project")
	return cmd
}

func parseDateFlag(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("parse --%s %q: %w", name, value, err)
	}
	return &t, nil
}

func runTaskCreate(out io.Writer, gormDB *gorm.DB, opts tasks.CreateOpts) error {
	task, err := tasks.Create(gormDB, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Created task %s\n", task.ID)
	fmt.Fprintf(out, "Project: %s\n", task.ProjectID)
	return nil
}

func newTaskListCmd() *cobra.Command {
	var (
		configPath string
		projectID  string
		status     string
		assignee   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Long:  "Lists tasks with optional filters. Output is formatted as a table.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			return runTaskList(cmd.OutOrStdout(), gormDB, tasks.ListFilters{
				ProjectID: projectID,
				Status:    status,
				Assignee:  assignee,
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "replan.yaml", "path to Replan config file")
	cmd.Flags().StringVar(&projectID, "project", "", "filter by project")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&assignee, "assignee", "", "filter by assignee")
	return cmd
}

func runTaskList(out io.Writer, gormDB *gorm.DB, filters tasks.ListFilters) error {
	list, err := tasks.List(gormDB, filters)
	if err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Fprintln(out, "No tasks found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tPRI\tSTART\tEND\tASSIGNEE")
	for _, t := range list {
		assignee := "-"
		if t.AssigneeID != nil {
			assignee = *t.AssigneeID
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Title, t.Status, t.Priority,
			formatDate(t.StartDate), formatDate(t.EndDate), assignee)
	}
	return w.Flush()
}
