package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/replan/internal/models"
	"github.com/zulandar/replan/internal/workload"
	"gorm.io/gorm"
)

func newWorkloadCmd() *cobra.Command {
	var configPath string
	var dateFlag string

	cmd := &cobra.Command{
		Use:   "workload <project-id>",
		Short: "Show per-user load for one day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			date := time.Now()
			if dateFlag != "" {
				date, err = time.Parse("2006-01-02", dateFlag)
				if err != nil {
					return fmt.Errorf("parse --date %q: %w", dateFlag, err)
				}
			}

			return runWorkload(cmd.OutOrStdout(), gormDB, args[0], date, thresholdsFromConfig(cfg))
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "replan.yaml", "path to Replan config file")
	cmd.Flags().StringVarP(&dateFlag, "date", "d", "", "date to inspect (YYYY-MM-DD, defaults to today)")
	return cmd
}

func runWorkload(out io.Writer, gormDB *gorm.DB, projectID string, date time.Time, th workload.Thresholds) error {
	tasks, users, err := loadProjectState(gormDB, projectID)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Workload for %s on %s\n", projectID, date.Format("2006-01-02"))
	samples := workload.Daily(date, tasks, users)
	if len(samples) == 0 {
		fmt.Fprintln(out, "  no users")
	}
	for _, s := range samples {
		marker := ""
		if s.Overloaded {
			marker = "  OVERLOADED"
		}
		fmt.Fprintf(out, "  %-12s %5.1fh / %.1fh  %3d%%%s\n",
			s.UserID, s.HoursAllocated, s.HoursAvailable, s.LoadPercent, marker)
	}

	b := workload.DetectBottleneck(date, tasks, users, th)
	if b.Bottleneck {
		fmt.Fprintf(out, "Bottleneck: %d active task(s), max load %d%%\n",
			b.ActiveTasks, b.MaxLoadPercent)
	}
	return nil
}

// loadProjectState loads one project's tasks and all users.
func loadProjectState(gormDB *gorm.DB, projectID string) ([]models.Task, []models.User, error) {
	var project models.Project
	if err := gormDB.First(&project, "id = ?", projectID).Error; err != nil {
		return nil, nil, fmt.Errorf("load project %s: %w", projectID, err)
	}
	var tasks []models.Task
	if err := gormDB.Where("project_id = ?", projectID).Find(&tasks).Error; err != nil {
		return nil, nil, fmt.Errorf("load tasks for %s: %w", projectID, err)
	}
	var users []models.User
	if err := gormDB.Find(&users).Error; err != nil {
		return nil, nil, fmt.Errorf("load users: %w", err)
	}
	return tasks, users, nil
}
