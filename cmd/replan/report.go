package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/replan/internal/workload"
	"gorm.io/gorm"
)

func newReportCmd() *cobra.Command {
	var configPath string
	var startFlag, endFlag string

	cmd := &cobra.Command{
		Use:   "report <project-id>",
		Short: "Show the workload report for a date range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := time.Parse("2006-01-02", startFlag)
			if err != nil {
				return fmt.Errorf("parse --start %q: %w", startFlag, err)
			}
			end, err := time.Parse("2006-01-02", endFlag)
			if err != nil {
				return fmt.Errorf("parse --end %q: %w", endFlag, err)
			}
			if end.Before(start) {
				return fmt.Errorf("--end must not precede --start")
			}

			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			return runReport(cmd.OutOrStdout(), gormDB, args[0], start, end, thresholdsFromConfig(cfg))
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "replan.yaml", "path to Replan config file")
	cmd.Flags().StringVar(&startFlag, "start", "", "range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endFlag, "end", "", "range end (YYYY-MM-DD)")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")
	return cmd
}

func runReport(out io.Writer, gormDB *gorm.DB, projectID string, start, end time.Time, th workload.Thresholds) error {
	tasks, users, err := loadProjectState(gormDB, projectID)
	if err != nil {
		return err
	}

	report := workload.GenerateReport(start, end, tasks, users, th)

	fmt.Fprintf(out, "Workload report for %s (%s to %s)\n", projectID,
		report.Start.Format("2006-01-02"), report.End.Format("2006-01-02"))
	fmt.Fprintf(out, "  Tasks:        %d\n", report.TotalTasks)
	fmt.Fprintf(out, "  Average load: %d%%\n", report.AverageLoad)
	fmt.Fprintf(out, "  Max load:     %d%%\n", report.MaxLoad)

	if len(report.BottleneckDays) == 0 {
		fmt.Fprintln(out, "  No bottleneck days")
		return nil
	}
	fmt.Fprintf(out, "  Bottleneck days (%d):\n", len(report.BottleneckDays))
	for _, b := range report.BottleneckDays {
		fmt.Fprintf(out, "    %s: %d active task(s), max load %d%%\n",
			b.Date.Format("2006-01-02"), b.ActiveTasks, b.MaxLoadPercent)
	}
	return nil
}
