package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/replan/internal/notify"
	"github.com/zulandar/replan/internal/reschedule"
)

func newCompleteCmd() *cobra.Command {
	var configPath string
	var finishDate string

	cmd := &cobra.Command{
		Use:   "complete <task-id>",
		Short: "Mark a task completed and propagate the schedule impact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			actual := time.Now()
			if finishDate != "" {
				actual, err = time.Parse("2006-01-02", finishDate)
				if err != nil {
					return fmt.Errorf("parse --date %q: %w", finishDate, err)
				}
			}

			notifier, err := buildNotifier(cfg)
			if err != nil {
				return err
			}
			if notifier != nil {
				defer notifier.Close()
			}

			return runComplete(cmd.Context(), cmd.OutOrStdout(),
				buildEngine(cfg, gormDB), notifier, args[0], actual)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "replan.yaml", "path to Replan config file")
	cmd.Flags().StringVarP(&finishDate, "date", "d", "", "actual finish date (YYYY-MM-DD, defaults to today)")
	return cmd
}

func runComplete(ctx context.Context, out io.Writer, engine *reschedule.Engine, notifier notify.Notifier, taskID string, actual time.Time) error {
	res, err := engine.CompleteTask(taskID, actual)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Task %s completed", res.Task.ID)
	if res.Task.DelayDays > 0 {
		fmt.Fprintf(out, " (%d day(s) late)", res.Task.DelayDays)
	}
	fmt.Fprintln(out)

	if len(res.AffectedTasks) == 0 {
		fmt.Fprintln(out, "No dependent tasks affected")
	} else {
		fmt.Fprintf(out, "Rescheduled %d dependent task(s):\n", len(res.AffectedTasks))
		for _, c := range res.Changes {
			fmt.Fprintf(out, "  %s: %s -> %s (%+d day(s))\n",
				c.TaskID, formatDate(c.OldEnd), formatDate(c.NewEnd), c.ImpactDays)
		}
	}

	if notifier != nil {
		notifier.Notify(ctx, notify.CompletionEvent(res))
	}
	return nil
}

// formatDate renders an optional date for display.
func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}
