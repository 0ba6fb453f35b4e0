package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/zulandar/replan/internal/notify"
	"github.com/zulandar/replan/internal/reschedule"
)

func newRescheduleCmd() *cobra.Command {
	var configPath string
	var strategyName string
	var delayDays int

	cmd := &cobra.Command{
		Use:   "reschedule <project-id>",
		Short: "Re-lay out a project's incomplete tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			strategy, err := reschedule.ParseStrategy(strategyName)
			if err != nil {
				return err
			}

			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			notifier, err := buildNotifier(cfg)
			if err != nil {
				return err
			}
			if notifier != nil {
				defer notifier.Close()
			}

			return runReschedule(cmd.Context(), cmd.OutOrStdout(),
				buildEngine(cfg, gormDB), notifier, args[0], strategy, delayDays)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "replan.yaml", "path to Replan config file")
	cmd.Flags().StringVarP(&strategyName, "type", "t", "auto", "strategy: sequential, parallel, critical or auto")
	cmd.Flags().IntVar(&delayDays, "delay", 0, "extra delay days to inject before the first task")
	return cmd
}

func runReschedule(ctx context.Context, out io.Writer, engine *reschedule.Engine, notifier notify.Notifier, projectID string, strategy reschedule.Strategy, delayDays int) error {
	res, err := engine.BulkReschedule(projectID, strategy, delayDays)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Project %s rescheduled (%s)\n", projectID, res.Strategy)
	fmt.Fprintf(out, "  Affected tasks: %d\n", res.AffectedTasks)
	fmt.Fprintf(out, "  New end date:   %s\n", res.NewProjectEnd.Format("2006-01-02"))
	fmt.Fprintf(out, "  Delay:          %d day(s)\n", res.DelayDays)

	if notifier != nil {
		notifier.Notify(ctx, notify.BulkEvent(projectID, res))
	}
	return nil
}
