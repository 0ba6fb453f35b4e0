package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/replan/internal/autoplan"
)

func newDaemonCmd() *cobra.Command {
	var configPath string
	var once bool

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the auto-reschedule daemon",
		Long:  "Periodically replans every project flagged for automatic rescheduling, on the cron schedule from the config file.",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			d, err := autoplan.New(autoplan.Opts{
				DB:       gormDB,
				Engine:   buildEngine(cfg, gormDB),
				Notifier: notifier,
				Schedule: cfg.Autoplan.Cron,
			})
			if err != nil {
				return err
			}

			if once {
				outcomes, err := d.RunOnce(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, o := range outcomes {
					if o.Err != nil {
						fmt.Fprintf(out, "%s: FAILED: %v\n", o.ProjectID, o.Err)
						continue
					}
					fmt.Fprintf(out, "%s: %d task(s) replanned, new end %s\n",
						o.ProjectID, o.Result.AffectedTasks,
						o.Result.NewProjectEnd.Format("2006-01-02"))
				}
				return nil
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			err = d.Run(ctx)
			if err == context.Canceled {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "replan.yaml", "path to Replan config file")
	cmd.Flags().BoolVar(&once, "once", false, "run a single pass and exit")
	return cmd
}
