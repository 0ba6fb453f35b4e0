package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zulandar/replan/internal/config"
	"github.com/zulandar/replan/internal/db"
	"github.com/zulandar/replan/internal/notify"
	"github.com/zulandar/replan/internal/reschedule"
	"github.com/zulandar/replan/internal/workload"
	"gorm.io/gorm"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replan",
		Short: "Replan is a dependency-aware project rescheduling engine",
		Long:  "Replan propagates task completions through dependency graphs, detects workload bottlenecks, and re-lays out project schedules.",
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newDaemonCmd())
	cmd.AddCommand(newTaskCmd())
	cmd.AddCommand(newCompleteCmd())
	cmd.AddCommand(newRescheduleCmd())
	cmd.AddCommand(newDepCmd())
	cmd.AddCommand(newWorkloadCmd())
	cmd.AddCommand(newReportCmd())
	cmd.AddCommand(newGraphCmd())
	cmd.AddCommand(newImportCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "replan %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

// connectFromConfig loads the config file and opens the database connection.
func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.DB.User, cfg.DB.Host, cfg.DB.Port, cfg.DB.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to %s: %w", cfg.DB.Database, err)
	}

	return cfg, gormDB, nil
}

// buildEngine creates the reschedule engine from config.
func buildEngine(cfg *config.Config, gormDB *gorm.DB) *reschedule.Engine {
	return reschedule.New(gormDB, reschedule.Options{
		BufferDays: cfg.Scheduling.BufferDays,
		Thresholds: thresholdsFromConfig(cfg),
	})
}

func thresholdsFromConfig(cfg *config.Config) workload.Thresholds {
	return workload.Thresholds{
		LoadPercent: cfg.Scheduling.BottleneckLoadPercent,
		TaskCount:   cfg.Scheduling.BottleneckTaskCount,
	}
}

// buildNotifier assembles the configured notification sinks. Returns nil
// when no sink is configured.
func buildNotifier(cfg *config.Config) (notify.Notifier, error) {
	var sinks []notify.Notifier

	if cfg.Notify.SlackToken != "" {
		slack, err := notify.NewSlack(notify.SlackOpts{
			Token:     cfg.Notify.SlackToken,
			ChannelID: cfg.Notify.SlackChannel,
		})
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, slack)
	}

	if cfg.Notify.DiscordToken != "" {
		discord, err := notify.NewDiscord(notify.DiscordOpts{
			BotToken:  cfg.Notify.DiscordToken,
			ChannelID: cfg.Notify.DiscordChannel,
		})
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, discord)
	}

	if len(sinks) == 0 {
		return nil, nil
	}
	return notify.NewFanout(sinks...), nil
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
