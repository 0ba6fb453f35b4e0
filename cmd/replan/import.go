package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/zulandar/replan/internal/config"
	"github.com/zulandar/replan/internal/ghsync"
	"gorm.io/gorm"
)

func newImportCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "import <project-id>",
		Short: "Import open GitHub issues as tasks",
		Long:  "Pulls every open issue from the configured repository and upserts it as a task in the given project. Labels map to priorities.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if cfg.GitHub.Owner == "" {
				return fmt.Errorf("github.owner is not configured")
			}
			return runImport(cmd, cmd.OutOrStdout(), gormDB, cfg, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "replan.yaml", "path to Replan config file")
	return cmd
}

func runImport(cmd *cobra.Command, out io.Writer, gormDB *gorm.DB, cfg *config.Config, projectID string) error {
	imp, err := ghsync.New(gormDB, ghsync.Opts{
		Token: cfg.GitHub.Token,
		Owner: cfg.GitHub.Owner,
		Repo:  cfg.GitHub.Repo,
	})
	if err != nil {
		return err
	}

	res, err := imp.Import(cmd.Context(), projectID)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Imported from %s/%s: %d created, %d updated, %d skipped\n",
		cfg.GitHub.Owner, cfg.GitHub.Repo, res.Created, res.Updated, res.Skipped)
	return nil
}
