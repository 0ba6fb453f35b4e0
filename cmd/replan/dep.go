package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/zulandar/replan/internal/depgraph"
	"gorm.io/gorm"
)

func newDepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dep",
		Short: "Manage task dependencies",
	}

	cmd.AddCommand(newDepAddCmd())
	cmd.AddCommand(newDepRemoveCmd())
	cmd.AddCommand(newDepListCmd())
	return cmd
}

func newDepAddCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "add <task-id> <depends-on>",
		Short: "Add a dependency edge",
		Long:  "Records that the first task cannot start before the second finishes. Rejected when the edge would close a cycle.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			return runDepAdd(cmd.OutOrStdout(), gormDB, args[0], args[1])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "replan.yaml", "path to Replan config file")
	return cmd
}

func runDepAdd(out io.Writer, gormDB *gorm.DB, taskID, dependsOn string) error {
	if err := depgraph.AddDep(gormDB, taskID, dependsOn); err != nil {
		return err
	}
	fmt.Fprintf(out, "Dependency added: %s depends on %s\n", taskID, dependsOn)
	return nil
}

func newDepRemoveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "rm <task-id> <depends-on>",
		Short: "Remove a dependency edge",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			return runDepRemove(cmd.OutOrStdout(), gormDB, args[0], args[1])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "replan.yaml", "path to Replan config file")
	return cmd
}

func runDepRemove(out io.Writer, gormDB *gorm.DB, taskID, dependsOn string) error {
	if err := depgraph.RemoveDep(gormDB, taskID, dependsOn); err != nil {
		return err
	}
	fmt.Fprintf(out, "Dependency removed: %s no longer depends on %s\n", taskID, dependsOn)
	return nil
}

func newDepListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list <task-id>",
		Short: "List a task's dependencies and dependents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			return runDepList(cmd.OutOrStdout(), gormDB, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "replan.yaml", "path to Replan config file")
	return cmd
}

func runDepList(out io.Writer, gormDB *gorm.DB, taskID string) error {
	dependencies, dependents, err := depgraph.ListDeps(gormDB, taskID)
	if err != nil {
		return err
	}

	if len(dependencies) == 0 {
		fmt.Fprintf(out, "%s depends on nothing\n", taskID)
	} else {
		fmt.Fprintf(out, "%s depends on:\n", taskID)
		for _, d := range dependencies {
			fmt.Fprintf(out, "  %s\n", d.DependsOn)
		}
	}

	if len(dependents) == 0 {
		fmt.Fprintf(out, "Nothing depends on %s\n", taskID)
	} else {
		fmt.Fprintf(out, "Depended on by:\n")
		for _, d := range dependents {
			fmt.Fprintf(out, "  %s\n", d.TaskID)
		}
	}
	return nil
}
