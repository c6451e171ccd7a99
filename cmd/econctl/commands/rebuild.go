package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Curisan/anthropic-econ-index/internal/database"
	"github.com/Curisan/anthropic-econ-index/internal/stats"
)

func newRebuildCmd(withEnv envRunner) *cobra.Command {
	var enqueue bool
	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Recompute occupation statistics from the task records",
		Long: "Replace the statistics table with aggregates computed from the current task records. " +
			"With --enqueue the rebuild is handed to the worker instead.",
		Args: cobra.NoArgs,
		RunE: withEnv(func(cmd *cobra.Command, args []string, env *Env) error {
			if enqueue {
				if err := enqueueRebuild(cmd.Context(), env, "manual"); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Rebuild queued")
				return nil
			}
			return runRebuild(cmd, env)
		}),
	}
	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "Queue the rebuild for the worker")
	return cmd
}

func newEngine(env *Env) *stats.Engine {
	return stats.NewEngine(
		database.NewTaskRecordRepository(env.DB),
		database.NewOccupationStatsRepository(env.DB),
		env.Cache,
		env.Logger.Named("stats"),
	)
}

func runRebuild(cmd *cobra.Command, env *Env) error {
	result, err := newEngine(env).Rebuild(cmd.Context())
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Rebuilt %d occupations from %d records\n", result.Occupations, result.Records)
	return nil
}
