package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Curisan/anthropic-econ-index/internal/database"
	"github.com/Curisan/anthropic-econ-index/internal/feedback"
	"github.com/Curisan/anthropic-econ-index/internal/history"
	"github.com/Curisan/anthropic-econ-index/internal/stats"
)

func newStatsCmd(withEnv envRunner) *cobra.Command {
	var (
		metric string
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "List occupations ranked by total automation share",
		Args:  cobra.NoArgs,
		RunE: withEnv(func(cmd *cobra.Command, args []string, env *Env) error {
			m, err := stats.ParseMetric(metric)
			if err != nil {
				return err
			}
			values, err := newEngine(env).List(cmd.Context(), m, limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), values)
			}
			return writeTable(cmd.OutOrStdout(), []string{"TITLE", "TITLE_CN", "VALUE"}, len(values), func(i int) []string {
				v := values[i]
				return []string{v.Title, v.TitleCN, strconv.FormatFloat(v.Value, 'f', 2, 64)}
			})
		}),
	}
	cmd.Flags().StringVar(&metric, "metric", "percentage_sum", "Value column: percentage_sum or percentage_non_zero")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of occupations")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func newPopularCmd(withEnv envRunner) *cobra.Command {
	var (
		days   int
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "popular",
		Short: "List the most searched occupations in a recent window",
		Args:  cobra.NoArgs,
		RunE: withEnv(func(cmd *cobra.Command, args []string, env *Env) error {
			tracker := history.NewTracker(database.NewSearchEventRepository(env.DB), env.Logger.Named("history"))
			popular, err := tracker.Popular(cmd.Context(), days, limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), popular)
			}
			return writeTable(cmd.OutOrStdout(), []string{"TITLE", "SEARCHES"}, len(popular), func(i int) []string {
				return []string{popular[i].Title, strconv.Itoa(popular[i].Count)}
			})
		}),
	}
	cmd.Flags().IntVar(&days, "days", 7, "Window length in calendar days")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of occupations")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func newFeedbackCmd(withEnv envRunner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Inspect user feedback",
	}
	cmd.AddCommand(newFeedbackListCmd(withEnv))
	return cmd
}

func newFeedbackListCmd(withEnv envRunner) *cobra.Command {
	var (
		days   int
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List feedback entries, newest first",
		Args:  cobra.NoArgs,
		RunE: withEnv(func(cmd *cobra.Command, args []string, env *Env) error {
			ledger := feedback.NewLedger(database.NewFeedbackRepository(env.DB), env.Logger.Named("feedback"))
			entries, err := ledger.List(cmd.Context(), days, limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			return writeTable(cmd.OutOrStdout(), []string{"ID", "CREATED", "TYPE", "CONTENT"}, len(entries), func(i int) []string {
				e := entries[i]
				return []string{
					strconv.FormatInt(e.ID, 10),
					e.CreatedAt.UTC().Format(time.RFC3339),
					string(e.Category),
					e.Content,
				}
			})
		}),
	}
	cmd.Flags().IntVar(&days, "days", 30, "Window length in calendar days")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of entries")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTable(w io.Writer, header []string, n int, row func(i int) []string) error {
	if n == 0 {
		_, err := fmt.Fprintln(w, "No results")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	writeRow(tw, header)
	for i := 0; i < n; i++ {
		writeRow(tw, row(i))
	}
	return tw.Flush()
}

func writeRow(w io.Writer, cols []string) {
	for i, col := range cols {
		if i > 0 {
			_, _ = io.WriteString(w, "\t")
		}
		_, _ = io.WriteString(w, col)
	}
	_, _ = io.WriteString(w, "\n")
}
