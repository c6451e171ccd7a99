package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Curisan/anthropic-econ-index/internal/database"
	"github.com/Curisan/anthropic-econ-index/internal/ingest"
)

func newImportCmd(withEnv envRunner) *cobra.Command {
	var (
		encoding string
		replace  bool
		rebuild  bool
		enqueue  bool
	)
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load a task dataset export into the record store",
		Long: "Parse a CSV export (UTF-8 or GBK) and insert every row in one transaction. " +
			"A malformed row aborts the import before anything is written.",
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if rebuild && enqueue {
				return fmt.Errorf("--rebuild and --enqueue are mutually exclusive")
			}
			_, err := ingest.ParseEncoding(encoding)
			return err
		},
		RunE: withEnv(func(cmd *cobra.Command, args []string, env *Env) error {
			enc, _ := ingest.ParseEncoding(encoding)

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open dataset: %w", err)
			}
			defer func() { _ = f.Close() }()

			importer := ingest.NewImporter(database.NewTaskRecordRepository(env.DB), env.Logger.Named("ingest"))
			result, err := importer.Import(cmd.Context(), f, ingest.Options{Encoding: enc, Replace: replace})
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d rows (%s)\n", result.Rows, result.Encoding)

			switch {
			case rebuild:
				return runRebuild(cmd, env)
			case enqueue:
				if err := enqueueRebuild(cmd.Context(), env, "import"); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Rebuild queued")
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&encoding, "encoding", "auto", "File encoding: auto, utf-8 or gbk")
	cmd.Flags().BoolVar(&replace, "replace", false, "Drop the existing dataset before inserting")
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "Rebuild occupation statistics after the import")
	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "Queue a statistics rebuild for the worker after the import")
	return cmd
}
