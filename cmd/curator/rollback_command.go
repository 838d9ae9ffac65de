package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"curator/internal/txlog"
)

func newRollbackCommand(ctx *commandContext) *cobra.Command {
	var (
		runFlag    string
		dryRunFlag bool
		jsonFlag   bool
	)

	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "Reverse the moves recorded in a transaction log",
		Long: `Rollback replays a past run's transaction log in reverse order, moving
everything back where it came from. Without --run the most recent log is
used. Moved-then-deleted files are reported and skipped; everything else is
restored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			org, err := ctx.organizer()
			if err != nil {
				return err
			}
			defer org.Close()

			result, err := org.Rollback(cmd.Context(), runFlag, dryRunFlag)
			if err != nil {
				return err
			}
			if jsonFlag {
				return writeJSON(cmd, result)
			}

			out := cmd.OutOrStdout()
			if result.DryRun {
				fmt.Fprintf(out, "Dry run: %d move(s) would be reversed for run %s.\n",
					result.FileMoves+result.FolderMoves, result.RunID)
				return nil
			}
			fmt.Fprintf(out, "Reverted %d file move(s), %d folder move(s), %d error(s) for run %s.\n",
				result.FileMoves, result.FolderMoves, result.Errors, result.RunID)
			return nil
		},
	}

	cmd.Flags().StringVar(&runFlag, "run", "", "Run identifier to roll back (default: latest)")
	cmd.Flags().BoolVarP(&dryRunFlag, "dry-run", "n", false, "Report what would be reversed without moving anything")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit the result as JSON")
	return cmd
}

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "List transaction logs from past runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			org, err := ctx.organizer()
			if err != nil {
				return err
			}
			defer org.Close()

			paths, err := org.Logs()
			if err != nil {
				return err
			}
			if jsonFlag {
				return writeJSON(cmd, paths)
			}

			out := cmd.OutOrStdout()
			if len(paths) == 0 {
				fmt.Fprintln(out, "No transaction logs found.")
				return nil
			}
			rows := make([][]string, 0, len(paths))
			for _, path := range paths {
				row := []string{txlog.IDFromPath(path), path, "?"}
				if log, err := txlog.Load(path); err == nil {
					row[2] = fmt.Sprintf("%d move(s), %d error(s)",
						log.Summary.FileMoves+log.Summary.FolderMoves, log.Summary.Errors)
				}
				rows = append(rows, row)
			}
			fmt.Fprintln(out, renderTable(
				[]column{{title: "Run"}, {title: "Log"}, {title: "Summary"}},
				rows,
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit log paths as JSON")
	return cmd
}
