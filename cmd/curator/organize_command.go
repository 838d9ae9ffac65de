package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"curator/internal/organize"
	"curator/internal/plan"
	"curator/internal/strategy"
)

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var (
		strategyFlag   string
		rulesFlag      string
		categoriesFlag string
		dryRunFlag     bool
		jsonFlag       bool
	)

	cmd := &cobra.Command{
		Use:   "organize <root>",
		Short: "Reorganize a directory tree",
		Long: `Organize plans moves for every file under the root using the selected
strategy, resolves conflicts, and applies the plan. Every applied move is
recorded in a transaction log that "curator rollback" can reverse.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			org, err := ctx.organizer()
			if err != nil {
				return err
			}
			defer org.Close()

			report, err := org.Run(cmd.Context(), organize.Options{
				Root:           args[0],
				Strategy:       strategyFlag,
				RulesFile:      rulesFlag,
				CategoriesFile: categoriesFlag,
				DryRun:         dryRunFlag,
			})
			if err != nil {
				return err
			}
			if jsonFlag {
				return writeJSON(cmd, report)
			}
			printReport(cmd, report)
			return nil
		},
	}

	cmd.Flags().StringVarP(&strategyFlag, "strategy", "s", strategy.NameExtension,
		fmt.Sprintf("Organization strategy (%s)", strategyList()))
	cmd.Flags().StringVar(&rulesFlag, "rules", "", "Rules file for the pattern strategy")
	cmd.Flags().StringVar(&categoriesFlag, "categories", "", "Category taxonomy file for the extension strategy")
	cmd.Flags().BoolVarP(&dryRunFlag, "dry-run", "n", false, "Plan and report without moving anything")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit the report as JSON")
	return cmd
}

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	var (
		strategyFlag   string
		rulesFlag      string
		categoriesFlag string
		jsonFlag       bool
	)

	cmd := &cobra.Command{
		Use:   "preview <root>",
		Short: "Show the plan an organize run would apply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			org, err := ctx.organizer()
			if err != nil {
				return err
			}
			defer org.Close()

			report, err := org.Preview(cmd.Context(), organize.Options{
				Root:           args[0],
				Strategy:       strategyFlag,
				RulesFile:      rulesFlag,
				CategoriesFile: categoriesFlag,
			})
			if err != nil {
				return err
			}
			if jsonFlag {
				return writeJSON(cmd, report)
			}
			printReport(cmd, report)
			return nil
		},
	}

	cmd.Flags().StringVarP(&strategyFlag, "strategy", "s", strategy.NameExtension,
		fmt.Sprintf("Organization strategy (%s)", strategyList()))
	cmd.Flags().StringVar(&rulesFlag, "rules", "", "Rules file for the pattern strategy")
	cmd.Flags().StringVar(&categoriesFlag, "categories", "", "Category taxonomy file for the extension strategy")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit the report as JSON")
	return cmd
}

func strategyList() string {
	list := ""
	for i, name := range strategy.Names() {
		if i > 0 {
			list += ", "
		}
		list += name
	}
	return list
}

func printReport(cmd *cobra.Command, report *organize.Report) {
	out := cmd.OutOrStdout()

	if len(report.Planned) == 0 && len(report.Rejected) == 0 {
		fmt.Fprintln(out, "Nothing to organize.")
		return
	}

	rows := make([][]string, 0, len(report.Planned))
	for _, op := range report.Planned {
		rows = append(rows, operationRow(op))
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable(
			[]column{{title: "Kind"}, {title: "Source"}, {title: "Destination"}, {title: "Confidence", numeric: true}},
			rows,
		))
	}
	if len(report.Rejected) > 0 {
		fmt.Fprintf(out, "%d proposal(s) rejected:\n", len(report.Rejected))
		for _, op := range report.Rejected {
			fmt.Fprintf(out, "  %s: %s\n", filepath.Base(op.Source), op.Error)
		}
	}

	if report.Execution == nil {
		return
	}
	if report.Execution.DryRun {
		fmt.Fprintf(out, "Dry run: %d move(s) planned, nothing applied.\n", len(report.Planned))
		return
	}
	fmt.Fprintf(out, "Applied %d file move(s), %d folder move(s), %d error(s).\n",
		report.Execution.FileMoves, report.Execution.FolderMoves, report.Execution.Errors)
	if report.Execution.LogPath != "" {
		fmt.Fprintf(out, "Transaction log: %s (run %s)\n", report.Execution.LogPath, report.RunID)
	}
}

func operationRow(op plan.Operation) []string {
	return []string{
		string(op.Kind),
		op.Source,
		op.Destination,
		fmt.Sprintf("%.2f", op.Confidence),
	}
}
