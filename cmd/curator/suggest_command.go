package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"curator/internal/plan"
)

func newSuggestCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "suggest <root>",
		Short: "Show classifier suggestions without moving anything",
		Long: `Suggest runs the classifier over the tree and prints every suggestion with
its confidence, split on the configured threshold. Nothing is planned or
moved; use "curator organize --strategy classifier" to act on them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			org, err := ctx.organizer()
			if err != nil {
				return err
			}
			defer org.Close()

			approved, rejected, err := org.Suggest(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonFlag {
				return writeJSON(cmd, map[string][]plan.Operation{
					"approved": approved,
					"rejected": rejected,
				})
			}

			out := cmd.OutOrStdout()
			if len(approved) == 0 && len(rejected) == 0 {
				fmt.Fprintln(out, "No suggestions.")
				return nil
			}

			rows := make([][]string, 0, len(approved)+len(rejected))
			for _, op := range approved {
				rows = append(rows, suggestionRow(op, "yes"))
			}
			for _, op := range rejected {
				rows = append(rows, suggestionRow(op, "no"))
			}
			fmt.Fprintln(out, renderTable(
				[]column{{title: "Source"}, {title: "Destination"}, {title: "Confidence", numeric: true}, {title: "Approved"}, {title: "Reasoning"}},
				rows,
			))
			fmt.Fprintf(out, "%d of %d suggestion(s) meet the confidence threshold.\n",
				len(approved), len(approved)+len(rejected))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit suggestions as JSON")
	return cmd
}

func suggestionRow(op plan.Operation, approved string) []string {
	return []string{
		op.Source,
		op.Destination,
		fmt.Sprintf("%.2f", op.Confidence),
		approved,
		op.Reasoning,
	}
}
