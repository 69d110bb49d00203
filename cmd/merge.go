package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/docrows/core/output"
)

var flagMergeOutput string

var mergeCmd = &cobra.Command{
	Use:   "merge <a.csv> [b.csv ...]",
	Short: "Merge knowledge-base CSVs into one file",
	Long: `Merge concatenates CSV files produced by docrows in the given order. The header
is written once and the document_id column is renumbered 1..total. Files with
different headers cannot be merged.

Example:
  docrows merge -o multi_final.csv pods.csv ingress.csv services.csv`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		total, err := output.MergeFiles(flagMergeOutput, args)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "✓ Written: %s (%d rows from %d files)\n", flagMergeOutput, total, len(args))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mergeCmd)

	mergeCmd.Flags().StringVarP(&flagMergeOutput, "output", "o", "multi_final.csv", "Merged CSV path")
}
