package cmd

import (
	"github.com/spf13/cobra"

	"ocrsearch/internal/record"
)

var viewCmd = &cobra.Command{
	Use:   "view [record-file]",
	Short: "Print a JSON or TXT record",
	Long: `Print a record written by process: the file name, extraction date and
page total, then every page with its word count and content.`,
	Example: `  ocrsearch view ./scans/contrato.json
  ocrsearch view ./scans/contrato.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runView,
}

func init() {
	rootCmd.AddCommand(viewCmd)
}

func runView(cmd *cobra.Command, args []string) error {
	rec, err := record.LoadSidecar(args[0])
	if err != nil {
		return describeError(err)
	}
	return record.WriteView(cmd.OutOrStdout(), rec)
}
