package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ocrsearch/internal/index"
	"ocrsearch/internal/logger"
	"ocrsearch/internal/record"
)

var indexCmd = &cobra.Command{
	Use:   "index [folder]",
	Short: "Add the records of a folder to the search index",
	Long: `Index every JSON (or, with --type txt, TXT) record directly inside the
folder. A record that was indexed before is replaced. Unreadable records are
reported and skipped.

The index is stored in INDEX_PATH, or in .ocrsearch.db inside the folder.`,
	Example: `  ocrsearch index ./scans
  ocrsearch index ./scans --type txt`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)

	indexCmd.Flags().String("type", string(record.KindJSON), "Record type to index: json or txt")
	indexCmd.Flags().StringSlice("remove", nil, "PDF paths to drop from the index instead of indexing")
}

func runIndex(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("index")

	dir := args[0]
	kindFlag, _ := cmd.Flags().GetString("type")
	remove, _ := cmd.Flags().GetStringSlice("remove")

	kind, err := record.ParseKind(kindFlag)
	if err != nil {
		return describeError(err)
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("folder not found: %s", dir)
	}

	path := indexPath(appConfig, dir)
	idx, err := index.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer idx.Close()

	ctx := cmd.Context()

	if len(remove) > 0 {
		for _, pdfPath := range remove {
			if err := idx.Remove(ctx, pdfPath); err != nil {
				return describeError(err)
			}
			fmt.Printf("Removido: %s\n", pdfPath)
		}
		return nil
	}

	n, err := idx.IndexDirectory(ctx, dir, kind)
	if err != nil {
		return describeError(err)
	}

	log.Info().Str("index", path).Int("documents", n).Msg("Indexing completed")
	fmt.Printf("Documentos indexados: %d\n", n)
	fmt.Printf("Índice: %s\n", path)
	return nil
}
