package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"ocrsearch/internal/index"
	"ocrsearch/internal/logger"
	"ocrsearch/internal/ocr"
	"ocrsearch/internal/raster"
	"ocrsearch/internal/record"
	"ocrsearch/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search [term]",
	Short: "Search the indexed records and write a report",
	Long: `Search the index of a folder for a term. Matching is case and accent
insensitive; a term of several words is matched as a phrase.

The hits are printed and written to search_results.txt in the folder (or to
--report). With --highlight every matching PDF is copied to
<name>_highlighted.pdf with the term marked in yellow on the pages with hits
(on every page with --every-page). The copy keeps all pages of the source.`,
	Example: `  ocrsearch search contrato --dir ./scans
  ocrsearch search "locação residencial" --dir ./scans --limit 20
  ocrsearch search aluguel --dir ./scans --highlight --engine tesseract`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	addEngineFlags(searchCmd)
	searchCmd.Flags().String("dir", ".", "Folder with the records and the index")
	searchCmd.Flags().String("report", "", "Report file (default <dir>/search_results.txt)")
	searchCmd.Flags().Int("limit", 0, "Maximum number of hits (default from SEARCH_LIMIT)")
	searchCmd.Flags().Bool("highlight", false, "Write highlighted copies of the matching PDFs")
	searchCmd.Flags().Bool("every-page", false, "With --highlight, mark the term on every page, not only on the pages with hits")
	searchCmd.Flags().Int("timeout", 0, "Timeout in seconds, 0 for none")
}

func runSearch(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("search")

	cfg := *appConfig
	if err := applyEngineFlags(cmd, &cfg); err != nil {
		return err
	}
	dir, _ := cmd.Flags().GetString("dir")
	reportPath, _ := cmd.Flags().GetString("report")
	highlight, _ := cmd.Flags().GetBool("highlight")
	everyPage, _ := cmd.Flags().GetBool("every-page")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")
	if v, _ := cmd.Flags().GetInt("limit"); v > 0 {
		cfg.SearchLimit = v
	}
	if reportPath == "" {
		reportPath = filepath.Join(dir, record.ReportFileName)
	}

	term := strings.TrimSpace(strings.Join(args, " "))

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	idx, err := index.Open(indexPath(&cfg, dir))
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer idx.Close()

	var (
		r      raster.Rasterizer
		engine ocr.Engine
	)
	if highlight {
		r = createRasterizer(&cfg)
		engine, err = createEngine(ctx, &cfg, log)
		if err != nil {
			return err
		}
		defer engine.Close()
	}

	svc := search.NewService(idx, r, engine, search.Options{
		DPI:       cfg.RasterDPI,
		Languages: cfg.OCRLanguages(),
		Limit:     cfg.SearchLimit,
		EveryPage: everyPage,
	})

	hits, err := svc.Query(ctx, term)
	if err != nil {
		return describeError(err)
	}

	if err := writeReportFile(reportPath, term, hits); err != nil {
		return err
	}

	if len(hits) == 0 {
		fmt.Printf("Nenhum resultado para '%s'\n", term)
	}
	for _, h := range hits {
		fmt.Printf("Título: %s\n", h.Title)
		fmt.Printf("Caminho: %s\n", h.PDFPath)
		fmt.Printf("Página: %d\n", h.PageNumber)
		fmt.Printf("Trecho relevante: %s\n\n", h.Excerpt)
	}
	fmt.Printf("Relatório: %s\n", reportPath)

	if highlight && len(hits) > 0 {
		fmt.Println()
		for _, res := range svc.HighlightAll(ctx, term, search.GroupHits(hits)) {
			if res.Err != nil {
				fmt.Printf("❌ %s (%s)\n", filepath.Base(res.PDFPath), handleOCRError(res.Err))
				continue
			}
			fmt.Printf("✅ %s (%d marcações)\n", res.OutputPath, res.Marked)
		}
	}

	return nil
}

func writeReportFile(path, term string, hits []index.Hit) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := search.WriteReport(f, term, hits); err != nil {
		f.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	return f.Close()
}
