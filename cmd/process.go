package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ocrsearch/internal/config"
	"ocrsearch/internal/index"
	"ocrsearch/internal/logger"
	"ocrsearch/internal/pipeline"
)

var processCmd = &cobra.Command{
	Use:   "process [folder-or-pdf]",
	Short: "OCR scanned PDFs and write cleaned JSON and TXT records",
	Long: `Process every PDF directly inside a folder, or a single PDF file.

Each page is rendered, recognized with the configured OCR engine and cleaned
against the dictionary: short tokens are dropped, known words are kept,
long glued words are split and misspelled words are corrected. Pages with no
text left are omitted. The record is written next to the PDF as <name>.json
and <name>.txt.

Files are processed one at a time unless --workers or BATCH_WORKERS is set.
A failing file is reported and the batch continues.`,
	Example: `  # Process a folder with Tesseract
  ocrsearch process ./scans

  # Use Google Cloud Vision and index the results
  ocrsearch process ./scans --engine vision --index

  # Four documents at once, render with pdftoppm at 200 DPI
  ocrsearch process ./scans --workers 4 --rasterizer pdftoppm --dpi 200`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	addEngineFlags(processCmd)
	processCmd.Flags().Int("workers", 0, "Documents processed at once (default from BATCH_WORKERS)")
	processCmd.Flags().String("dictionary", "", "Word list file (default from DICTIONARY_PATH)")
	processCmd.Flags().Int("timeout", 0, "Processing timeout in seconds, 0 for none")
	processCmd.Flags().Bool("index", false, "Also add the records to the search index")
}

func runProcess(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("process")

	cfg := *appConfig
	if err := applyEngineFlags(cmd, &cfg); err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetInt("workers"); v > 0 {
		cfg.BatchWorkers = v
	}
	if v, _ := cmd.Flags().GetString("dictionary"); v != "" {
		cfg.DictionaryPath = v
	}
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")
	withIndex, _ := cmd.Flags().GetBool("index")

	target := args[0]
	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("path not found: %s", target)
	}

	dir := target
	if !info.IsDir() {
		dir = filepath.Dir(target)
	}

	log.Info().
		Str("path", target).
		Str("engine", cfg.OCREngine).
		Str("rasterizer", cfg.Rasterizer).
		Int("dpi", cfg.RasterDPI).
		Int("workers", cfg.BatchWorkers).
		Msg("Starting processing")

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	cleaner, err := createCleaner(&cfg, log)
	if err != nil {
		return describeError(err)
	}

	engine, err := createEngine(ctx, &cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := engine.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close OCR engine")
		}
	}()

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("                         PROCESSAMENTO OCR")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Caminho: %s\n", target)
	fmt.Printf("Motor OCR: %s (%s)\n", engine.Name(), cfg.OCRLanguage)

	progress := &progressPrinter{}
	p := pipeline.New(pipeline.Config{
		DPI:       cfg.RasterDPI,
		Languages: cfg.OCRLanguages(),
		Workers:   cfg.BatchWorkers,
	}, createRasterizer(&cfg), engine, cleaner,
		pipeline.WithBatchStart(func(total int) {
			progress.total = total
			fmt.Printf("Processando %d PDFs com %d worker(s)...\n\n", total, cfg.BatchWorkers)
		}),
		pipeline.WithProgress(progress.print))

	var summary *pipeline.BatchSummary
	if info.IsDir() {
		summary, err = p.ProcessDirectory(ctx, target)
		if errors.Is(err, pipeline.ErrNoPDFFiles) {
			fmt.Println("Nenhum arquivo PDF encontrado.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to find PDF files: %w", err)
		}
	} else {
		summary = p.ProcessFiles(ctx, []string{target})
	}

	fmt.Println()
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("                 RESULTADO")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Sucesso: %d\n", summary.Succeeded)
	if summary.Warnings > 0 {
		fmt.Printf("Sem texto: %d\n", summary.Warnings)
	}
	if summary.Failed > 0 {
		fmt.Printf("Erros: %d\n", summary.Failed)
	}
	if summary.Skipped > 0 {
		fmt.Printf("Cancelados: %d\n", summary.Skipped)
	}
	fmt.Printf("Tempo: %s\n", summary.Duration.Round(time.Millisecond))

	if withIndex {
		if err := indexResults(ctx, &cfg, dir, summary, log); err != nil {
			return err
		}
	}

	log.Info().
		Int("total", len(summary.Results)).
		Int("success", summary.Succeeded).
		Int("warnings", summary.Warnings).
		Int("errors", summary.Failed).
		Msg("Processing completed")

	if summary.Succeeded+summary.Warnings == 0 {
		return fmt.Errorf("no PDF could be processed")
	}
	return nil
}

// progressPrinter prints one line per finished file. total is set by the
// batch start callback before any file finishes.
type progressPrinter struct {
	mu    sync.Mutex
	total int
	done  int
}

func (pp *progressPrinter) print(r pipeline.FileResult) {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	pp.done++

	fmt.Printf("[%d/%d] %s - %s", pp.done, pp.total, r.Filename, getStatusEmoji(r.Status))
	switch {
	case r.Err != nil:
		fmt.Printf(" (%s)", handleOCRError(r.Err))
	case r.Record != nil:
		fmt.Printf(" (%d/%d páginas, %d palavras)", len(r.Record.Pages), r.Record.Info.TotalPages, r.Record.WordCount())
	}
	fmt.Println()
}

func indexResults(ctx context.Context, cfg *config.Config, dir string, summary *pipeline.BatchSummary, log zerolog.Logger) error {
	path := indexPath(cfg, dir)
	idx, err := index.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer idx.Close()

	indexed := 0
	for _, r := range summary.Results {
		if r.Record == nil {
			continue
		}
		if err := idx.IndexDocument(ctx, r.Record, r.JSONPath); err != nil {
			log.Error().Err(err).Str("file", r.Filename).Msg("Failed to index record")
			continue
		}
		indexed++
	}
	fmt.Printf("Indexados: %d (%s)\n", indexed, path)
	return nil
}

// getStatusEmoji returns an emoji for the processing status
func getStatusEmoji(status pipeline.Status) string {
	switch status {
	case pipeline.StatusSuccess:
		return "✅"
	case pipeline.StatusWarning:
		return "⚠️"
	case pipeline.StatusError:
		return "❌"
	case pipeline.StatusSkipped:
		return "⏭️"
	default:
		return "❓"
	}
}
