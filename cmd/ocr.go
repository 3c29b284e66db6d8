package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ocrsearch/internal/logger"
	"ocrsearch/internal/ocr"
	"ocrsearch/internal/pipeline"
	"ocrsearch/internal/raster"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr [pdf-file]",
	Short: "Print the raw OCR text of a PDF without cleaning",
	Long: `Render every page of a PDF, run the configured OCR engine and print the
raw recognized text. Nothing is cleaned and no record is written; use this
to check what the engine sees before running process.`,
	Example: `  # Raw text to stdout
  ocrsearch ocr scan.pdf

  # Per-page JSON with confidence, using Google Cloud Vision
  ocrsearch ocr scan.pdf --engine vision --json -o scan-ocr.json`,
	Args: cobra.ExactArgs(1),
	RunE: runOCR,
}

// OCRPage is one page of the --json output.
type OCRPage struct {
	PageNumber int     `json:"page_number"`
	Text       string  `json:"text"`
	Words      int     `json:"words"`
	Confidence float64 `json:"confidence"`
}

// OCROutput represents the JSON output structure when --json flag is used
type OCROutput struct {
	FileName           string    `json:"file_name"`
	FileSize           int64     `json:"file_size"`
	Engine             string    `json:"engine"`
	Pages              []OCRPage `json:"pages"`
	ProcessedAt        time.Time `json:"processed_at"`
	ProcessingDuration string    `json:"processing_duration"`
}

func init() {
	rootCmd.AddCommand(ocrCmd)

	addEngineFlags(ocrCmd)
	ocrCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	ocrCmd.Flags().Bool("json", false, "Output as JSON")
	ocrCmd.Flags().Int("timeout", 300, "Processing timeout in seconds")
}

func runOCR(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("ocr")

	cfg := *appConfig
	if err := applyEngineFlags(cmd, &cfg); err != nil {
		return err
	}
	outputPath, _ := cmd.Flags().GetString("output")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	pdfPath := args[0]
	fileLog := logger.WithDocument("ocr", pdfPath)

	fileInfo, err := pipeline.ValidatePDFFile(pdfPath, fileLog)
	if err != nil {
		return fmt.Errorf("%s: %s", handleOCRError(err), pdfPath)
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	engine, err := createEngine(ctx, &cfg, log)
	if err != nil {
		return err
	}
	defer engine.Close()

	startTime := time.Now()
	pages, err := recognizePages(ctx, createRasterizer(&cfg), engine, pdfPath, cfg.RasterDPI, cfg.OCRLanguages())
	if err != nil {
		log.Error().Err(err).Str("file", pdfPath).Msg("OCR processing failed")
		return fmt.Errorf("%s", handleOCRError(err))
	}

	result := OCROutput{
		FileName:           filepath.Base(fileInfo.Name()),
		FileSize:           fileInfo.Size(),
		Engine:             engine.Name(),
		Pages:              pages,
		ProcessedAt:        time.Now(),
		ProcessingDuration: time.Since(startTime).String(),
	}

	log.Info().
		Int("page_count", len(pages)).
		Str("duration", result.ProcessingDuration).
		Msg("OCR processing completed successfully")

	return outputResults(result, outputPath, jsonOutput, log)
}

func recognizePages(ctx context.Context, r raster.Rasterizer, engine ocr.Engine, pdfPath string, dpi int, langs []string) ([]OCRPage, error) {
	rendered, err := r.Rasterize(ctx, pdfPath, dpi)
	if err != nil {
		return nil, err
	}

	pages := make([]OCRPage, 0, len(rendered))
	for i, page := range rendered {
		res, err := engine.Recognize(ctx, ocr.Input{
			Image:     page.PNG,
			PageIndex: i,
			DPI:       dpi,
			Languages: langs,
		})
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page.Number, err)
		}
		pages = append(pages, OCRPage{
			PageNumber: page.Number,
			Text:       res.Text,
			Words:      len(strings.Fields(res.Text)),
			Confidence: res.Confidence,
		})
	}
	return pages, nil
}

// outputResults formats and outputs the OCR results
func outputResults(result OCROutput, outputPath string, jsonOutput bool, log zerolog.Logger) error {
	var outputData []byte

	if jsonOutput {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			log.Error().Err(err).Msg("Failed to marshal JSON output")
			return fmt.Errorf("failed to create JSON output: %w", err)
		}
		outputData = append(data, '\n')
	} else {
		var output strings.Builder
		for _, p := range result.Pages {
			fmt.Fprintf(&output, "=== Página %d ===\n", p.PageNumber)
			output.WriteString(strings.TrimSpace(p.Text))
			output.WriteString("\n\n")
		}
		outputData = []byte(output.String())
	}

	if outputPath == "" {
		if _, err := os.Stdout.Write(outputData); err != nil {
			log.Error().Err(err).Msg("Failed to write to stdout")
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	if err := os.WriteFile(outputPath, outputData, 0644); err != nil {
		log.Error().
			Err(err).
			Str("output_file", outputPath).
			Msg("Failed to write output file")
		return fmt.Errorf("failed to write output file: %w", err)
	}

	log.Info().
		Str("output_file", outputPath).
		Int("bytes", len(outputData)).
		Msg("OCR results written to file")
	return nil
}
