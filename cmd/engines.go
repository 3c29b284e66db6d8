package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ocrsearch/internal/config"
	"ocrsearch/internal/dictionary"
	"ocrsearch/internal/index"
	"ocrsearch/internal/ocr"
	"ocrsearch/internal/ocr/tesseract"
	"ocrsearch/internal/raster"
	"ocrsearch/internal/raster/mupdf"
	"ocrsearch/internal/textclean"
)

// addEngineFlags registers the flags that override the OCR settings.
func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().String("engine", "", "OCR engine: tesseract, vision or documentai (default from OCR_ENGINE)")
	cmd.Flags().String("rasterizer", "", "Page rasterizer: mupdf or pdftoppm (default from RASTERIZER)")
	cmd.Flags().Int("dpi", 0, "Rasterization DPI (default from RASTER_DPI)")
	cmd.Flags().String("language", "", "Tesseract language, e.g. por or por+eng (default from OCR_LANGUAGE)")
}

// applyEngineFlags copies the flags set on cmd into cfg and revalidates it.
func applyEngineFlags(cmd *cobra.Command, cfg *config.Config) error {
	if v, _ := cmd.Flags().GetString("engine"); v != "" {
		cfg.OCREngine = strings.ToLower(v)
	}
	if v, _ := cmd.Flags().GetString("rasterizer"); v != "" {
		cfg.Rasterizer = strings.ToLower(v)
	}
	if v, _ := cmd.Flags().GetInt("dpi"); v != 0 {
		cfg.RasterDPI = v
	}
	if v, _ := cmd.Flags().GetString("language"); v != "" {
		cfg.OCRLanguage = v
	}
	return cfg.Validate()
}

// createEngine builds the configured OCR engine.
func createEngine(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ocr.Engine, error) {
	switch cfg.OCREngine {
	case config.EngineVision:
		engine, err := ocr.NewVisionEngine(ctx)
		if err != nil {
			return nil, credentialsError(err, log)
		}
		return engine, nil

	case config.EngineDocumentAI:
		engine, err := ocr.NewDocumentAIEngine(ctx, ocr.DocumentAIConfig{
			ProjectID:   cfg.GoogleCloudProject,
			Location:    cfg.GoogleCloudLocation,
			ProcessorID: cfg.DocumentAIProcessorID,
		})
		if err != nil {
			return nil, credentialsError(err, log)
		}
		return engine, nil

	default:
		engine := tesseract.New(cfg.TessdataPrefix, cfg.OCRLanguages()...)
		if err := engine.CheckLanguages(); err != nil {
			log.Error().Err(err).Msg("Tesseract is not ready")
			return nil, fmt.Errorf("Tesseract is not ready. Install the language data (e.g. tesseract-ocr-por) or set TESSDATA_PREFIX: %w", err)
		}
		return engine, nil
	}
}

// createRasterizer builds the configured page rasterizer.
func createRasterizer(cfg *config.Config) raster.Rasterizer {
	if cfg.Rasterizer == config.RasterizerPoppler {
		return raster.NewPoppler(cfg.PdftoppmPath)
	}
	return mupdf.New()
}

// createCleaner loads the dictionary and builds the cleaner. A missing word
// list is logged and cleaning continues with an empty dictionary.
func createCleaner(cfg *config.Config, log zerolog.Logger) (*textclean.Cleaner, error) {
	dict, err := dictionary.Load(cfg.DictionaryPath, cfg.MinWordLength)
	if err != nil {
		if !errors.Is(err, dictionary.ErrDictionaryNotFound) {
			return nil, err
		}
		log.Warn().
			Str("path", cfg.DictionaryPath).
			Msg("Dictionary not found, every token will be dropped")
	} else {
		log.Info().
			Str("path", cfg.DictionaryPath).
			Int("words", dict.Len()).
			Msg("Dictionary loaded")
	}

	return textclean.New(dict, textclean.Options{
		MinWordLength:     cfg.MinWordLength,
		CompoundMinLength: cfg.CompoundMinLength,
		FuzzyCutoff:       cfg.FuzzyCutoff,
	}), nil
}

// indexPath returns the configured index file or the default one inside dir.
func indexPath(cfg *config.Config, dir string) string {
	if cfg.IndexPath != "" {
		return cfg.IndexPath
	}
	return filepath.Join(dir, index.DefaultFileName)
}

// createContextWithTimeout creates a context with timeout and signal handling.
// A zero timeout means no deadline.
func createContextWithTimeout(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if timeoutSecs > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
