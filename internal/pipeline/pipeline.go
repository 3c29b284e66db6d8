// Package pipeline turns scanned PDFs into cleaned per-page records.
//
// For each document every page is rasterized, recognized and cleaned against
// the dictionary. Pages whose cleaned text is empty are left out of the
// record, but page numbers keep the position of the page in the PDF.
package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ocrsearch/internal/logger"
	"ocrsearch/internal/ocr"
	"ocrsearch/internal/raster"
	"ocrsearch/internal/record"
	"ocrsearch/internal/textclean"
)

// Config holds the pipeline settings.
type Config struct {
	// DPI is the rasterization resolution.
	DPI int

	// Languages are passed to the OCR engine.
	Languages []string

	// Workers is the number of documents processed at once in a batch.
	Workers int
}

// DefaultConfig returns the standard settings: 300 DPI Portuguese OCR, one
// document at a time.
func DefaultConfig() Config {
	return Config{
		DPI:       raster.DefaultDPI,
		Languages: []string{"por"},
		Workers:   1,
	}
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithProgress registers a callback invoked after every file of a batch. It
// may be called from several goroutines at once.
func WithProgress(fn func(FileResult)) Option {
	return func(p *Pipeline) { p.progress = fn }
}

// WithBatchStart registers a callback invoked with the number of files once a
// batch has listed its input, before any file starts.
func WithBatchStart(fn func(total int)) Option {
	return func(p *Pipeline) { p.start = fn }
}

// WithClock replaces time.Now for extraction dates.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// Pipeline processes PDFs. It is safe for concurrent use when its
// rasterizer and engine are.
type Pipeline struct {
	cfg      Config
	raster   raster.Rasterizer
	engine   ocr.Engine
	cleaner  *textclean.Cleaner
	progress func(FileResult)
	start    func(total int)
	now      func() time.Time
	log      zerolog.Logger
}

// New builds a pipeline.
func New(cfg Config, r raster.Rasterizer, engine ocr.Engine, cleaner *textclean.Cleaner, opts ...Option) *Pipeline {
	if cfg.DPI <= 0 {
		cfg.DPI = raster.DefaultDPI
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	p := &Pipeline{
		cfg:     cfg,
		raster:  r,
		engine:  engine,
		cleaner: cleaner,
		now:     time.Now,
		log:     logger.WithComponent("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessDocument extracts the cleaned record of one PDF.
func (p *Pipeline) ProcessDocument(ctx context.Context, pdfPath string) (*record.DocumentRecord, error) {
	const op = "ProcessDocument"
	name := filepath.Base(pdfPath)
	log := logger.WithDocument("pipeline", pdfPath)

	if _, err := ValidatePDFFile(pdfPath, log); err != nil {
		return nil, WrapProcessingError(op, name, 0, err)
	}

	pages, err := p.raster.Rasterize(ctx, pdfPath, p.cfg.DPI)
	if err != nil {
		return nil, WrapProcessingError(op, name, 0, err)
	}

	b := record.NewBuilder(pdfPath, p.now())
	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, WrapProcessingError(op, name, i+1, err)
		}

		res, err := p.engine.Recognize(ctx, ocr.Input{
			Image:     page.PNG,
			PageIndex: i,
			DPI:       p.cfg.DPI,
			Languages: p.cfg.Languages,
		})
		if err != nil {
			return nil, WrapProcessingError(op, name, i+1, err)
		}

		cleaned, stats := p.cleaner.CleanWithStats(res.Text)
		log.Debug().
			Int("page", i+1).
			Int64("kept", stats.Kept).
			Int64("split", stats.Split).
			Int64("corrected", stats.Corrected).
			Int64("dropped", stats.Dropped).
			Msg("Page cleaned")

		if strings.TrimSpace(cleaned) == "" {
			continue
		}
		// Number pages by raster position so skipped pages leave gaps.
		if err := b.AddPage(i+1, cleaned); err != nil {
			return nil, WrapProcessingError(op, name, i+1, err)
		}
	}

	rec, err := b.Finalize(len(pages))
	if err != nil {
		return nil, WrapProcessingError(op, name, 0, err)
	}

	log.Info().
		Int("total_pages", rec.Info.TotalPages).
		Int("text_pages", len(rec.Pages)).
		Int("words", rec.WordCount()).
		Msg("Document processed")

	return rec, nil
}

// ValidatePDFFile checks that pdfPath is a non-empty regular file. A missing
// .pdf extension is only logged.
func ValidatePDFFile(pdfPath string, log zerolog.Logger) (os.FileInfo, error) {
	fileInfo, err := os.Stat(pdfPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Error().Msg("PDF file not found")
			return nil, ErrFileNotFound
		}
		if errors.Is(err, fs.ErrPermission) {
			log.Error().Msg("Permission denied accessing PDF file")
			return nil, ErrPermissionDenied
		}
		return nil, err
	}

	if !fileInfo.Mode().IsRegular() {
		log.Error().Msg("Path is not a regular file")
		return nil, ErrNotRegularFile
	}

	if !strings.HasSuffix(strings.ToLower(pdfPath), ".pdf") {
		log.Warn().Msg("File does not have .pdf extension")
	}

	if fileInfo.Size() == 0 {
		log.Error().Msg("PDF file is empty")
		return nil, ErrEmptyFile
	}

	return fileInfo, nil
}
