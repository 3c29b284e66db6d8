package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"ocrsearch/internal/record"
)

// Status of a processed file.
type Status string

const (
	StatusSuccess Status = "success"
	// StatusWarning means the document processed but no page had any text left
	// after cleaning.
	StatusWarning Status = "warning"
	StatusError   Status = "error"
	// StatusSkipped means the batch was canceled before the file started.
	StatusSkipped Status = "skipped"
)

// FileResult is the outcome of one file in a batch.
type FileResult struct {
	Index    int
	Path     string
	Filename string
	Record   *record.DocumentRecord
	JSONPath string
	TextPath string
	Status   Status
	Err      error
	Duration time.Duration
}

// BatchSummary is the outcome of a ProcessDirectory run. Results are in the
// order of the input files.
type BatchSummary struct {
	Results   []FileResult
	Succeeded int
	Warnings  int
	Failed    int
	Skipped   int
	Duration  time.Duration
}

// ProcessFile runs ProcessDocument and writes <base>.json and <base>.txt next
// to the PDF. Errors are returned in the result, not raised.
func (p *Pipeline) ProcessFile(ctx context.Context, pdfPath string) FileResult {
	const op = "ProcessFile"
	start := time.Now()

	result := FileResult{
		Path:     pdfPath,
		Filename: filepath.Base(pdfPath),
		Status:   StatusError,
	}

	rec, err := p.ProcessDocument(ctx, pdfPath)
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}
	result.Record = rec

	jsonPath, txtPath, err := record.SaveSidecars(rec, record.BasePath(pdfPath))
	if err != nil {
		result.Err = WrapProcessingError(op, result.Filename, 0, err)
		result.Duration = time.Since(start)
		return result
	}
	result.JSONPath = jsonPath
	result.TextPath = txtPath

	result.Status = StatusSuccess
	if len(rec.Pages) == 0 {
		result.Status = StatusWarning
	}
	result.Duration = time.Since(start)
	return result
}

// ProcessDirectory processes every PDF directly inside dir (subdirectories
// are not searched) with up to Config.Workers files at once. A failing file
// is logged and recorded; the batch carries on. After cancellation no new
// file is started and the remaining ones are marked skipped.
func (p *Pipeline) ProcessDirectory(ctx context.Context, dir string) (*BatchSummary, error) {
	files, err := FindPDFFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoPDFFiles, dir)
	}
	return p.ProcessFiles(ctx, files), nil
}

// ProcessFiles processes the given PDFs like ProcessDirectory.
func (p *Pipeline) ProcessFiles(ctx context.Context, files []string) *BatchSummary {
	start := time.Now()
	results := make([]FileResult, len(files))

	p.log.Info().
		Int("files", len(files)).
		Int("workers", p.cfg.Workers).
		Msg("Starting batch")
	if p.start != nil {
		p.start(len(files))
	}

	var done atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(p.cfg.Workers)

	for i, path := range files {
		if ctx.Err() != nil {
			results[i] = skipped(i, path, ctx.Err())
			continue
		}
		g.Go(func() error {
			var res FileResult
			if err := ctx.Err(); err != nil {
				res = skipped(i, path, err)
			} else {
				res = p.ProcessFile(ctx, path)
				res.Index = i
			}
			results[i] = res

			n := done.Add(1)
			p.logResult(res, int(n), len(files))
			if p.progress != nil {
				p.progress(res)
			}
			return nil
		})
	}
	_ = g.Wait()

	summary := &BatchSummary{Results: results, Duration: time.Since(start)}
	for _, r := range results {
		switch r.Status {
		case StatusSuccess:
			summary.Succeeded++
		case StatusWarning:
			summary.Warnings++
		case StatusSkipped:
			summary.Skipped++
		default:
			summary.Failed++
		}
	}

	p.log.Info().
		Int("succeeded", summary.Succeeded).
		Int("warnings", summary.Warnings).
		Int("failed", summary.Failed).
		Int("skipped", summary.Skipped).
		Dur("duration", summary.Duration).
		Msg("Batch finished")

	return summary
}

func skipped(i int, path string, err error) FileResult {
	return FileResult{
		Index:    i,
		Path:     path,
		Filename: filepath.Base(path),
		Status:   StatusSkipped,
		Err:      err,
	}
}

func (p *Pipeline) logResult(res FileResult, n, total int) {
	switch {
	case res.Status == StatusSkipped:
		p.log.Debug().Str("file", res.Filename).Msg("Skipped")
	case res.Err != nil:
		p.log.Error().
			Err(res.Err).
			Str("file", res.Filename).
			Int("done", n).
			Int("total", total).
			Msg("Failed to process PDF")
	default:
		p.log.Info().
			Str("file", res.Filename).
			Str("status", string(res.Status)).
			Int("done", n).
			Int("total", total).
			Dur("duration", res.Duration).
			Msg("PDF processed")
	}
}

// FindPDFFiles lists the files directly inside dir whose extension is .pdf in
// any case, sorted by name. Highlighted copies are skipped.
func FindPDFFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, dir)
		}
		return nil, err
	}

	var pdfFiles []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(name), ".pdf") {
			continue
		}
		if strings.HasSuffix(record.BasePath(name), record.HighlightSuffix) {
			continue
		}
		pdfFiles = append(pdfFiles, filepath.Join(dir, name))
	}
	sort.Strings(pdfFiles)
	return pdfFiles, nil
}
