// Package search answers keyword queries against the index and builds
// highlighted copies of the matching PDFs.
package search

import (
	"context"
	"fmt"
	"image"
	"os"
	"sort"

	"github.com/rs/zerolog"

	"ocrsearch/internal/index"
	"ocrsearch/internal/logger"
	"ocrsearch/internal/ocr"
	"ocrsearch/internal/raster"
	"ocrsearch/internal/record"
)

// Searcher runs ranked queries. *index.Index implements it.
type Searcher interface {
	Search(ctx context.Context, term string, limit int) ([]index.Hit, error)
}

// DocumentHits are the hits of one PDF, best first.
type DocumentHits struct {
	Title   string      `json:"title"`
	PDFPath string      `json:"pdf_path"`
	Pages   []int       `json:"pages"`
	Hits    []index.Hit `json:"hits"`
}

// HighlightResult is the outcome of highlighting one PDF.
type HighlightResult struct {
	PDFPath    string
	OutputPath string
	// Marked is the number of word boxes painted.
	Marked int
	Err    error
}

// Options configures the OCR pass of Highlight.
type Options struct {
	DPI       int
	Languages []string
	Limit     int

	// EveryPage makes HighlightAll recognize every page of a document
	// instead of only the pages with hits.
	EveryPage bool
}

// Service searches the index and highlights results.
type Service struct {
	searcher Searcher
	raster   raster.Rasterizer
	engine   ocr.Engine
	opts     Options
	log      zerolog.Logger
}

// NewService builds a Service. r and engine are only needed for Highlight
// and may be nil otherwise.
func NewService(s Searcher, r raster.Rasterizer, engine ocr.Engine, opts Options) *Service {
	if opts.DPI <= 0 {
		opts.DPI = raster.DefaultDPI
	}
	if opts.Limit <= 0 {
		opts.Limit = index.DefaultLimit
	}
	return &Service{
		searcher: s,
		raster:   r,
		engine:   engine,
		opts:     opts,
		log:      logger.WithComponent("search"),
	}
}

// Query returns the ranked hits for term.
func (s *Service) Query(ctx context.Context, term string) ([]index.Hit, error) {
	hits, err := s.searcher.Search(ctx, term, s.opts.Limit)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("term", term).Int("hits", len(hits)).Msg("Search finished")
	return hits, nil
}

// Search returns the hits for term grouped per document. Documents are
// ordered by their best hit.
func (s *Service) Search(ctx context.Context, term string) ([]DocumentHits, error) {
	hits, err := s.Query(ctx, term)
	if err != nil {
		return nil, err
	}
	return GroupHits(hits), nil
}

// GroupHits groups ranked hits by PDF path, keeping the rank order.
func GroupHits(hits []index.Hit) []DocumentHits {
	var groups []DocumentHits
	pos := make(map[string]int)

	for _, h := range hits {
		i, ok := pos[h.PDFPath]
		if !ok {
			i = len(groups)
			pos[h.PDFPath] = i
			groups = append(groups, DocumentHits{Title: h.Title, PDFPath: h.PDFPath})
		}
		groups[i].Hits = append(groups[i].Hits, h)
		groups[i].Pages = append(groups[i].Pages, h.PageNumber)
	}

	for i := range groups {
		sort.Ints(groups[i].Pages)
	}
	return groups
}

// HighlightPath is where the highlighted copy of pdfPath is written.
func HighlightPath(pdfPath string) string {
	return record.BasePath(pdfPath) + record.HighlightSuffix + ".pdf"
}

// Highlight renders every page of pdfPath, re-recognizes the given pages (all
// of them when pages is nil), paints every OCR word matching term and writes
// the whole document to HighlightPath, so page N of the copy is page N of the
// source. The copy is written even when OCR finds no matching word.
func (s *Service) Highlight(ctx context.Context, pdfPath, term string, pages []int) (HighlightResult, error) {
	const op = "Highlight"
	result := HighlightResult{PDFPath: pdfPath}
	log := logger.WithDocument("search", pdfPath)

	if s.raster == nil || s.engine == nil {
		return result, fmt.Errorf("%s: rasterizer and OCR engine are required", op)
	}

	info, err := os.Stat(pdfPath)
	if err != nil {
		return result, fmt.Errorf("%s: %w", op, err)
	}
	if !info.Mode().IsRegular() {
		return result, fmt.Errorf("%s: %s is not a regular file", op, pdfPath)
	}

	rendered, err := s.raster.Rasterize(ctx, pdfPath, s.opts.DPI)
	if err != nil {
		return result, fmt.Errorf("%s: %w", op, err)
	}
	if len(rendered) == 0 {
		return result, fmt.Errorf("%s: %w", op, raster.ErrNoPages)
	}

	var want map[int]bool
	if pages != nil {
		want = make(map[int]bool, len(pages))
		for _, n := range pages {
			want[n] = true
		}
	}

	m := newMatcher(term)
	marks := make(map[int][]image.Rectangle)
	for _, page := range rendered {
		if want != nil && !want[page.Number] {
			continue
		}
		res, err := s.engine.Recognize(ctx, ocr.Input{
			Image:     page.PNG,
			PageIndex: page.Number - 1,
			DPI:       s.opts.DPI,
			Languages: s.opts.Languages,
		})
		if err != nil {
			return result, fmt.Errorf("%s: page %d: %w", op, page.Number, err)
		}
		for _, w := range res.Words {
			if m.Match(w.Text) && !w.Box.Empty() {
				marks[page.Number] = append(marks[page.Number], w.Box)
				result.Marked++
			}
		}
	}

	if result.Marked == 0 {
		log.Warn().Str("term", term).Ints("pages", pages).Msg("No OCR word matched the term")
	}

	out := HighlightPath(pdfPath)
	if err := raster.HighlightDocument(rendered, marks, out); err != nil {
		return result, fmt.Errorf("%s: %w", op, err)
	}
	result.OutputPath = out

	log.Info().
		Str("output", out).
		Int("marked", result.Marked).
		Msg("Highlighted copy written")
	return result, nil
}

// HighlightAll highlights every document of groups. A failing document is
// logged and recorded in its result; the others continue.
func (s *Service) HighlightAll(ctx context.Context, term string, groups []DocumentHits) []HighlightResult {
	results := make([]HighlightResult, 0, len(groups))
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			results = append(results, HighlightResult{PDFPath: g.PDFPath, Err: err})
			continue
		}
		pages := g.Pages
		if s.opts.EveryPage {
			pages = nil
		}
		res, err := s.Highlight(ctx, g.PDFPath, term, pages)
		if err != nil {
			s.log.Error().Err(err).Str("file", g.PDFPath).Msg("Failed to highlight PDF")
			res.Err = err
		}
		results = append(results, res)
	}
	return results
}
