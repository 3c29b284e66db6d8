package search

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocrsearch/internal/index"
	"ocrsearch/internal/ocr"
	"ocrsearch/internal/raster"
)

type fakeSearcher struct {
	hits  []index.Hit
	err   error
	limit int
}

func (f *fakeSearcher) Search(_ context.Context, _ string, limit int) ([]index.Hit, error) {
	f.limit = limit
	return f.hits, f.err
}

// pageRasterizer renders a three page document of blank pages.
type pageRasterizer struct {
	t *testing.T
}

func (r *pageRasterizer) Rasterize(context.Context, string, int) ([]raster.Page, error) {
	pages := make([]raster.Page, 0, 3)
	for n := 1; n <= 3; n++ {
		p, err := raster.NewPage(n, blankPNG(r.t))
		require.NoError(r.t, err)
		pages = append(pages, p)
	}
	return pages, nil
}

// wordEngine returns the same words for every page and records which pages
// it was asked to recognize.
type wordEngine struct {
	words      []ocr.Word
	recognized []int
}

func (e *wordEngine) Name() string { return "words" }

func (e *wordEngine) Recognize(_ context.Context, in ocr.Input) (*ocr.Result, error) {
	e.recognized = append(e.recognized, in.PageIndex+1)
	return &ocr.Result{Words: e.words}, nil
}

func (e *wordEngine) Close() error { return nil }

func blankPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writePDF(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 test"), 0o644))
	return path
}

func TestFold(t *testing.T) {
	assert.Equal(t, "locacao", Fold("LOCAÇÃO"))
	assert.Equal(t, "acao", Fold("ação"))
	assert.Equal(t, "contrato", Fold("Contrato"))
}

func TestMatcher(t *testing.T) {
	m := newMatcher("Locação")
	assert.True(t, m.Match("locacao"))
	assert.True(t, m.Match("LOCAÇÃO,"))
	assert.False(t, m.Match("contrato"))
	assert.False(t, m.Match(""))

	multi := newMatcher("casa porta")
	assert.True(t, multi.Match("casa"))
	assert.True(t, multi.Match("portas"))
}

func TestGroupHits(t *testing.T) {
	groups := GroupHits([]index.Hit{
		{Title: "b.pdf", PDFPath: "/d/b.pdf", PageNumber: 4},
		{Title: "a.pdf", PDFPath: "/d/a.pdf", PageNumber: 2},
		{Title: "b.pdf", PDFPath: "/d/b.pdf", PageNumber: 1},
	})

	require.Len(t, groups, 2)
	assert.Equal(t, "/d/b.pdf", groups[0].PDFPath)
	assert.Equal(t, []int{1, 4}, groups[0].Pages)
	assert.Equal(t, 4, groups[0].Hits[0].PageNumber, "hits keep rank order")
	assert.Equal(t, "/d/a.pdf", groups[1].PDFPath)
	assert.Equal(t, []int{2}, groups[1].Pages)
}

func TestServiceSearch(t *testing.T) {
	fs := &fakeSearcher{hits: []index.Hit{{Title: "a.pdf", PDFPath: "/d/a.pdf", PageNumber: 1}}}
	svc := NewService(fs, nil, nil, Options{})

	groups, err := svc.Search(context.Background(), "casa")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, index.DefaultLimit, fs.limit)

	fs.err = index.ErrEmptyQuery
	_, err = svc.Search(context.Background(), "")
	assert.ErrorIs(t, err, index.ErrEmptyQuery)
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	err := WriteReport(&buf, "casa", []index.Hit{
		{Title: "a.pdf", PDFPath: "/d/a.pdf", Excerpt: "a [casa] azul"},
		{Title: "b.pdf", PDFPath: "/d/b.pdf", Excerpt: "[casa]"},
	})
	require.NoError(t, err)

	rule := strings.Repeat("-", 50)
	want := "Search Results for: casa\n" + rule + "\n\n" +
		"Title: a.pdf\nPath: /d/a.pdf\nRelevant excerpt: a [casa] azul\n" + rule + "\n\n" +
		"Title: b.pdf\nPath: /d/b.pdf\nRelevant excerpt: [casa]\n" + rule + "\n\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteReportWithoutHits(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, "nada", nil))
	assert.Equal(t, "Search Results for: nada\n"+strings.Repeat("-", 50)+"\n\n", buf.String())
}

func TestHighlight(t *testing.T) {
	dir := t.TempDir()
	pdf := writePDF(t, dir, "contrato.pdf")

	r := &pageRasterizer{t: t}
	engine := &wordEngine{words: []ocr.Word{
		{Text: "LOCAÇÃO", Box: image.Rect(2, 2, 20, 10)},
		{Text: "contrato", Box: image.Rect(2, 12, 20, 20)},
		{Text: "locacao", Box: image.Rectangle{}},
	}}
	svc := NewService(&fakeSearcher{}, r, engine, Options{DPI: 72})

	res, err := svc.Highlight(context.Background(), pdf, "locação", []int{1, 3})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 3}, engine.recognized)
	assert.Equal(t, filepath.Join(dir, "contrato_highlighted.pdf"), res.OutputPath)
	assert.Equal(t, 2, res.Marked, "one box per page, empty boxes skipped")

	n, err := raster.PageCount(res.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, 3, n, "the copy keeps every page of the source")
}

func TestHighlightKeepsPagePositions(t *testing.T) {
	dir := t.TempDir()
	pdf := writePDF(t, dir, "contrato.pdf")

	engine := &wordEngine{words: []ocr.Word{{Text: "casa", Box: image.Rect(1, 1, 10, 10)}}}
	svc := NewService(&fakeSearcher{}, &pageRasterizer{t: t}, engine, Options{DPI: 72})

	res, err := svc.Highlight(context.Background(), pdf, "casa", []int{3})
	require.NoError(t, err)
	assert.Equal(t, []int{3}, engine.recognized)
	assert.Equal(t, 1, res.Marked)

	n, err := raster.PageCount(res.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestHighlightEveryPage(t *testing.T) {
	dir := t.TempDir()
	pdf := writePDF(t, dir, "contrato.pdf")

	engine := &wordEngine{words: []ocr.Word{{Text: "Casa", Box: image.Rect(1, 1, 10, 10)}}}
	svc := NewService(&fakeSearcher{}, &pageRasterizer{t: t}, engine, Options{DPI: 72, EveryPage: true})

	results := svc.HighlightAll(context.Background(), "casa", []DocumentHits{{PDFPath: pdf, Pages: []int{2}}})

	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, []int{1, 2, 3}, engine.recognized)
	assert.Equal(t, 3, results[0].Marked)
}

func TestHighlightAllContinuesAfterFailure(t *testing.T) {
	dir := t.TempDir()
	pdf := writePDF(t, dir, "ok.pdf")

	engine := &wordEngine{words: []ocr.Word{{Text: "casa", Box: image.Rect(1, 1, 10, 10)}}}
	svc := NewService(&fakeSearcher{}, &pageRasterizer{t: t}, engine, Options{DPI: 72})

	results := svc.HighlightAll(context.Background(), "casa", []DocumentHits{
		{PDFPath: filepath.Join(dir, "missing.pdf"), Pages: []int{1}},
		{PDFPath: pdf, Pages: []int{2}},
	})

	require.Len(t, results, 2)
	assert.True(t, errors.Is(results[0].Err, os.ErrNotExist))
	assert.Empty(t, results[0].OutputPath)
	require.NoError(t, results[1].Err)
	assert.Equal(t, filepath.Join(dir, "ok_highlighted.pdf"), results[1].OutputPath)
}
