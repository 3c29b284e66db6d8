package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocrsearch/internal/dictionary"
	"ocrsearch/internal/ocr"
	"ocrsearch/internal/raster"
	"ocrsearch/internal/record"
	"ocrsearch/internal/textclean"
)

var fixedNow = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

// fakeRasterizer renders each document to pages whose PNG bytes are the raw
// page text, keyed by file name.
type fakeRasterizer struct {
	docs map[string][]string
}

func (f *fakeRasterizer) Rasterize(_ context.Context, pdfPath string, _ int) ([]raster.Page, error) {
	texts, ok := f.docs[filepath.Base(pdfPath)]
	if !ok {
		return nil, fmt.Errorf("%w: cannot open %s", raster.ErrRasterFailed, pdfPath)
	}
	pages := make([]raster.Page, len(texts))
	for i, text := range texts {
		pages[i] = raster.Page{Number: i + 1, PNG: []byte(text)}
	}
	return pages, nil
}

// echoEngine returns the page bytes as the recognized text.
type echoEngine struct {
	failOn string
}

func (e *echoEngine) Name() string { return "echo" }

func (e *echoEngine) Recognize(_ context.Context, in ocr.Input) (*ocr.Result, error) {
	if e.failOn != "" && string(in.Image) == e.failOn {
		return nil, ocr.WrapOCRError("Recognize", ocr.ErrOCRFailed, "unreadable")
	}
	return &ocr.Result{Text: string(in.Image)}, nil
}

func (e *echoEngine) Close() error { return nil }

func testCleaner() *textclean.Cleaner {
	dict := dictionary.New([]string{"contrato", "locação", "residencial", "assinatura", "partes"}, 2)
	return textclean.New(dict, textclean.DefaultOptions())
}

func writePDF(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 test"), 0o644))
	return path
}

func newTestPipeline(docs map[string][]string, engine ocr.Engine, opts ...Option) *Pipeline {
	if engine == nil {
		engine = &echoEngine{}
	}
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(DefaultConfig(), &fakeRasterizer{docs: docs}, engine, testCleaner(), opts...)
}

func TestProcessDocumentDropsGarbagePages(t *testing.T) {
	dir := t.TempDir()
	path := writePDF(t, dir, "contrato.pdf")

	p := newTestPipeline(map[string][]string{
		"contrato.pdf": {"Contrato de LOCAÇÃO residencial", "x# 12 ~~ qq"},
	}, nil)

	rec, err := p.ProcessDocument(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "contrato.pdf", rec.Info.Filename)
	assert.Equal(t, path, rec.Info.Path)
	assert.Equal(t, 2, rec.Info.TotalPages)
	assert.True(t, rec.Info.ExtractionDate.Equal(fixedNow))
	require.Len(t, rec.Pages, 1)
	assert.Equal(t, 1, rec.Pages[0].PageNumber)
	assert.Equal(t, "contrato locação residencial", rec.Pages[0].Content)
	assert.Equal(t, 3, rec.Pages[0].WordCount)
}

func TestProcessDocumentKeepsPageGaps(t *testing.T) {
	dir := t.TempDir()
	path := writePDF(t, dir, "doc.pdf")

	p := newTestPipeline(map[string][]string{
		"doc.pdf": {"contrato", "### ---", "assinatura das partes"},
	}, nil)

	rec, err := p.ProcessDocument(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, rec.Pages, 2)
	assert.Equal(t, 1, rec.Pages[0].PageNumber)
	assert.Equal(t, 3, rec.Pages[1].PageNumber)
	assert.Equal(t, "assinatura partes", rec.Pages[1].Content)
	assert.Equal(t, 3, rec.Info.TotalPages)
}

func TestProcessDocumentErrors(t *testing.T) {
	dir := t.TempDir()

	p := newTestPipeline(map[string][]string{"bad.pdf": {"contrato", "BROKEN"}}, &echoEngine{failOn: "BROKEN"})

	_, err := p.ProcessDocument(context.Background(), filepath.Join(dir, "missing.pdf"))
	assert.ErrorIs(t, err, ErrFileNotFound)

	empty := filepath.Join(dir, "empty.pdf")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = p.ProcessDocument(context.Background(), empty)
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = p.ProcessDocument(context.Background(), dir)
	assert.ErrorIs(t, err, ErrNotRegularFile)

	bad := writePDF(t, dir, "bad.pdf")
	_, err = p.ProcessDocument(context.Background(), bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, ocr.ErrOCRFailed)

	var procErr *ProcessingError
	require.True(t, errors.As(err, &procErr))
	assert.Equal(t, "bad.pdf", procErr.File)
	assert.Equal(t, 2, procErr.Page)
}

func TestProcessFileWritesSidecars(t *testing.T) {
	dir := t.TempDir()
	path := writePDF(t, dir, "contrato.pdf")

	p := newTestPipeline(map[string][]string{"contrato.pdf": {"contrato residencial"}}, nil)

	res := p.ProcessFile(context.Background(), path)
	require.NoError(t, res.Err)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, filepath.Join(dir, "contrato.json"), res.JSONPath)
	assert.Equal(t, filepath.Join(dir, "contrato.txt"), res.TextPath)

	rec, err := record.LoadSidecar(res.JSONPath)
	require.NoError(t, err)
	assert.Equal(t, res.Record.Pages, rec.Pages)

	_, err = os.Stat(res.TextPath)
	assert.NoError(t, err)
}

func TestProcessFileWithoutTextIsWarning(t *testing.T) {
	dir := t.TempDir()
	path := writePDF(t, dir, "blank.pdf")

	p := newTestPipeline(map[string][]string{"blank.pdf": {"", "!!"}}, nil)

	res := p.ProcessFile(context.Background(), path)
	require.NoError(t, res.Err)
	assert.Equal(t, StatusWarning, res.Status)
	assert.Empty(t, res.Record.Pages)
	assert.Equal(t, 2, res.Record.Info.TotalPages)
}

func TestProcessDirectory(t *testing.T) {
	dir := t.TempDir()
	writePDF(t, dir, "b.pdf")
	writePDF(t, dir, "A.PDF")
	writePDF(t, dir, "broken.pdf")
	writePDF(t, dir, "a_highlighted.pdf")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	writePDF(t, filepath.Join(dir, "sub"), "nested.pdf")

	var (
		mu    sync.Mutex
		seen  []string
		total int
	)
	p := newTestPipeline(map[string][]string{
		"A.PDF":      {"contrato"},
		"b.pdf":      {"??", "assinatura"},
		"nested.pdf": {"contrato"},
	}, nil, WithProgress(func(r FileResult) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, r.Filename)
	}), WithBatchStart(func(n int) { total = n }))
	p.cfg.Workers = 2

	summary, err := p.ProcessDirectory(context.Background(), dir)
	require.NoError(t, err)

	require.Len(t, summary.Results, 3)
	assert.Equal(t, 3, total)
	assert.Equal(t, "A.PDF", summary.Results[0].Filename)
	assert.Equal(t, "b.pdf", summary.Results[1].Filename)
	assert.Equal(t, "broken.pdf", summary.Results[2].Filename)
	for i, r := range summary.Results {
		assert.Equal(t, i, r.Index)
	}

	assert.Equal(t, StatusSuccess, summary.Results[0].Status)
	assert.Equal(t, StatusSuccess, summary.Results[1].Status)
	assert.Equal(t, 2, summary.Results[1].Record.Pages[0].PageNumber)
	assert.Equal(t, StatusError, summary.Results[2].Status)
	assert.ErrorIs(t, summary.Results[2].Err, raster.ErrRasterFailed)

	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.ElementsMatch(t, []string{"A.PDF", "b.pdf", "broken.pdf"}, seen)

	_, err = os.Stat(filepath.Join(dir, "A.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "broken.json"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "sub", "nested.json"))
	assert.True(t, os.IsNotExist(err), "subdirectories are not processed")
}

func TestProcessDirectoryCanceled(t *testing.T) {
	dir := t.TempDir()
	writePDF(t, dir, "a.pdf")
	writePDF(t, dir, "b.pdf")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newTestPipeline(map[string][]string{"a.pdf": {"contrato"}, "b.pdf": {"contrato"}}, nil)
	summary, err := p.ProcessDirectory(ctx, dir)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Skipped)
	for _, r := range summary.Results {
		assert.Equal(t, StatusSkipped, r.Status)
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestProcessDirectoryWithoutPDFs(t *testing.T) {
	p := newTestPipeline(nil, nil)

	_, err := p.ProcessDirectory(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, ErrNoPDFFiles)

	_, err = p.ProcessDirectory(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, ErrFileNotFound)
}
