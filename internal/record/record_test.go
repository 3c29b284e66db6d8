package record

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func sampleRecord(t *testing.T) *DocumentRecord {
	t.Helper()

	b := NewBuilder("/data/scans/contrato.pdf", testTime)
	require.NoError(t, b.AddPage(1, "contrato de locação residencial"))
	require.NoError(t, b.AddPage(3, "assinatura das partes"))

	rec, err := b.Finalize(4)
	require.NoError(t, err)
	return rec
}

func TestNewPageRecordWordCount(t *testing.T) {
	tests := []struct {
		content string
		want    int
	}{
		{"casa", 1},
		{"casa porta", 2},
		{"  casa \t porta\nsol  ", 3},
		{"ação é válida", 3},
	}
	for _, tt := range tests {
		p := NewPageRecord(1, tt.content)
		assert.Equal(t, tt.want, p.WordCount, tt.content)
		assert.Equal(t, len(strings.Fields(p.Content)), p.WordCount)
	}
}

func TestBuilder(t *testing.T) {
	rec := sampleRecord(t)

	assert.Equal(t, "contrato.pdf", rec.Info.Filename)
	assert.Equal(t, "/data/scans/contrato.pdf", rec.Info.Path)
	assert.Equal(t, 4, rec.Info.TotalPages)
	require.Len(t, rec.Pages, 2)
	assert.Equal(t, 1, rec.Pages[0].PageNumber)
	assert.Equal(t, 3, rec.Pages[1].PageNumber, "gaps are preserved")
	assert.Equal(t, 7, rec.WordCount())

	p, ok := rec.Page(3)
	require.True(t, ok)
	assert.Equal(t, "assinatura das partes", p.Content)
	_, ok = rec.Page(2)
	assert.False(t, ok)
}

func TestBuilderRejectsBadPages(t *testing.T) {
	b := NewBuilder("doc.pdf", testTime)
	require.NoError(t, b.AddPage(2, "casa"))

	assert.ErrorIs(t, b.AddPage(2, "porta"), ErrPageOrder)
	assert.ErrorIs(t, b.AddPage(1, "porta"), ErrPageOrder)
	assert.ErrorIs(t, b.AddPage(3, "   "), ErrEmptyContent)
	assert.ErrorIs(t, b.AddPage(0, "porta"), ErrInvalidRecord)

	_, err := b.Finalize(1)
	assert.ErrorIs(t, err, ErrInvalidRecord, "page 2 exceeds total 1")

	assert.ErrorIs(t, b.AddPage(5, "sol"), ErrFinalized)
	_, err = b.Finalize(5)
	assert.ErrorIs(t, err, ErrFinalized)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*DocumentRecord)
		want   error
	}{
		{"valid", func(*DocumentRecord) {}, nil},
		{"no filename", func(r *DocumentRecord) { r.Info.Filename = "" }, ErrInvalidRecord},
		{"negative total", func(r *DocumentRecord) { r.Info.TotalPages = -1 }, ErrInvalidRecord},
		{"word count mismatch", func(r *DocumentRecord) { r.Pages[0].WordCount = 9 }, ErrInvalidRecord},
		{"out of order", func(r *DocumentRecord) { r.Pages[1].PageNumber = 1 }, ErrPageOrder},
		{"empty content", func(r *DocumentRecord) { r.Pages[1].Content = ""; r.Pages[1].WordCount = 0 }, ErrEmptyContent},
		{"page past total", func(r *DocumentRecord) { r.Info.TotalPages = 2 }, ErrInvalidRecord},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := sampleRecord(t)
			tt.mutate(rec)
			err := rec.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestJSONRoundTrip(t *testing.T) {
	rec := sampleRecord(t)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, rec))

	out := buf.String()
	assert.Contains(t, out, "\n    \"document_info\": {\n        \"filename\": \"contrato.pdf\"")
	assert.Contains(t, out, "locação", "non-ASCII is written verbatim")
	assert.Contains(t, out, `"extraction_date": "2024-03-15T10:30:00Z"`)
	assert.Less(t, strings.Index(out, "document_info"), strings.Index(out, "\"pages\""))

	got, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.True(t, got.Info.ExtractionDate.Equal(rec.Info.ExtractionDate))
	got.Info.ExtractionDate = rec.Info.ExtractionDate
	assert.Equal(t, rec, got)
}

func TestJSONEmptyPagesIsArray(t *testing.T) {
	rec, err := NewBuilder("vazio.pdf", testTime).Finalize(2)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, rec))
	assert.Contains(t, buf.String(), `"pages": []`)
}

func TestReadJSONAcceptsNaiveTimestamps(t *testing.T) {
	in := `{
    "document_info": {
        "filename": "a.pdf",
        "path": "C:\\Dev\\pdf\\a.pdf",
        "extraction_date": "2024-01-02T15:04:05.123456",
        "total_pages": 1
    },
    "pages": [
        {"page_number": 1, "content": "casa porta", "word_count": 2}
    ]
}`
	rec, err := ReadJSON(strings.NewReader(in))
	require.NoError(t, err)

	want := time.Date(2024, 1, 2, 15, 4, 5, 123456000, time.Local)
	assert.True(t, rec.Info.ExtractionDate.Equal(want))
	assert.Equal(t, `C:\Dev\pdf\a.pdf`, rec.Info.Path)
}

func TestReadJSONRejectsInvalidRecords(t *testing.T) {
	in := `{"document_info":{"filename":"a.pdf","path":"a.pdf","extraction_date":"2024-01-02T15:04:05","total_pages":1},
"pages":[{"page_number":1,"content":"casa porta","word_count":5}]}`

	_, err := ReadJSON(strings.NewReader(in))
	assert.ErrorIs(t, err, ErrInvalidRecord)

	_, err = ReadJSON(strings.NewReader(`{"document_info":{"extraction_date":"yesterday"}}`))
	assert.Error(t, err)
}

func TestWriteTextLayout(t *testing.T) {
	rec := sampleRecord(t)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, rec))

	want := "Document: contrato.pdf\n" +
		"Extraction Date: 2024-03-15T10:30:00Z\n" +
		strings.Repeat("-", 80) + "\n\n" +
		"Page 1\n" + strings.Repeat("-", 40) + "\n" +
		"contrato de locação residencial\n\n" +
		"Page 3\n" + strings.Repeat("-", 40) + "\n" +
		"assinatura das partes\n\n"
	assert.Equal(t, want, buf.String())
}

func TestTextRoundTrip(t *testing.T) {
	rec := sampleRecord(t)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, rec))

	got, err := ReadText(&buf, rec.Info.Path)
	require.NoError(t, err)

	assert.Equal(t, rec.Info.Filename, got.Info.Filename)
	assert.Equal(t, rec.Info.Path, got.Info.Path)
	assert.True(t, got.Info.ExtractionDate.Equal(rec.Info.ExtractionDate))
	assert.Equal(t, 3, got.Info.TotalPages, "text sidecars only know the last page")
	assert.Equal(t, rec.Pages, got.Pages)
}

func TestReadTextRejectsGarbage(t *testing.T) {
	_, err := ReadText(strings.NewReader("hello\nworld\n"), "x.pdf")
	assert.ErrorIs(t, err, ErrMalformedText)

	in := "Document: a.pdf\nExtraction Date: 2024-01-02T15:04:05\n" + strings.Repeat("-", 80) + "\n\nstray line\n"
	_, err = ReadText(strings.NewReader(in), "a.pdf")
	assert.ErrorIs(t, err, ErrMalformedText)
}

func TestSidecars(t *testing.T) {
	dir := t.TempDir()
	rec := sampleRecord(t)
	base := filepath.Join(dir, "contrato")

	jsonPath, txtPath, err := SaveSidecars(rec, base)
	require.NoError(t, err)
	assert.Equal(t, base+".json", jsonPath)
	assert.Equal(t, base+".txt", txtPath)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ReportFileName), []byte("report"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "contrato.pdf"), []byte("%PDF"), 0o644))

	jsons, err := ListSidecars(dir, KindJSON)
	require.NoError(t, err)
	assert.Equal(t, []string{jsonPath}, jsons)

	txts, err := ListSidecars(dir, KindText)
	require.NoError(t, err)
	assert.Equal(t, []string{txtPath}, txts, "the search report is not a sidecar")

	fromJSON, err := LoadSidecar(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, rec.Pages, fromJSON.Pages)

	fromText, err := LoadSidecar(txtPath)
	require.NoError(t, err)
	assert.Equal(t, base+".pdf", fromText.Info.Path)
	assert.Equal(t, rec.Pages, fromText.Pages)

	_, err = LoadSidecar(filepath.Join(dir, "contrato.pdf"))
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(".JSON")
	require.NoError(t, err)
	assert.Equal(t, KindJSON, k)

	k, err = ParseKind("txt")
	require.NoError(t, err)
	assert.Equal(t, KindText, k)

	_, err = ParseKind("pdf")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestWriteView(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteView(&buf, sampleRecord(t)))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Arquivo: contrato.pdf\n"))
	assert.Contains(t, out, "Total de Páginas: 4\n\n")
	assert.Contains(t, out, "Página 3\nPalavras: 3\nConteúdo:\nassinatura das partes\n"+strings.Repeat("-", 50)+"\n\n")
}
