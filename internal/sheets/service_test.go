package sheets

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocrsearch/internal/record"
)

func TestExtractSpreadsheetID(t *testing.T) {
	id, err := extractSpreadsheetID("https://docs.google.com/spreadsheets/d/1AbC-d_EF/edit#gid=0")
	require.NoError(t, err)
	assert.Equal(t, "1AbC-d_EF", id)

	_, err = extractSpreadsheetID("https://example.com/sheet")
	assert.ErrorIs(t, err, ErrInvalidSheetURL)
}

func TestLoadCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	t.Setenv("GOOGLE_CREDENTIALS", "")
	_, err := loadCredentials()
	assert.ErrorIs(t, err, ErrMissingCredentials)

	t.Setenv("GOOGLE_CREDENTIALS", `{"type":"service_account"}`)
	creds, err := loadCredentials()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"service_account"}`, string(creds))
}

func TestRecordRows(t *testing.T) {
	b := record.NewBuilder("/docs/contrato.pdf", time.Date(2024, 3, 15, 14, 30, 5, 0, time.UTC))
	require.NoError(t, b.AddPage(1, "contrato locação"))
	require.NoError(t, b.AddPage(3, "assinatura"))
	rec, err := b.Finalize(3)
	require.NoError(t, err)

	rows := RecordRows([]*record.DocumentRecord{rec})

	require.Len(t, rows, 2)
	assert.Equal(t, []interface{}{"contrato.pdf", 1, 2, "contrato locação", "15/03/2024 14:30:05"}, rows[0])
	assert.Equal(t, 3, rows[1][1])
	assert.Len(t, rows[0], len(Headers))
}

func TestNewRowsSkipsExportedPages(t *testing.T) {
	rows := [][]interface{}{
		{"a.pdf", 1, 2, "casa porta", "x"},
		{"a.pdf", 2, 1, "mesa", "x"},
		{"b.pdf", 1, 1, "casa", "x"},
	}
	existing := [][]interface{}{
		{"a.pdf", "1"},
		{"b.pdf"},
	}

	out := newRows(rows, existing)

	require.Len(t, out, 2)
	assert.Equal(t, 2, out[0][1])
	assert.Equal(t, "b.pdf", out[1][0])
}

func TestTruncateCell(t *testing.T) {
	assert.Equal(t, "ação", truncateCell("ação"))

	long := strings.Repeat("ç", maxCellRunes+10)
	assert.Equal(t, maxCellRunes, len([]rune(truncateCell(long))))
}
