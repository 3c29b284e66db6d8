// Package sheets exports document records to a Google Sheet, one row per
// page.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"ocrsearch/internal/logger"
	"ocrsearch/internal/record"
)

// DefaultSheetName is the tab records are appended to.
const DefaultSheetName = "Documentos"

// maxCellRunes is the Google Sheets per-cell character limit.
const maxCellRunes = 50000

const dateLayout = "02/01/2006 15:04:05"

// Headers of the export columns A to E.
var Headers = []interface{}{"Arquivo", "Página", "Palavras", "Conteúdo", "Extraído em"}

var (
	// ErrMissingCredentials is returned when no service account is configured.
	ErrMissingCredentials = errors.New("neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is set")

	ErrInvalidSheetURL = errors.New("invalid Google Sheets URL format")
)

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// Service handles Google Sheets operations
type Service struct {
	sheetsService *sheets.Service
	spreadsheetID string
	log           zerolog.Logger
}

// NewSheetsService creates a new Google Sheets service
func NewSheetsService(ctx context.Context, sheetURL string) (*Service, error) {
	const op = "NewSheetsService"

	log := logger.WithComponent("sheets")

	spreadsheetID, err := extractSpreadsheetID(sheetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Debug().Str("spreadsheet_id", spreadsheetID).Msg("Extracted spreadsheet ID")

	creds, err := loadCredentials()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	config, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse credentials: %w", op, err)
	}

	client := config.Client(ctx)
	sheetsService, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create sheets service: %w", op, err)
	}

	return &Service{
		sheetsService: sheetsService,
		spreadsheetID: spreadsheetID,
		log:           log,
	}, nil
}

// loadCredentials reads the service account JSON from the file named by
// GOOGLE_APPLICATION_CREDENTIALS or inline from GOOGLE_CREDENTIALS.
func loadCredentials() ([]byte, error) {
	if path := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		return data, nil
	}
	if inline := os.Getenv("GOOGLE_CREDENTIALS"); inline != "" {
		return []byte(inline), nil
	}
	return nil, ErrMissingCredentials
}

// extractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL
func extractSpreadsheetID(url string) (string, error) {
	matches := spreadsheetIDPattern.FindStringSubmatch(url)
	if len(matches) < 2 {
		return "", fmt.Errorf("%w: %s", ErrInvalidSheetURL, url)
	}
	return matches[1], nil
}

// ExportRecords appends one row per page of recs to sheetName. Pages whose
// file and page number are already in the sheet are skipped. It returns the
// number of rows written.
func (s *Service) ExportRecords(ctx context.Context, recs []*record.DocumentRecord, sheetName string) (int, error) {
	const op = "ExportRecords"

	if err := s.ensureSheetWithHeaders(ctx, sheetName); err != nil {
		return 0, fmt.Errorf("%s: failed to ensure sheet exists: %w", op, err)
	}

	existing, err := s.ReadRange(ctx, sheetName+"!A2:B")
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	values := newRows(RecordRows(recs), existing)
	if len(values) == 0 {
		s.log.Info().Str("sheet", sheetName).Msg("Nothing new to export")
		return 0, nil
	}

	s.log.Info().
		Str("sheet", sheetName).
		Int("rows", len(values)).
		Msg("Writing records to Google Sheet")

	valueRange := &sheets.ValueRange{Values: values}
	_, err = s.sheetsService.Spreadsheets.Values.Append(
		s.spreadsheetID,
		sheetName+"!A:E",
		valueRange,
	).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to append values to sheet: %w", op, err)
	}

	s.log.Info().
		Int("rows_written", len(values)).
		Msg("Successfully wrote records to Google Sheet")

	return len(values), nil
}

// RecordRows converts records to sheet rows, one per page.
func RecordRows(recs []*record.DocumentRecord) [][]interface{} {
	var rows [][]interface{}
	for _, rec := range recs {
		extracted := rec.Info.ExtractionDate.Format(dateLayout)
		for _, page := range rec.Pages {
			rows = append(rows, []interface{}{
				rec.Info.Filename,          // A: Arquivo
				page.PageNumber,            // B: Página
				page.WordCount,             // C: Palavras
				truncateCell(page.Content), // D: Conteúdo
				extracted,                  // E: Extraído em
			})
		}
	}
	return rows
}

// newRows drops rows whose file and page are already among existing.
func newRows(rows, existing [][]interface{}) [][]interface{} {
	seen := make(map[string]bool, len(existing))
	for _, r := range existing {
		if len(r) < 2 {
			continue
		}
		seen[rowKey(r[0], r[1])] = true
	}

	var out [][]interface{}
	for _, r := range rows {
		if !seen[rowKey(r[0], r[1])] {
			out = append(out, r)
		}
	}
	return out
}

func rowKey(file, page interface{}) string {
	var p string
	switch v := page.(type) {
	case int:
		p = strconv.Itoa(v)
	default:
		p = fmt.Sprint(v)
	}
	return fmt.Sprint(file) + "\x00" + p
}

func truncateCell(s string) string {
	if utf8.RuneCountInString(s) <= maxCellRunes {
		return s
	}
	return string([]rune(s)[:maxCellRunes])
}

// ensureSheetWithHeaders ensures the sheet exists and has proper headers
func (s *Service) ensureSheetWithHeaders(ctx context.Context, sheetName string) error {
	const op = "ensureSheetWithHeaders"

	spreadsheet, err := s.sheetsService.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to get spreadsheet: %w", op, err)
	}

	var sheetExists bool
	var sheetID int64
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties.Title == sheetName {
			sheetExists = true
			sheetID = sheet.Properties.SheetId
			break
		}
	}

	if !sheetExists {
		s.log.Info().Str("sheet", sheetName).Msg("Creating new sheet")

		batchUpdateReq := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{
				{AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: sheetName},
				}},
			},
		}

		resp, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, batchUpdateReq).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("%s: failed to create sheet: %w", op, err)
		}
		sheetID = resp.Replies[0].AddSheet.Properties.SheetId
	}

	headerRange := fmt.Sprintf("%s!A1:E1", sheetName)
	resp, err := s.sheetsService.Spreadsheets.Values.Get(s.spreadsheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to get headers: %w", op, err)
	}

	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		s.log.Info().Str("sheet", sheetName).Msg("Adding headers to sheet")

		valueRange := &sheets.ValueRange{Values: [][]interface{}{Headers}}
		_, err = s.sheetsService.Spreadsheets.Values.Update(
			s.spreadsheetID,
			headerRange,
			valueRange,
		).ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("%s: failed to add headers: %w", op, err)
		}

		if err := s.formatHeaders(ctx, sheetID); err != nil {
			s.log.Warn().Err(err).Msg("Failed to format headers, continuing anyway")
		}
	}

	return nil
}

// formatHeaders makes the header row bold and sizes the columns
func (s *Service) formatHeaders(ctx context.Context, sheetID int64) error {
	const op = "formatHeaders"
	columns := int64(len(Headers))

	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   columns,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
						BackgroundColor: &sheets.Color{
							Red:   0.9,
							Green: 0.9,
							Blue:  0.9,
						},
					},
				},
				Fields: "userEnteredFormat(textFormat,backgroundColor)",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   columns,
				},
			},
		},
	}

	batchUpdateReq := &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}
	_, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, batchUpdateReq).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to format headers: %w", op, err)
	}

	return nil
}

// ReadRange reads values from a specified range in the spreadsheet
func (s *Service) ReadRange(ctx context.Context, rangeSpec string) ([][]interface{}, error) {
	const op = "ReadRange"

	s.log.Debug().
		Str("range", rangeSpec).
		Msg("Reading range from spreadsheet")

	resp, err := s.sheetsService.Spreadsheets.Values.Get(s.spreadsheetID, rangeSpec).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read range %s: %w", op, rangeSpec, err)
	}

	return resp.Values, nil
}
