package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ocrsearch/internal/logger"
	"ocrsearch/internal/record"
	"ocrsearch/internal/sheets"
)

var exportCmd = &cobra.Command{
	Use:   "export [folder]",
	Short: "Append the records of a folder to a Google Sheet",
	Long: `Append one row per page of every JSON record in the folder to a Google
Sheet: Arquivo, Página, Palavras, Conteúdo and Extraído em. Pages already in
the sheet are skipped. The sheet tab is created with a bold header row when
missing.

Required environment variables:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string
  GOOGLE_SHEET_URL - Google Sheets URL to write to (or --sheet-url)`,
	Example: `  ocrsearch export ./scans
  ocrsearch export ./scans --sheet Contratos --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("sheet", sheets.DefaultSheetName, "Sheet tab name")
	exportCmd.Flags().String("sheet-url", "", "Google Sheets URL (default from GOOGLE_SHEET_URL)")
	exportCmd.Flags().Bool("dry-run", false, "Read the records but don't write to the sheet")
	exportCmd.Flags().Int("timeout", 300, "Timeout in seconds")
}

func runExport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("export")

	dir := args[0]
	sheetName, _ := cmd.Flags().GetString("sheet")
	sheetURL, _ := cmd.Flags().GetString("sheet-url")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")
	if sheetURL == "" {
		sheetURL = appConfig.GoogleSheetURL
	}

	paths, err := record.ListSidecars(dir, record.KindJSON)
	if err != nil {
		return fmt.Errorf("failed to list records: %w", err)
	}

	var recs []*record.DocumentRecord
	for _, path := range paths {
		rec, err := record.LoadSidecar(path)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("Skipping unreadable record")
			continue
		}
		recs = append(recs, rec)
	}
	rows := sheets.RecordRows(recs)

	fmt.Printf("Registros: %d\n", len(recs))
	fmt.Printf("Linhas: %d\n", len(rows))

	if dryRun || len(rows) == 0 {
		return nil
	}
	if sheetURL == "" {
		return fmt.Errorf("GOOGLE_SHEET_URL environment variable or --sheet-url is required")
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	fmt.Println("Escrevendo dados na planilha...")

	sheetsService, err := sheets.NewSheetsService(ctx, sheetURL)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create Google Sheets service")
		if errors.Is(err, sheets.ErrMissingCredentials) {
			return fmt.Errorf("Google Cloud credentials not configured. %s", credentialsHelp)
		}
		return fmt.Errorf("failed to create Google Sheets service: %w", err)
	}

	written, err := sheetsService.ExportRecords(ctx, recs, sheetName)
	if err != nil {
		return fmt.Errorf("failed to write to Google Sheet: %w", err)
	}

	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Planilha: %s\n", sheetName)
	fmt.Printf("Linhas adicionadas: %d\n", written)
	fmt.Printf("URL: %s\n", sheetURL)
	return nil
}
