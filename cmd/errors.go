package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"ocrsearch/internal/dictionary"
	"ocrsearch/internal/index"
	"ocrsearch/internal/ocr"
	"ocrsearch/internal/pipeline"
	"ocrsearch/internal/raster"
	"ocrsearch/internal/record"
)

const credentialsHelp = "Please set one of:\n\n" +
	"1. Export GOOGLE_APPLICATION_CREDENTIALS with path to service account JSON:\n" +
	"   export GOOGLE_APPLICATION_CREDENTIALS=/path/to/service-account-key.json\n\n" +
	"2. Export GOOGLE_CREDENTIALS with inline JSON:\n" +
	"   export GOOGLE_CREDENTIALS='{\"type\":\"service_account\",\"project_id\":\"your-project\",...}'\n\n" +
	"3. Use Application Default Credentials (if gcloud is configured):\n" +
	"   gcloud auth application-default login"

// credentialsError explains a failure to create a Google engine.
func credentialsError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Failed to create OCR engine")

	switch {
	case errors.Is(err, ocr.ErrMissingCredentials):
		return fmt.Errorf("Google Cloud credentials not configured. %s", credentialsHelp)
	case errors.Is(err, ocr.ErrInvalidConfiguration):
		return fmt.Errorf("OCR engine is not configured: %w", err)
	default:
		return fmt.Errorf("failed to create OCR engine: %w", err)
	}
}

// handleOCRError provides user-friendly error messages for processing failures
func handleOCRError(err error) string {
	errStr := err.Error()

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "processing timed out. Try increasing --timeout"
	case errors.Is(err, context.Canceled), errors.Is(err, ocr.ErrContextCanceled):
		return "processing was canceled"
	case errors.Is(err, pipeline.ErrFileNotFound):
		return "PDF file not found"
	case errors.Is(err, pipeline.ErrPermissionDenied):
		return "permission denied reading the PDF"
	case errors.Is(err, pipeline.ErrEmptyFile):
		return "PDF file is empty"
	case errors.Is(err, pipeline.ErrNotRegularFile):
		return "not a regular file"
	case errors.Is(err, raster.ErrNoPages):
		return "PDF has no pages"
	case errors.Is(err, raster.ErrRasterFailed):
		return "could not render the PDF pages. The file may be corrupted"
	case errors.Is(err, ocr.ErrTesseractUnavailable):
		return "Tesseract or its language data is not available"
	case errors.Is(err, ocr.ErrEmptyImage):
		return "a page rendered to an empty image"
	case strings.Contains(errStr, "Unauthenticated") ||
		strings.Contains(errStr, "invalid_grant") ||
		strings.Contains(errStr, "auth:") ||
		strings.Contains(errStr, "transport: per-RPC creds failed"):
		return "Google Cloud authentication failed. Check your credentials"
	case strings.Contains(errStr, "PERMISSION_DENIED"):
		return "permission denied by Google Cloud. Check the service account roles"
	case strings.Contains(errStr, "QUOTA_EXCEEDED") ||
		strings.Contains(errStr, "quota"):
		return "Google Cloud quota exceeded"
	case errors.Is(err, ocr.ErrOCRFailed):
		return fmt.Sprintf("OCR failed: %v", err)
	case errors.Is(err, record.ErrInvalidRecord):
		return fmt.Sprintf("invalid record: %v", err)
	default:
		return err.Error()
	}
}

// describeError turns errors of the search and index commands into messages.
func describeError(err error) error {
	switch {
	case errors.Is(err, index.ErrEmptyQuery):
		return fmt.Errorf("search term must not be empty")
	case errors.Is(err, index.ErrDocumentNotFound):
		return fmt.Errorf("document is not indexed: %w", err)
	case errors.Is(err, record.ErrUnknownFormat):
		return fmt.Errorf("unsupported sidecar, expected .json or .txt: %w", err)
	case errors.Is(err, record.ErrMalformedText):
		return fmt.Errorf("text sidecar does not follow the record layout: %w", err)
	case errors.Is(err, dictionary.ErrDictionaryNotFound):
		return fmt.Errorf("dictionary file not found. Set DICTIONARY_PATH or --dictionary: %w", err)
	default:
		return err
	}
}
