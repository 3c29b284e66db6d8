package ocr

import (
	"errors"
	"fmt"
)

var (
	// ErrOCRFailed means the engine could not recognize a page.
	ErrOCRFailed = errors.New("OCR processing failed")

	// ErrEmptyImage means a page image has no bytes.
	ErrEmptyImage = errors.New("page image is empty")

	// ErrMissingCredentials means neither GOOGLE_APPLICATION_CREDENTIALS nor
	// GOOGLE_CREDENTIALS is set for a Google engine.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials: set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS environment variable")

	// ErrInvalidConfiguration means an engine setting is missing or wrong, such
	// as the Document AI processor ID.
	ErrInvalidConfiguration = errors.New("invalid OCR engine configuration")

	// ErrTesseractUnavailable means Tesseract or its language data cannot be
	// loaded.
	ErrTesseractUnavailable = errors.New("tesseract is not available")

	ErrContextCanceled = errors.New("OCR processing was canceled")
)

// OCRError records the engine operation a failure happened in.
type OCRError struct {
	Op      string
	Err     error
	Details string
}

func (e *OCRError) Error() string {
	msg := "ocr: " + e.Op + " failed"
	if e.Details != "" {
		msg += ": " + e.Details
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *OCRError) Unwrap() error {
	return e.Err
}

func (e *OCRError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapOCRError returns err as an *OCRError. Errors that already are one pass
// through untouched so the innermost operation is reported.
func WrapOCRError(op string, err error, details string) error {
	if err == nil {
		return nil
	}
	var ocrErr *OCRError
	if errors.As(err, &ocrErr) {
		return err
	}
	return &OCRError{Op: op, Err: err, Details: details}
}
