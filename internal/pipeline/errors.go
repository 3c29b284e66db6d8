package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrFileNotFound is returned when the PDF does not exist.
	ErrFileNotFound = errors.New("PDF file not found")

	// ErrPermissionDenied is returned when the PDF cannot be accessed.
	ErrPermissionDenied = errors.New("permission denied accessing PDF file")

	// ErrNotRegularFile is returned for directories and other special files.
	ErrNotRegularFile = errors.New("path is not a regular file")

	// ErrEmptyFile is returned for zero-byte PDFs.
	ErrEmptyFile = errors.New("PDF file is empty")

	// ErrNoPDFFiles is returned when a directory contains no PDFs.
	ErrNoPDFFiles = errors.New("no PDF files found")
)

// ProcessingError records which document and page a failure belongs to.
type ProcessingError struct {
	Op   string
	File string
	// Page is the 1-based page number, 0 when the failure is not page specific.
	Page int
	Err  error
}

func (e *ProcessingError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("pipeline: %s failed: %s page %d: %v", e.Op, e.File, e.Page, e.Err)
	}
	return fmt.Sprintf("pipeline: %s failed: %s: %v", e.Op, e.File, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// WrapProcessingError wraps err unless it already is a ProcessingError.
func WrapProcessingError(op, file string, page int, err error) error {
	if err == nil {
		return nil
	}

	var procErr *ProcessingError
	if errors.As(err, &procErr) {
		return err
	}

	return &ProcessingError{Op: op, File: file, Page: page, Err: err}
}
