package index

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery is returned when the search term is blank.
	ErrEmptyQuery = errors.New("search term is empty")

	// ErrDocumentNotFound is returned when a PDF path is not indexed.
	ErrDocumentNotFound = errors.New("document not indexed")
)

// IndexError adds the failing operation to a database error.
type IndexError struct {
	Op      string
	Err     error
	Details string
}

func (e *IndexError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("index: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("index: %s failed: %v", e.Op, e.Err)
}

func (e *IndexError) Unwrap() error {
	return e.Err
}

// WrapIndexError wraps err unless it already is an IndexError.
func WrapIndexError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var idxErr *IndexError
	if errors.As(err, &idxErr) {
		return err
	}

	return &IndexError{Op: op, Err: err, Details: details}
}
