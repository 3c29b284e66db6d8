package record

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRecord is returned when a record breaks one of its invariants.
	ErrInvalidRecord = errors.New("invalid document record")

	// ErrPageOrder is returned when pages are added out of order.
	ErrPageOrder = errors.New("page numbers must be strictly increasing")

	// ErrEmptyContent is returned when a page with no text is added.
	ErrEmptyContent = errors.New("page content is empty")

	// ErrFinalized is returned when a finalized builder is modified.
	ErrFinalized = errors.New("record already finalized")

	// ErrUnknownFormat is returned for sidecar files that are neither JSON nor TXT.
	ErrUnknownFormat = errors.New("unknown sidecar format")

	// ErrMalformedText is returned when a TXT sidecar does not follow the layout.
	ErrMalformedText = errors.New("malformed text sidecar")
)

// RecordError adds the failing operation and the file involved.
type RecordError struct {
	Op      string
	Err     error
	Details string
}

func (e *RecordError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("record: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("record: %s failed: %v", e.Op, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

func (e *RecordError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapRecordError wraps err unless it already is a RecordError.
func WrapRecordError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var recErr *RecordError
	if errors.As(err, &recErr) {
		return err
	}

	return &RecordError{Op: op, Err: err, Details: details}
}
