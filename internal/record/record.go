// Package record defines the per-document output of the OCR pipeline and its
// JSON and plain-text sidecar encodings.
//
// A DocumentRecord holds the pages whose cleaned text was non-empty, so page
// numbers may have gaps; TotalPages always counts every rasterized page.
package record

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// PageRecord is the cleaned text of one page.
type PageRecord struct {
	PageNumber int    `json:"page_number"`
	Content    string `json:"content"`
	WordCount  int    `json:"word_count"`
}

// NewPageRecord builds a page record, deriving the word count from content.
func NewPageRecord(number int, content string) PageRecord {
	return PageRecord{
		PageNumber: number,
		Content:    content,
		WordCount:  len(strings.Fields(content)),
	}
}

// Info describes the source document.
type Info struct {
	Filename       string    `json:"filename"`
	Path           string    `json:"path"`
	ExtractionDate time.Time `json:"extraction_date"`
	TotalPages     int       `json:"total_pages"`
}

// DocumentRecord is the extraction result for one PDF.
type DocumentRecord struct {
	Info  Info         `json:"document_info"`
	Pages []PageRecord `json:"pages"`
}

// WordCount returns the number of words over all pages.
func (r *DocumentRecord) WordCount() int {
	total := 0
	for _, p := range r.Pages {
		total += p.WordCount
	}
	return total
}

// Page returns the page with the given number.
func (r *DocumentRecord) Page(number int) (PageRecord, bool) {
	for _, p := range r.Pages {
		if p.PageNumber == number {
			return p, true
		}
	}
	return PageRecord{}, false
}

// Validate checks the record invariants.
func (r *DocumentRecord) Validate() error {
	const op = "Validate"

	if r.Info.Filename == "" {
		return WrapRecordError(op, ErrInvalidRecord, "filename is empty")
	}
	if r.Info.TotalPages < 0 {
		return WrapRecordError(op, ErrInvalidRecord, fmt.Sprintf("total_pages is %d", r.Info.TotalPages))
	}

	prev := 0
	for _, p := range r.Pages {
		switch {
		case p.PageNumber < 1:
			return WrapRecordError(op, ErrInvalidRecord, fmt.Sprintf("page_number %d is below 1", p.PageNumber))
		case p.PageNumber <= prev:
			return WrapRecordError(op, ErrPageOrder, fmt.Sprintf("page %d after page %d", p.PageNumber, prev))
		case p.PageNumber > r.Info.TotalPages:
			return WrapRecordError(op, ErrInvalidRecord,
				fmt.Sprintf("page %d exceeds total_pages %d", p.PageNumber, r.Info.TotalPages))
		case strings.TrimSpace(p.Content) == "":
			return WrapRecordError(op, ErrEmptyContent, fmt.Sprintf("page %d", p.PageNumber))
		case p.WordCount != len(strings.Fields(p.Content)):
			return WrapRecordError(op, ErrInvalidRecord,
				fmt.Sprintf("page %d word_count %d does not match content", p.PageNumber, p.WordCount))
		}
		prev = p.PageNumber
	}
	return nil
}

// Builder accumulates pages for one document. It is not safe for concurrent
// use.
type Builder struct {
	info      Info
	pages     []PageRecord
	finalized bool
}

// NewBuilder starts a record for the PDF at pdfPath.
func NewBuilder(pdfPath string, now time.Time) *Builder {
	return &Builder{
		info: Info{
			Filename:       filepath.Base(pdfPath),
			Path:           pdfPath,
			ExtractionDate: now,
		},
		pages: []PageRecord{},
	}
}

// AddPage appends a page. Page numbers must be strictly increasing and the
// content non-empty.
func (b *Builder) AddPage(number int, content string) error {
	const op = "AddPage"

	if b.finalized {
		return WrapRecordError(op, ErrFinalized, b.info.Filename)
	}
	if number < 1 {
		return WrapRecordError(op, ErrInvalidRecord, fmt.Sprintf("page_number %d is below 1", number))
	}
	if n := len(b.pages); n > 0 && number <= b.pages[n-1].PageNumber {
		return WrapRecordError(op, ErrPageOrder, fmt.Sprintf("page %d after page %d", number, b.pages[n-1].PageNumber))
	}
	if strings.TrimSpace(content) == "" {
		return WrapRecordError(op, ErrEmptyContent, fmt.Sprintf("page %d", number))
	}

	b.pages = append(b.pages, NewPageRecord(number, content))
	return nil
}

// Finalize sets the page total and returns the validated record. The builder
// cannot be used afterwards.
func (b *Builder) Finalize(totalPages int) (*DocumentRecord, error) {
	const op = "Finalize"

	if b.finalized {
		return nil, WrapRecordError(op, ErrFinalized, b.info.Filename)
	}
	b.finalized = true

	info := b.info
	info.TotalPages = totalPages
	rec := &DocumentRecord{Info: info, Pages: b.pages}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}
