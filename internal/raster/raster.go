// Package raster renders PDF pages to PNG images for OCR and assembles
// highlighted copies of scanned documents.
//
// Two rasterizers are available: MuPDF through go-fitz (subpackage mupdf,
// needs cgo) and the poppler pdftoppm binary (Poppler). Page counts and PDF
// assembly use pdfcpu.
package raster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/png"
)

// DefaultDPI is the resolution pages are rendered at for OCR.
const DefaultDPI = 300

var (
	// ErrNoPages is returned when a document renders to zero pages.
	ErrNoPages = errors.New("document has no pages")

	// ErrRasterFailed is returned when a page cannot be rendered.
	ErrRasterFailed = errors.New("rasterization failed")

	// ErrInvalidDPI is returned for non-positive resolutions.
	ErrInvalidDPI = errors.New("invalid DPI")
)

// Page is one rendered page.
type Page struct {
	// Number is the 1-based page number.
	Number int

	// PNG is the encoded page image.
	PNG []byte

	Width  int
	Height int
}

// Rasterizer renders every page of a PDF.
type Rasterizer interface {
	// Rasterize returns the pages of the PDF at pdfPath in page order.
	Rasterize(ctx context.Context, pdfPath string, dpi int) ([]Page, error)
}

// NewPage builds a Page from PNG bytes, reading the dimensions from the
// image header.
func NewPage(number int, data []byte) (Page, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Page{}, fmt.Errorf("%w: page %d: decode header: %v", ErrRasterFailed, number, err)
	}
	return Page{Number: number, PNG: data, Width: cfg.Width, Height: cfg.Height}, nil
}

func checkDPI(dpi int) error {
	if dpi <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDPI, dpi)
	}
	return nil
}
