// Package mupdf renders PDF pages with MuPDF through go-fitz. It needs cgo.
package mupdf

import (
	"context"
	"fmt"

	"github.com/gen2brain/go-fitz"

	"ocrsearch/internal/raster"
)

// Rasterizer implements raster.Rasterizer.
type Rasterizer struct{}

// New returns a MuPDF rasterizer.
func New() *Rasterizer { return &Rasterizer{} }

// Rasterize implements raster.Rasterizer. The document is closed before it
// returns.
func (r *Rasterizer) Rasterize(ctx context.Context, pdfPath string, dpi int) ([]raster.Page, error) {
	const op = "mupdf.Rasterize"

	if dpi <= 0 {
		return nil, fmt.Errorf("%s: %w: %d", op, raster.ErrInvalidDPI, dpi)
	}

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("%s: open %s: %w", op, pdfPath, err)
	}
	defer doc.Close()

	total := doc.NumPage()
	if total == 0 {
		return nil, fmt.Errorf("%s: %s: %w", op, pdfPath, raster.ErrNoPages)
	}

	pages := make([]raster.Page, 0, total)
	for n := 1; n <= total; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := doc.ImagePNG(n-1, float64(dpi))
		if err != nil {
			return nil, fmt.Errorf("%s: %w: page %d: %v", op, raster.ErrRasterFailed, n, err)
		}
		page, err := raster.NewPage(n, data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		pages = append(pages, page)
	}
	return pages, nil
}
