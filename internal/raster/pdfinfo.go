package raster

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PageCount returns the number of pages of the PDF at path.
func PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("PageCount: %s: %w", path, err)
	}
	return n, nil
}
