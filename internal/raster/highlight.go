package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/image/draw"
)

// HighlightColor is the translucent marker painted over matched words.
var HighlightColor = color.NRGBA{R: 255, G: 230, B: 0, A: 110}

// highlightPadding grows each box so the marker covers ascenders and
// descenders the OCR box clips.
const highlightPadding = 2

// Paint returns a copy of src with every box filled with c.
func Paint(src image.Image, boxes []image.Rectangle, c color.Color) *image.RGBA {
	bounds := src.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)

	fill := image.NewUniform(c)
	for _, box := range boxes {
		r := box.Inset(-highlightPadding).Intersect(bounds)
		if r.Empty() {
			continue
		}
		draw.Draw(dst, r, fill, image.Point{}, draw.Over)
	}
	return dst
}

// HighlightDocument writes a PDF made of pages, painting marks[page number]
// on the matching pages. The file is assembled under a temporary name next to
// outPath and renamed into place, so a failed run never leaves a partial PDF.
func HighlightDocument(pages []Page, marks map[int][]image.Rectangle, outPath string) error {
	const op = "HighlightDocument"

	if len(pages) == 0 {
		return fmt.Errorf("%s: %w", op, ErrNoPages)
	}

	work, err := os.MkdirTemp(filepath.Dir(outPath), ".highlight-*")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer os.RemoveAll(work)

	files := make([]string, 0, len(pages))
	for _, page := range pages {
		data := page.PNG
		if boxes := marks[page.Number]; len(boxes) > 0 {
			data, err = paintPNG(page.PNG, boxes)
			if err != nil {
				return fmt.Errorf("%s: page %d: %w", op, page.Number, err)
			}
		}
		name := filepath.Join(work, fmt.Sprintf("page-%05d.png", page.Number))
		if err := os.WriteFile(name, data, 0o600); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		files = append(files, name)
	}

	tmpOut := filepath.Join(work, "highlighted.pdf")
	if err := api.ImportImagesFile(files, tmpOut, pdfcpu.DefaultImportConfig(), model.NewDefaultConfiguration()); err != nil {
		return fmt.Errorf("%s: assemble pdf: %w", op, err)
	}

	if err := os.Rename(tmpOut, outPath); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func paintPNG(data []byte, boxes []image.Rectangle) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, Paint(img, boxes, HighlightColor)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
