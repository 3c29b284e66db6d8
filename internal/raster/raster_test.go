package raster

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func whitePNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNewPageReadsDimensions(t *testing.T) {
	p, err := NewPage(3, whitePNG(t, 40, 25))
	require.NoError(t, err)

	assert.Equal(t, 3, p.Number)
	assert.Equal(t, 40, p.Width)
	assert.Equal(t, 25, p.Height)

	_, err = NewPage(1, []byte("not an image"))
	assert.ErrorIs(t, err, ErrRasterFailed)
}

func TestCollectPagesOrdersNumerically(t *testing.T) {
	dir := t.TempDir()
	data := whitePNG(t, 4, 4)
	for _, name := range []string{"page-10.png", "page-02.png", "page-01.png", "other.png", "page-x.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
	}

	pages, err := collectPages(dir)
	require.NoError(t, err)

	require.Len(t, pages, 3)
	assert.Equal(t, 1, pages[0].Number)
	assert.Equal(t, 2, pages[1].Number)
	assert.Equal(t, 10, pages[2].Number)
}

func TestPopplerRejectsBadDPI(t *testing.T) {
	_, err := NewPoppler("").Rasterize(context.Background(), "doc.pdf", 0)
	assert.ErrorIs(t, err, ErrInvalidDPI)
}

func TestPaint(t *testing.T) {
	src, err := png.Decode(bytes.NewReader(whitePNG(t, 30, 30)))
	require.NoError(t, err)

	out := Paint(src, []image.Rectangle{image.Rect(10, 10, 15, 15), image.Rect(100, 100, 120, 120)}, HighlightColor)

	inside := color.RGBAModel.Convert(out.At(12, 12)).(color.RGBA)
	assert.Equal(t, uint8(255), inside.R)
	assert.Less(t, inside.B, uint8(255), "blue is reduced under the marker")

	padded := color.RGBAModel.Convert(out.At(9, 9)).(color.RGBA)
	assert.Less(t, padded.B, uint8(255), "boxes are padded")

	outside := color.RGBAModel.Convert(out.At(2, 2)).(color.RGBA)
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, outside)

	orig := color.RGBAModel.Convert(src.At(12, 12)).(color.RGBA)
	assert.Equal(t, uint8(255), orig.B, "the source image is not modified")
}

func TestHighlightDocument(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "doc_highlighted.pdf")

	p1, err := NewPage(1, whitePNG(t, 60, 80))
	require.NoError(t, err)
	p2, err := NewPage(2, whitePNG(t, 60, 80))
	require.NoError(t, err)

	err = HighlightDocument([]Page{p1, p2}, map[int][]image.Rectangle{2: {image.Rect(5, 5, 20, 12)}}, out)
	require.NoError(t, err)

	n, err := PageCount(out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	leftovers, err := filepath.Glob(filepath.Join(dir, ".highlight-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestHighlightDocumentWithoutPages(t *testing.T) {
	err := HighlightDocument(nil, nil, filepath.Join(t.TempDir(), "x.pdf"))
	assert.ErrorIs(t, err, ErrNoPages)
}
