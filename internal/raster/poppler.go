package raster

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"ocrsearch/internal/logger"
)

// Poppler renders pages with the pdftoppm binary.
type Poppler struct {
	binary string
	log    zerolog.Logger
}

// NewPoppler returns a rasterizer that runs binary, "pdftoppm" when empty.
func NewPoppler(binary string) *Poppler {
	if binary == "" {
		binary = "pdftoppm"
	}
	return &Poppler{
		binary: binary,
		log:    logger.WithComponent("raster-poppler"),
	}
}

// Rasterize implements Rasterizer.
func (p *Poppler) Rasterize(ctx context.Context, pdfPath string, dpi int) ([]Page, error) {
	const op = "Poppler.Rasterize"

	if err := checkDPI(dpi); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pages, err := p.run(ctx, pdfPath, dpi)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("%s: %s: %w", op, pdfPath, ErrNoPages)
	}

	if n, err := PageCount(pdfPath); err != nil {
		p.log.Debug().Err(err).Str("file", filepath.Base(pdfPath)).Msg("Page count unavailable")
	} else if n != len(pages) {
		p.log.Warn().
			Str("file", filepath.Base(pdfPath)).
			Int("rendered", len(pages)).
			Int("expected", n).
			Msg("Rendered page count differs from document page count")
	}

	return pages, nil
}

func (p *Poppler) run(ctx context.Context, pdfPath string, dpi int) ([]Page, error) {
	dir, err := os.MkdirTemp("", "ocrsearch-pdftoppm-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	args := []string{"-png", "-r", strconv.Itoa(dpi), pdfPath, filepath.Join(dir, "page")}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.binary, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: pdftoppm: %v: %s", ErrRasterFailed, err, strings.TrimSpace(stderr.String()))
	}

	return collectPages(dir)
}

// collectPages reads the page-N.png files pdftoppm wrote into dir, ordered by
// page number. pdftoppm zero-pads N to the width of the page count.
func collectPages(dir string) ([]Page, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type numbered struct {
		n    int
		path string
	}
	var files []numbered
	for _, e := range entries {
		n, ok := pageNumberFromName(e.Name())
		if e.IsDir() || !ok {
			continue
		}
		files = append(files, numbered{n: n, path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].n < files[j].n })

	pages := make([]Page, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f.path)
		if err != nil {
			return nil, err
		}
		page, err := NewPage(f.n, data)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, nil
}

func pageNumberFromName(name string) (int, bool) {
	if !strings.HasPrefix(name, "page-") || !strings.HasSuffix(name, ".png") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "page-"), ".png"))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
