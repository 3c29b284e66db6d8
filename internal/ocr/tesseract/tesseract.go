// Package tesseract implements ocr.Engine with the local Tesseract library
// through gosseract. It needs cgo and the Tesseract language data for every
// configured language.
package tesseract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog"

	"ocrsearch/internal/logger"
	"ocrsearch/internal/ocr"
)

// Engine implements ocr.Engine. A new gosseract client is created for every
// page and closed afterwards, so one Engine can serve concurrent documents.
type Engine struct {
	tessdataPrefix string
	languages      []string
	clientFactory  func() *gosseract.Client
	log            zerolog.Logger
}

// New returns a Tesseract engine. languages are used when an input does not
// name its own; tessdataPrefix may be empty to use the library default.
func New(tessdataPrefix string, languages ...string) *Engine {
	return &Engine{
		tessdataPrefix: tessdataPrefix,
		languages:      languages,
		clientFactory:  gosseract.NewClient,
		log:            logger.WithComponent("ocr-tesseract"),
	}
}

// CheckLanguages verifies that every configured language has trained data.
func (e *Engine) CheckLanguages() error {
	const op = "tesseract.CheckLanguages"

	available, err := e.availableLanguages()
	if err != nil {
		return ocr.WrapOCRError(op, ocr.ErrTesseractUnavailable, err.Error())
	}
	have := make(map[string]bool, len(available))
	for _, l := range available {
		have[l] = true
	}
	for _, l := range e.languages {
		if !have[l] {
			return ocr.WrapOCRError(op, ocr.ErrTesseractUnavailable, fmt.Sprintf("language %q is not installed", l))
		}
	}
	return nil
}

// availableLanguages lists trained data in the tessdata prefix, or in the
// library's default location when no prefix is set.
func (e *Engine) availableLanguages() ([]string, error) {
	if e.tessdataPrefix == "" {
		return gosseract.GetAvailableLanguages()
	}
	files, err := filepath.Glob(filepath.Join(e.tessdataPrefix, "*.traineddata"))
	if err != nil {
		return nil, err
	}
	langs := make([]string, 0, len(files))
	for _, f := range files {
		langs = append(langs, strings.TrimSuffix(filepath.Base(f), ".traineddata"))
	}
	return langs, nil
}

// Name implements ocr.Engine.
func (e *Engine) Name() string { return "tesseract" }

// Recognize implements ocr.Engine.
func (e *Engine) Recognize(ctx context.Context, in ocr.Input) (*ocr.Result, error) {
	const op = "tesseract.Recognize"

	if err := ocr.ValidateInput(op, in); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, ocr.WrapOCRError(op, ocr.ErrContextCanceled, err.Error())
	}

	c := e.clientFactory()
	defer c.Close()

	if e.tessdataPrefix != "" {
		if err := c.SetTessdataPrefix(e.tessdataPrefix); err != nil {
			return nil, ocr.WrapOCRError(op, ocr.ErrTesseractUnavailable, fmt.Sprintf("set tessdata prefix: %v", err))
		}
	}

	langs := in.Languages
	if len(langs) == 0 {
		langs = e.languages
	}
	if len(langs) > 0 {
		if err := c.SetLanguage(langs...); err != nil {
			return nil, ocr.WrapOCRError(op, ocr.ErrTesseractUnavailable, fmt.Sprintf("set languages: %v", err))
		}
	}
	if in.DPI > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(in.DPI)); err != nil {
			return nil, ocr.WrapOCRError(op, ocr.ErrOCRFailed, fmt.Sprintf("set dpi: %v", err))
		}
	}
	if err := c.SetImageFromBytes(in.Image); err != nil {
		return nil, ocr.WrapOCRError(op, ocr.ErrOCRFailed, fmt.Sprintf("set image: %v", err))
	}

	text, err := c.Text()
	if err != nil {
		return nil, ocr.WrapOCRError(op, ocr.ErrOCRFailed, fmt.Sprintf("page %d: %v", in.PageIndex+1, err))
	}

	words := extractWords(c)
	result := &ocr.Result{
		Text:       strings.TrimSpace(text),
		Words:      words,
		Confidence: ocr.AverageConfidence(words),
	}

	e.log.Debug().
		Int("page", in.PageIndex+1).
		Int("words", len(words)).
		Float64("confidence", result.Confidence).
		Msg("Tesseract page recognized")

	return result, nil
}

// extractWords reads word-level boxes. Tesseract reports confidence in
// percent; it is scaled to 0..1.
func extractWords(c *gosseract.Client) []ocr.Word {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return nil
	}
	words := make([]ocr.Word, 0, len(boxes))
	for _, b := range boxes {
		if strings.TrimSpace(b.Word) == "" {
			continue
		}
		words = append(words, ocr.Word{
			Text:       b.Word,
			Box:        b.Box,
			Confidence: b.Confidence / 100.0,
		})
	}
	return words
}

// Close implements ocr.Engine. Clients are per page, so there is nothing to
// release.
func (e *Engine) Close() error { return nil }
