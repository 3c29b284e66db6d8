// Package ocr provides page-level OCR (Optical Character Recognition) behind a
// single Engine interface.
//
// Engines receive one rasterized page at a time as PNG bytes and return the
// recognized text together with word boxes in image pixel coordinates. The
// word boxes are what lets search hits be highlighted on scanned pages that
// carry no text layer.
//
// Available engines:
//   - tesseract (subpackage): local Tesseract through gosseract, the default
//   - VisionEngine: Google Cloud Vision DOCUMENT_TEXT_DETECTION
//   - DocumentAIEngine: Google Document AI OCR processor
//
// Google engines read credentials from the environment:
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
package ocr

import (
	"context"
	"image"
	"os"
	"strings"

	"google.golang.org/api/option"
)

// Engine recognizes text on page images.
type Engine interface {
	// Name identifies the engine in logs.
	Name() string

	// Recognize runs OCR on a single page image.
	Recognize(ctx context.Context, in Input) (*Result, error)

	// Close releases any client the engine holds.
	Close() error
}

// Input is one page image to recognize.
type Input struct {
	// Image is the encoded page image (PNG).
	Image []byte

	// PageIndex is the 0-based page index within the document.
	PageIndex int

	// DPI is the resolution the page was rasterized at.
	DPI int

	// Languages are Tesseract language codes, e.g. "por".
	Languages []string
}

// Word is a recognized word and its box in image pixels.
type Word struct {
	Text       string          `json:"text"`
	Box        image.Rectangle `json:"box"`
	Confidence float64         `json:"confidence"`
}

// Result is the OCR output for one page.
type Result struct {
	// Text is the raw recognized text in reading order.
	Text string `json:"text"`

	// Words are the individual words with their boxes. Engines that cannot
	// report boxes leave this empty.
	Words []Word `json:"words,omitempty"`

	// Confidence is the average word confidence (0.0 to 1.0).
	Confidence float64 `json:"confidence"`
}

// ValidateInput checks the parts of in every engine relies on.
func ValidateInput(op string, in Input) error {
	if len(in.Image) == 0 {
		return WrapOCRError(op, ErrEmptyImage, "")
	}
	return nil
}

// AverageConfidence returns the mean confidence of words, or 0 for none.
func AverageConfidence(words []Word) float64 {
	if len(words) == 0 {
		return 0
	}
	var sum float64
	for _, w := range words {
		sum += w.Confidence
	}
	return sum / float64(len(words))
}

// credentialOptions returns the client options for the Google credentials
// found in the environment, inline JSON first.
func credentialOptions() []option.ClientOption {
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(credJSON))}
	}
	if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		return []option.ClientOption{option.WithCredentialsFile(credFile)}
	}
	return nil
}

var bcp47 = map[string]string{
	"por": "pt",
	"eng": "en",
	"spa": "es",
	"fra": "fr",
	"deu": "de",
	"ita": "it",
}

// LanguageHints converts Tesseract language codes to the BCP-47 hints the
// Google APIs expect. Unknown codes are passed through unchanged.
func LanguageHints(langs []string) []string {
	var hints []string
	for _, l := range langs {
		l = strings.ToLower(strings.TrimSpace(l))
		if l == "" {
			continue
		}
		if h, ok := bcp47[l]; ok {
			l = h
		}
		hints = append(hints, l)
	}
	return hints
}
