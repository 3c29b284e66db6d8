package ocr

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/googleapis/gax-go/v2"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"ocrsearch/internal/logger"
)

// DocumentAIConfig selects the Document AI OCR processor.
type DocumentAIConfig struct {
	ProjectID   string
	Location    string
	ProcessorID string
	Timeout     time.Duration
}

// ProcessorName returns the full resource name of the processor.
func (c DocumentAIConfig) ProcessorName() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s", c.ProjectID, c.Location, c.ProcessorID)
}

type documentProcessor interface {
	ProcessDocument(ctx context.Context, req *documentaipb.ProcessRequest, opts ...gax.CallOption) (*documentaipb.ProcessResponse, error)
	Close() error
}

// DocumentAIEngine implements Engine using a Google Document AI OCR processor.
type DocumentAIEngine struct {
	client documentProcessor
	config DocumentAIConfig
	log    zerolog.Logger
}

// NewDocumentAIEngine creates the engine. ProjectID and ProcessorID are
// required; Location defaults to "us".
func NewDocumentAIEngine(ctx context.Context, cfg DocumentAIConfig) (*DocumentAIEngine, error) {
	const op = "NewDocumentAIEngine"

	if cfg.ProjectID == "" {
		return nil, WrapOCRError(op, ErrInvalidConfiguration, "GOOGLE_CLOUD_PROJECT is required")
	}
	if cfg.ProcessorID == "" {
		return nil, WrapOCRError(op, ErrInvalidConfiguration, "DOCUMENT_AI_PROCESSOR_ID is required")
	}
	if cfg.Location == "" {
		cfg.Location = "us"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	var clientOptions []option.ClientOption
	if cfg.Location != "us" {
		endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location)
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}
	creds := credentialOptions()
	clientOptions = append(clientOptions, creds...)

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		if len(creds) == 0 {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapOCRError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", cfg.Location))
	}

	return newDocumentAIEngine(client, cfg), nil
}

func newDocumentAIEngine(client documentProcessor, cfg DocumentAIConfig) *DocumentAIEngine {
	return &DocumentAIEngine{
		client: client,
		config: cfg,
		log:    logger.WithComponent("ocr-documentai"),
	}
}

// Name implements Engine.
func (p *DocumentAIEngine) Name() string { return "documentai" }

// Recognize implements Engine.
func (p *DocumentAIEngine) Recognize(ctx context.Context, in Input) (*Result, error) {
	const op = "DocumentAIEngine.Recognize"

	if err := ValidateInput(op, in); err != nil {
		return nil, err
	}

	processCtx := ctx
	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		processCtx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	req := &documentaipb.ProcessRequest{
		Name: p.config.ProcessorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  in.Image,
				MimeType: "image/png",
			},
		},
	}

	resp, err := p.client.ProcessDocument(processCtx, req)
	if err != nil {
		return nil, p.handleProcessingError(op, err)
	}
	if resp.GetDocument() == nil {
		return nil, WrapOCRError(op, ErrOCRFailed, "no document in response")
	}

	result := documentResult(resp.GetDocument())

	p.log.Debug().
		Int("page", in.PageIndex+1).
		Int("words", len(result.Words)).
		Msg("Document AI page recognized")

	return result, nil
}

// handleProcessingError maps Document AI errors onto the package errors.
func (p *DocumentAIEngine) handleProcessingError(op string, err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "PERMISSION_DENIED"), strings.Contains(errStr, "PermissionDenied"):
		return WrapOCRError(op, ErrMissingCredentials, "insufficient permissions for Document AI")
	case strings.Contains(errStr, "NOT_FOUND"), strings.Contains(errStr, "NotFound"):
		return WrapOCRError(op, ErrInvalidConfiguration, fmt.Sprintf("processor not found: %s", p.config.ProcessorID))
	case strings.Contains(errStr, "context canceled"), strings.Contains(errStr, "Canceled"):
		return WrapOCRError(op, ErrContextCanceled, "processing was canceled")
	case strings.Contains(errStr, "context deadline exceeded"), strings.Contains(errStr, "DeadlineExceeded"):
		return WrapOCRError(op, context.DeadlineExceeded, "processing timeout")
	default:
		return WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Document AI error: %v", err))
	}
}

// documentResult collects the tokens of every page. Token boxes are given in
// normalized coordinates and are scaled by the page dimension.
func documentResult(doc *documentaipb.Document) *Result {
	text := doc.GetText()
	runes := []rune(text)

	var words []Word
	for _, page := range doc.GetPages() {
		width := float64(page.GetDimension().GetWidth())
		height := float64(page.GetDimension().GetHeight())

		for _, token := range page.GetTokens() {
			layout := token.GetLayout()
			w := strings.TrimSpace(anchorText(runes, layout.GetTextAnchor()))
			if w == "" {
				continue
			}
			words = append(words, Word{
				Text:       w,
				Box:        normalizedBox(layout.GetBoundingPoly().GetNormalizedVertices(), width, height),
				Confidence: float64(layout.GetConfidence()),
			})
		}
	}

	return &Result{
		Text:       text,
		Words:      words,
		Confidence: AverageConfidence(words),
	}
}

// anchorText resolves a text anchor against the document text. Offsets
// count characters, not bytes.
func anchorText(text []rune, anchor *documentaipb.Document_TextAnchor) string {
	var b strings.Builder
	for _, seg := range anchor.GetTextSegments() {
		start, end := int(seg.GetStartIndex()), int(seg.GetEndIndex())
		if start < 0 || end > len(text) || start >= end {
			continue
		}
		b.WriteString(string(text[start:end]))
	}
	return b.String()
}

func normalizedBox(vertices []*documentaipb.NormalizedVertex, width, height float64) image.Rectangle {
	pts := make([]image.Point, 0, len(vertices))
	for _, v := range vertices {
		pts = append(pts, image.Pt(int(float64(v.GetX())*width+0.5), int(float64(v.GetY())*height+0.5)))
	}
	return boundingRect(pts)
}

// Close closes the underlying Document AI client.
func (p *DocumentAIEngine) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}
