package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/rs/zerolog"

	"ocrsearch/internal/logger"
)

// imageAnnotator is the subset of the Vision client the engine uses.
type imageAnnotator interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error)
	Close() error
}

// VisionEngine implements Engine using Google Cloud Vision API.
type VisionEngine struct {
	client imageAnnotator
	log    zerolog.Logger
}

// NewVisionEngine creates a Vision engine with credentials from environment.
// It expects either GOOGLE_APPLICATION_CREDENTIALS path or GOOGLE_CREDENTIALS JSON in env.
func NewVisionEngine(ctx context.Context) (*VisionEngine, error) {
	const op = "NewVisionEngine"

	opts := credentialOptions()
	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		if len(opts) == 0 {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapOCRError(op, err, "failed to create Vision client")
	}

	return newVisionEngine(client), nil
}

func newVisionEngine(client imageAnnotator) *VisionEngine {
	return &VisionEngine{
		client: client,
		log:    logger.WithComponent("ocr-vision"),
	}
}

// Name implements Engine.
func (g *VisionEngine) Name() string { return "vision" }

// Recognize implements Engine.
func (g *VisionEngine) Recognize(ctx context.Context, in Input) (*Result, error) {
	const op = "VisionEngine.Recognize"

	if err := ValidateInput(op, in); err != nil {
		return nil, err
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: in.Image},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
				ImageContext: &visionpb.ImageContext{
					LanguageHints: LanguageHints(in.Languages),
				},
			},
		},
	}

	resp, err := g.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, WrapOCRError(op, ErrContextCanceled, fmt.Sprintf("page %d", in.PageIndex+1))
		}
		return nil, WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}

	if len(resp.GetResponses()) == 0 {
		return nil, WrapOCRError(op, ErrOCRFailed, "no response from Vision API")
	}

	page := resp.GetResponses()[0]
	if page.GetError() != nil && page.GetError().GetMessage() != "" {
		return nil, WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API error: %s", page.GetError().GetMessage()))
	}

	result := visionResult(page.GetFullTextAnnotation())

	g.log.Debug().
		Int("page", in.PageIndex+1).
		Int("words", len(result.Words)).
		Float64("confidence", result.Confidence).
		Msg("Vision page recognized")

	return result, nil
}

// visionResult flattens the full-text annotation hierarchy into words.
func visionResult(annotation *visionpb.TextAnnotation) *Result {
	if annotation == nil {
		return &Result{}
	}

	var words []Word
	for _, page := range annotation.GetPages() {
		for _, block := range page.GetBlocks() {
			for _, paragraph := range block.GetParagraphs() {
				for _, word := range paragraph.GetWords() {
					var text strings.Builder
					for _, symbol := range word.GetSymbols() {
						text.WriteString(symbol.GetText())
					}
					if text.Len() == 0 {
						continue
					}
					words = append(words, Word{
						Text:       text.String(),
						Box:        verticesBox(word.GetBoundingBox().GetVertices()),
						Confidence: float64(word.GetConfidence()),
					})
				}
			}
		}
	}

	return &Result{
		Text:       annotation.GetText(),
		Words:      words,
		Confidence: AverageConfidence(words),
	}
}

func verticesBox(vertices []*visionpb.Vertex) image.Rectangle {
	if len(vertices) == 0 {
		return image.Rectangle{}
	}
	pts := make([]image.Point, 0, len(vertices))
	for _, v := range vertices {
		pts = append(pts, image.Pt(int(v.GetX()), int(v.GetY())))
	}
	return boundingRect(pts)
}

// boundingRect returns the smallest rectangle containing pts.
func boundingRect(pts []image.Point) image.Rectangle {
	if len(pts) == 0 {
		return image.Rectangle{}
	}
	r := image.Rectangle{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		r.Min.X = min(r.Min.X, p.X)
		r.Min.Y = min(r.Min.Y, p.Y)
		r.Max.X = max(r.Max.X, p.X)
		r.Max.Y = max(r.Max.Y, p.Y)
	}
	return r
}

// Close closes the underlying Vision client.
func (g *VisionEngine) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
