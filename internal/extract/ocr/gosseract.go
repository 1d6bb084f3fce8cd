//go:build cgo

package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// GosseractEngine recognizes page images through a local Tesseract
// installation. A fresh client is created per call; gosseract clients are
// not safe for concurrent reuse.
type GosseractEngine struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// NewGosseractEngine creates a Tesseract-backed engine. With no languages
// given, Tesseract's default applies.
func NewGosseractEngine(languages ...string) *GosseractEngine {
	return &GosseractEngine{
		languages:     languages,
		clientFactory: gosseract.NewClient,
	}
}

func (e *GosseractEngine) Name() string { return "tesseract" }

// Recognize runs OCR over one rendered page image.
func (e *GosseractEngine) Recognize(ctx context.Context, image []byte) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	client := e.clientFactory()
	defer client.Close()

	if err := client.SetImageFromBytes(image); err != nil {
		return Result{}, fmt.Errorf("set image: %w", err)
	}
	if len(e.languages) > 0 {
		if err := client.SetLanguage(e.languages...); err != nil {
			return Result{}, fmt.Errorf("set languages: %w", err)
		}
	}

	text, err := client.Text()
	if err != nil {
		return Result{}, fmt.Errorf("recognize text: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	confidence := 0.0
	if err == nil && len(boxes) > 0 {
		var sum float64
		for _, b := range boxes {
			sum += b.Confidence / 100.0
		}
		confidence = sum / float64(len(boxes))
	}

	return Result{Text: strings.TrimSpace(text), Confidence: confidence}, nil
}
