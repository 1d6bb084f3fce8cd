// Package ocr estimates OCR benefit for image-dominant pages and exposes
// a pluggable recognition engine. The advisory layer never touches pixels
// itself.
package ocr

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by engines that cannot recognize anything.
// It is advisory: callers surface it without blocking text extraction.
var ErrUnavailable = errors.New("no ocr engine configured")

// Result is the recognized text of one page image.
type Result struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"` // 0..1
}

// Engine is the pixel-to-text strategy slot. Implementations are injected
// at orchestration time and are never hard-coded into the advisor.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, image []byte) (Result, error)
}

// NoOpEngine is the default when no external engine is supplied.
type NoOpEngine struct{}

func (NoOpEngine) Name() string { return "noop" }

func (NoOpEngine) Recognize(context.Context, []byte) (Result, error) {
	return Result{}, ErrUnavailable
}
