package ocr

import (
	"context"
	"errors"
	"strings"
)

// Result is the outcome of one OCR pass over a stored document.
type Result struct {
	Text       string
	LineCount  int
	WordCount  int
	Confidence float64 // 0-100
}

// Engine converts a stored document's bytes to text.
type Engine interface {
	DetectText(ctx context.Context, storageKey string, contentType string) (Result, error)
}

// ErrEmptyOutput is returned when the engine produced no usable text.
var ErrEmptyOutput = errors.New("ocr produced no text")

// CountWords returns the whitespace-separated word count of text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}
