package pdftext

import (
	"context"
	"time"
)

// TextExtractor is Stage 1: document -> per-page text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Pages    []string // text of each page that yielded any, in document order
	Method   string   // "pdf-embedded" | "pdftotext"
	Duration time.Duration
	Warnings []string
	Quality  float32
}
