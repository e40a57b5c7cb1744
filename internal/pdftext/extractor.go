package pdftext

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/certpay/payroll-extractor/constants"
	"github.com/certpay/payroll-extractor/internal/common"
)

// Extraction strategies.
const (
	StrategyEmbedded  = "embedded"
	StrategyPdftotext = "pdftotext"
	StrategyAuto      = "auto"
)

// Method names recorded on results.
const (
	MethodEmbedded  = "pdf-embedded"
	MethodPdftotext = "pdftotext"
)

type Config struct {
	Strategy      string        // embedded | pdftotext | auto; auto tries embedded first
	PdftotextPath string        // binary name or absolute path; if empty -> "pdftotext"
	Timeout       time.Duration // per-document limit, default 60s
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyAuto
	}
	if cfg.PdftotextPath == "" {
		cfg.PdftotextPath = "pdftotext"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

// Extract returns per-page text for a PDF on disk. Pages without any
// extractable text are skipped; a document where every page is skipped
// yields an empty Pages slice and a nil error.
func (e *Extractor) Extract(ctx context.Context, path string) (TextExtractionResult, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	if !constants.IsAllowedExt(ext) {
		e.logger.Error("unsupported extension", "extension", ext)
		return TextExtractionResult{}, fmt.Errorf("unsupported extension: %q", ext)
	}

	ctx, cancel := common.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	e.logger.Debug("starting text extraction", "path", path, "strategy", e.cfg.Strategy)

	var (
		pages    []string
		warnings []string
		method   string
		err      error
	)

	switch e.cfg.Strategy {
	case StrategyEmbedded:
		method = MethodEmbedded
		pages, warnings, err = e.extractEmbedded(path)
	case StrategyPdftotext:
		method = MethodPdftotext
		pages, warnings, err = e.pdfToText(ctx, path)
	default: // auto
		method = MethodEmbedded
		pages, warnings, err = e.extractEmbedded(path)
		if err != nil || len(pages) == 0 {
			e.logger.Warn("embedded extraction yielded nothing, falling back to pdftotext",
				"path", path, "error", err)
			fbPages, fbWarns, fbErr := e.pdfToText(ctx, path)
			if fbErr == nil {
				method = MethodPdftotext
				pages, err = fbPages, nil
				warnings = append(warnings, fbWarns...)
			} else if err == nil {
				// document opened fine embedded, keep that outcome
				warnings = append(warnings, fbErr.Error())
			}
		}
	}
	if err != nil {
		e.logger.Error("text extraction failed", "path", path, "method", method, "error", err)
		return TextExtractionResult{Method: method, Warnings: warnings, Duration: time.Since(start)}, err
	}

	res := TextExtractionResult{
		Pages:    pages,
		Method:   method,
		Duration: time.Since(start),
		Warnings: warnings,
		Quality:  heuristicQuality(joinPages(pages)),
	}
	if len(pages) == 0 {
		res.Warnings = append(res.Warnings, "no pages with extractable text")
	}
	e.logger.Info("text extraction ok",
		"path", path, "method", method, "pages", len(pages),
		"quality", res.Quality, "duration_ms", res.Duration.Milliseconds())
	return res, nil
}
