package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/certpay/payroll-extractor/constants"
	"github.com/certpay/payroll-extractor/internal/pdftext"
	"github.com/certpay/payroll-extractor/internal/repository"
)

// TextStage extracts page text for a stored document and persists it
// on a fresh parse_job.
type TextStage struct {
	DocsRepo  repository.DocumentRepository
	JobsRepo  repository.ParseJobRepository
	Extractor pdftext.TextExtractor
	Log       *slog.Logger
}

func NewTextStage(docs repository.DocumentRepository, jobs repository.ParseJobRepository, tx pdftext.TextExtractor, log *slog.Logger) *TextStage {
	if log == nil {
		log = slog.Default()
	}
	return &TextStage{DocsRepo: docs, JobsRepo: jobs, Extractor: tx, Log: log}
}

// Run starts a parse_job in RUNNING, extracts text, and marks the job
// TEXT_OK (or FAILED). Returns the job ID and the extraction summary.
func (p *TextStage) Run(ctx context.Context, documentID uuid.UUID) (uuid.UUID, pdftext.TextExtractionResult, error) {
	row, err := p.DocsRepo.GetByID(ctx, documentID)
	if err != nil {
		return uuid.Nil, pdftext.TextExtractionResult{}, fmt.Errorf("get document: %w", err)
	}

	format := constants.MapExtToFormat(row.FileExt)
	if format == "" {
		return uuid.Nil, pdftext.TextExtractionResult{}, fmt.Errorf("unsupported format: %s", row.FileExt)
	}

	job, err := p.JobsRepo.Start(ctx, row.ID, format, string(constants.JobStatusRunning))
	if err != nil {
		return uuid.Nil, pdftext.TextExtractionResult{}, err
	}

	res, err := p.Extractor.Extract(ctx, row.SourcePath)
	if err != nil {
		_ = p.JobsRepo.FinishFailure(ctx, job.ID, err.Error())
		return job.ID, res, err
	}

	if err := p.JobsRepo.FinishTextSuccess(ctx, job.ID, JoinPages(res.Pages), res.Method, len(res.Pages)); err != nil {
		return job.ID, res, err
	}

	return job.ID, res, nil
}

// JoinPages packs page texts into the single-column storage form.
// Pages never contain a form feed, so SplitPages inverts it exactly.
func JoinPages(pages []string) string {
	return strings.Join(pages, "\f")
}

// SplitPages unpacks page text stored by JoinPages.
func SplitPages(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(text, "\f")
}
