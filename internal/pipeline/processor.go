package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/certpay/payroll-extractor/internal/payroll"
	"github.com/certpay/payroll-extractor/internal/pdftext"
)

// Processor coordinates text extraction then record parsing for one
// stored document.
type Processor struct {
	Logger *slog.Logger
	Text   *TextStage
	Parse  *ParseStage
}

func NewProcessor(logger *slog.Logger, text *TextStage, parse *ParseStage) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, Text: text, Parse: parse}
}

// ProcessDocument runs the text stage for a document (creating and
// advancing a parse_job), then parses records out of the page text.
// Returns the jobID started by the text stage.
func (p *Processor) ProcessDocument(ctx context.Context, documentID uuid.UUID) (uuid.UUID, error) {
	jobID, textRes, err := p.Text.Run(ctx, documentID)
	if err != nil {
		p.Logger.Error("processor.text.failed", "document_id", documentID, "err", err)
		return jobID, err
	}
	p.Logger.Info("processor.text.ok",
		"document_id", documentID,
		"job_id", jobID,
		"method", textRes.Method,
		"pages", len(textRes.Pages),
		"quality", textRes.Quality,
	)

	result, err := p.Parse.Run(ctx, jobID)
	if err != nil {
		p.Logger.Error("processor.parse.failed", "job_id", jobID, "err", err)
		return jobID, err
	}
	p.Logger.Info("processor.parse.ok", "job_id", jobID, "employees", len(result.Employees))
	return jobID, nil
}

// ExtractOnly runs both stages in memory without touching the job
// store, for synchronous API and CLI callers.
func ExtractOnly(ctx context.Context, tx pdftext.TextExtractor, parser RecordParser, path string) (*payroll.Result, pdftext.TextExtractionResult, error) {
	textRes, err := tx.Extract(ctx, path)
	if err != nil {
		return nil, textRes, err
	}
	return parser.Parse(textRes.Pages), textRes, nil
}
