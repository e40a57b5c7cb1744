package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/certpay/payroll-extractor/constants"
	"github.com/certpay/payroll-extractor/internal/payroll"
	"github.com/certpay/payroll-extractor/internal/repository"
)

// RecordParser turns page texts into the structured payroll result.
type RecordParser interface {
	Parse(pages []string) *payroll.Result
}

// ParseStage runs record extraction over the page text persisted by
// the text stage and stores the structured result on the job.
type ParseStage struct {
	Logger   *slog.Logger
	JobsRepo repository.ParseJobRepository
	Parser   RecordParser
}

func NewParseStage(logger *slog.Logger, jobs repository.ParseJobRepository, parser RecordParser) *ParseStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParseStage{Logger: logger, JobsRepo: jobs, Parser: parser}
}

// Run executes record extraction for an existing TEXT_OK job.
// Effects: writes result_json and employee_count, marks PARSED.
func (p *ParseStage) Run(ctx context.Context, jobID uuid.UUID) (*payroll.Result, error) {
	job, err := p.JobsRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("load job: %w", err)
	}
	if job.Status != string(constants.JobStatusTextOK) || job.PageText == nil {
		return nil, fmt.Errorf("job not ready for parse: status=%s page_text_empty=%t",
			job.Status, job.PageText == nil)
	}

	pages := SplitPages(*job.PageText)
	p.Logger.Info("parse.start", "job_id", job.ID, "pages", len(pages))

	result := p.Parser.Parse(pages)

	raw, err := json.Marshal(result)
	if err != nil {
		_ = p.JobsRepo.FinishFailure(ctx, job.ID, err.Error())
		return nil, fmt.Errorf("encode result: %w", err)
	}

	if err := p.JobsRepo.FinishParseSuccess(ctx, job.ID, raw, len(result.Employees)); err != nil {
		return nil, err
	}

	p.Logger.Info("parse.ok",
		"job_id", job.ID,
		"employees", len(result.Employees),
		"job_info_fields", len(result.JobInfo),
	)
	return result, nil
}
