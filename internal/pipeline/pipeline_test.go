package pipeline

import (
	"context"
	"crypto/sha256"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certpay/payroll-extractor/constants"
	"github.com/certpay/payroll-extractor/internal/common"
	"github.com/certpay/payroll-extractor/internal/payroll"
	"github.com/certpay/payroll-extractor/internal/pdftext"
	"github.com/certpay/payroll-extractor/internal/repository"
)

const testHeaderPage = `Job
I-43 INTERCHANGE PROJECT
Job Number: 22-1234`

const testEmployeePage = `Name / Address
JOHN A SMITH ***-**-1234
Hours Worked This Job`

type stubExtractor struct {
	res pdftext.TextExtractionResult
	err error
}

func (s *stubExtractor) Extract(_ context.Context, _ string) (pdftext.TextExtractionResult, error) {
	return s.res, s.err
}

type testEnv struct {
	docs repository.DocumentRepository
	jobs repository.ParseJobRepository
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	cfg := common.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          filepath.Join(t.TempDir(), "pipeline.db"),
		MaxOpenConns: 1,
		PingTimeout:  3 * time.Second,
	}
	db, err := repository.Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(context.Background()))
	return testEnv{
		docs: repository.NewDocumentRepository(db, nil),
		jobs: repository.NewParseJobRepository(db, nil),
	}
}

func newParser(t *testing.T) *payroll.Extractor {
	t.Helper()
	parser, err := payroll.NewExtractor(payroll.DefaultPatternSet(), nil)
	require.NoError(t, err)
	return parser
}

func TestProcessDocument(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	h := sha256.Sum256([]byte("payroll.pdf"))
	doc, err := env.docs.Create(ctx, "/drop/payroll.pdf", "payroll.pdf", "pdf", 128, h[:], time.Now())
	require.NoError(t, err)

	stub := &stubExtractor{res: pdftext.TextExtractionResult{
		Pages:  []string{testHeaderPage, testEmployeePage},
		Method: pdftext.MethodEmbedded,
	}}
	proc := NewProcessor(nil,
		NewTextStage(env.docs, env.jobs, stub, nil),
		NewParseStage(nil, env.jobs, newParser(t)),
	)

	jobID, err := proc.ProcessDocument(ctx, doc.ID)
	require.NoError(t, err)

	job, err := env.jobs.GetByID(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, string(constants.JobStatusParsed), job.Status)
	assert.Equal(t, 2, job.PageCount)
	assert.Equal(t, 1, job.EmployeeCount)
	require.NotNil(t, job.TextMethod)
	assert.Equal(t, pdftext.MethodEmbedded, *job.TextMethod)
	assert.Contains(t, string(job.ResultJSON), "JOHN A SMITH")
	assert.Contains(t, string(job.ResultJSON), "I-43 INTERCHANGE PROJECT")
	require.NotNil(t, job.FinishedAt)
}

func TestProcessDocumentExtractionFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	h := sha256.Sum256([]byte("bad.pdf"))
	doc, err := env.docs.Create(ctx, "/drop/bad.pdf", "bad.pdf", "pdf", 128, h[:], time.Now())
	require.NoError(t, err)

	stub := &stubExtractor{err: errors.New("document is not a readable PDF")}
	proc := NewProcessor(nil,
		NewTextStage(env.docs, env.jobs, stub, nil),
		NewParseStage(nil, env.jobs, newParser(t)),
	)

	jobID, err := proc.ProcessDocument(ctx, doc.ID)
	require.Error(t, err)

	job, err := env.jobs.GetByID(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, string(constants.JobStatusFailed), job.Status)
	require.NotNil(t, job.ErrorMessage)
	assert.Contains(t, *job.ErrorMessage, "not a readable PDF")
}

func TestTextStageRejectsUnsupportedFormat(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	h := sha256.Sum256([]byte("notes.txt"))
	doc, err := env.docs.Create(ctx, "/drop/notes.txt", "notes.txt", "txt", 16, h[:], time.Now())
	require.NoError(t, err)

	stage := NewTextStage(env.docs, env.jobs, &stubExtractor{}, nil)
	_, _, err = stage.Run(ctx, doc.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")

	jobs, err := env.jobs.ListByDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestParseStageRequiresTextOK(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	h := sha256.Sum256([]byte("pending.pdf"))
	doc, err := env.docs.Create(ctx, "/drop/pending.pdf", "pending.pdf", "pdf", 128, h[:], time.Now())
	require.NoError(t, err)

	job, err := env.jobs.Start(ctx, doc.ID, constants.FileTypePDF, string(constants.JobStatusRunning))
	require.NoError(t, err)

	stage := NewParseStage(nil, env.jobs, newParser(t))
	_, err = stage.Run(ctx, job.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not ready for parse")
}

func TestJoinSplitPagesRoundTrip(t *testing.T) {
	pages := []string{"page one", "page two", "page three"}
	assert.Equal(t, pages, SplitPages(JoinPages(pages)))

	assert.Nil(t, SplitPages(""))
	assert.Equal(t, []string{"only"}, SplitPages(JoinPages([]string{"only"})))
}

func TestExtractOnly(t *testing.T) {
	stub := &stubExtractor{res: pdftext.TextExtractionResult{
		Pages:  []string{testHeaderPage, testEmployeePage},
		Method: pdftext.MethodPdftotext,
	}}

	result, textRes, err := ExtractOnly(context.Background(), stub, newParser(t), "/tmp/anything.pdf")
	require.NoError(t, err)
	assert.Equal(t, pdftext.MethodPdftotext, textRes.Method)
	require.Len(t, result.Employees, 1)
	assert.Equal(t, "JOHN A SMITH", result.Employees[0].String("name"))
	assert.Equal(t, "I-43 INTERCHANGE PROJECT", result.JobInfo["job_name"])
}
