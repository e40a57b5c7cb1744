package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certpay/payroll-extractor/internal/async"
	"github.com/certpay/payroll-extractor/internal/common"
	"github.com/certpay/payroll-extractor/internal/ingest"
)

type fakeIngestor struct {
	pathResult ingest.IngestionResult
	pathErr    error
	dirResults []ingest.IngestionResult
	dirStats   ingest.DirStats
	dirErr     error

	gotPath       string
	gotRoot       string
	gotSkipHidden bool
}

func (f *fakeIngestor) IngestPath(_ context.Context, path string) (ingest.IngestionResult, error) {
	f.gotPath = path
	return f.pathResult, f.pathErr
}

func (f *fakeIngestor) IngestDirectory(_ context.Context, root string, skipHidden bool) ([]ingest.IngestionResult, ingest.DirStats, error) {
	f.gotRoot = root
	f.gotSkipHidden = skipHidden
	return f.dirResults, f.dirStats, f.dirErr
}

type fakeQueue struct {
	jobs []async.Job
	err  error
}

func (f *fakeQueue) Enqueue(_ context.Context, job async.Job) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeQueue) Shutdown(context.Context) {}

func TestIngestFile(t *testing.T) {
	ing := &fakeIngestor{pathResult: ingest.IngestionResult{
		SourcePath: "/data/wk1.pdf",
		DocumentID: uuid.NewString(),
	}}
	svc := NewService(ing, &fakeQueue{}, nil)

	r, err := svc.IngestFile(context.Background(), FileIngestRequest{Path: "  /data/wk1.pdf  "})
	require.NoError(t, err)
	assert.Equal(t, "/data/wk1.pdf", ing.gotPath)
	assert.Equal(t, ing.pathResult.DocumentID, r.DocumentID)
}

func TestIngestFileRequiresPath(t *testing.T) {
	svc := NewService(&fakeIngestor{}, &fakeQueue{}, nil)

	_, err := svc.IngestFile(context.Background(), FileIngestRequest{Path: "   "})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestIngestFileWrapsIngestorError(t *testing.T) {
	cause := errors.New("no such file")
	svc := NewService(&fakeIngestor{pathErr: cause}, &fakeQueue{}, nil)

	_, err := svc.IngestFile(context.Background(), FileIngestRequest{Path: "/data/missing.pdf"})
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
}

func TestIngestDirectory(t *testing.T) {
	ing := &fakeIngestor{
		dirResults: []ingest.IngestionResult{{SourcePath: "/data/a.pdf"}},
		dirStats:   ingest.DirStats{Scanned: 3, Matched: 1, Succeeded: 1},
	}
	svc := NewService(ing, &fakeQueue{}, nil)

	res, err := svc.IngestDirectory(context.Background(), DirectoryIngestRequest{RootPath: "/data"})
	require.NoError(t, err)
	assert.Equal(t, "/data", ing.gotRoot)
	assert.True(t, ing.gotSkipHidden, "hidden entries skipped by default")
	assert.Equal(t, uint32(1), res.Statistics.Succeeded)
	require.Len(t, res.Results, 1)
}

func TestIngestDirectoryIncludeHidden(t *testing.T) {
	ing := &fakeIngestor{}
	svc := NewService(ing, &fakeQueue{}, nil)

	_, err := svc.IngestDirectory(context.Background(), DirectoryIngestRequest{RootPath: "/data", IncludeHidden: true})
	require.NoError(t, err)
	assert.False(t, ing.gotSkipHidden)
}

func TestIngestDirectoryRequiresRoot(t *testing.T) {
	svc := NewService(&fakeIngestor{}, &fakeQueue{}, nil)

	_, err := svc.IngestDirectory(context.Background(), DirectoryIngestRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestProcessIngestedFileEnqueues(t *testing.T) {
	q := &fakeQueue{}
	svc := NewService(&fakeIngestor{}, q, nil)
	id := uuid.New()

	err := svc.ProcessIngestedFile(context.Background(), &ingest.IngestionResult{DocumentID: id.String()}, true)
	require.NoError(t, err)
	require.Len(t, q.jobs, 1)
	assert.Equal(t, id, q.jobs[0].DocumentID)
	assert.False(t, q.jobs[0].Force)
	assert.False(t, q.jobs[0].SubmittedAt.IsZero())
}

func TestProcessIngestedFileSkipsDuplicates(t *testing.T) {
	q := &fakeQueue{}
	svc := NewService(&fakeIngestor{}, q, nil)

	err := svc.ProcessIngestedFile(context.Background(), &ingest.IngestionResult{
		DocumentID:   uuid.NewString(),
		Deduplicated: true,
	}, true)
	require.NoError(t, err)
	assert.Empty(t, q.jobs)
}

func TestProcessIngestedFileForcesDuplicate(t *testing.T) {
	q := &fakeQueue{}
	svc := NewService(&fakeIngestor{}, q, nil)

	err := svc.ProcessIngestedFile(context.Background(), &ingest.IngestionResult{
		DocumentID:   uuid.NewString(),
		Deduplicated: true,
	}, false)
	require.NoError(t, err)
	require.Len(t, q.jobs, 1)
	assert.True(t, q.jobs[0].Force)
}

func TestProcessIngestedFileSkipsErrored(t *testing.T) {
	q := &fakeQueue{}
	svc := NewService(&fakeIngestor{}, q, nil)

	err := svc.ProcessIngestedFile(context.Background(), &ingest.IngestionResult{
		DocumentID: uuid.NewString(),
		Err:        "unreadable",
	}, true)
	require.NoError(t, err)
	assert.Empty(t, q.jobs)
}

func TestProcessIngestedFileRejectsBadID(t *testing.T) {
	svc := NewService(&fakeIngestor{}, &fakeQueue{}, nil)

	err := svc.ProcessIngestedFile(context.Background(), &ingest.IngestionResult{DocumentID: "not-a-uuid"}, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestProcessIngestedFileEnqueueError(t *testing.T) {
	q := &fakeQueue{err: errors.New("queue full")}
	svc := NewService(&fakeIngestor{}, q, nil)

	err := svc.ProcessIngestedFile(context.Background(), &ingest.IngestionResult{DocumentID: uuid.NewString()}, true)
	require.Error(t, err)

	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "INTERNAL", appErr.Code)
}
