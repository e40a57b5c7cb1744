package repository

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certpay/payroll-extractor/constants"
	"github.com/certpay/payroll-extractor/internal/common"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	cfg := common.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  3 * time.Second,
	}
	db, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func hashOf(s string) []byte {
	h := sha256.Sum256([]byte(s))
	return h[:]
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Migrate(context.Background()))
}

func TestRebind(t *testing.T) {
	pg := &DB{driver: "pgx"}
	assert.Equal(t, "a = $1 AND b = $2", pg.rebind("a = ? AND b = ?"))

	lite := &DB{driver: "sqlite"}
	assert.Equal(t, "a = ? AND b = ?", lite.rebind("a = ? AND b = ?"))
}

func TestDriverName(t *testing.T) {
	name, err := driverName("sqlite")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", name)

	name, err = driverName("postgres")
	require.NoError(t, err)
	assert.Equal(t, "pgx", name)

	_, err = driverName("oracle")
	assert.Error(t, err)
}

func TestDocumentCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewDocumentRepository(db, nil)
	ctx := context.Background()

	uploaded := time.Now().UTC()
	doc, err := repo.Create(ctx, "/drop/payroll.pdf", "payroll.pdf", "pdf", 2048, hashOf("a"), uploaded)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, doc.ID)

	got, err := repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, "/drop/payroll.pdf", got.SourcePath)
	assert.Equal(t, "payroll.pdf", got.Filename)
	assert.Equal(t, "pdf", got.FileExt)
	assert.Equal(t, 2048, got.FileSize)
	assert.Equal(t, hashOf("a"), got.ContentHash)
	assert.WithinDuration(t, uploaded, got.UploadedAt, time.Second)

	byHash, err := repo.GetByHash(ctx, hashOf("a"))
	require.NoError(t, err)
	assert.Equal(t, doc.ID, byHash.ID)
}

func TestDocumentGetMissing(t *testing.T) {
	db := newTestDB(t)
	repo := NewDocumentRepository(db, nil)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = repo.GetByHash(ctx, hashOf("nope"))
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDocumentUpsertByHash(t *testing.T) {
	db := newTestDB(t)
	repo := NewDocumentRepository(db, nil)
	ctx := context.Background()

	first, existed, err := repo.UpsertByHash(ctx, "/drop/a.pdf", "a.pdf", "pdf", 10, hashOf("same"), time.Now())
	require.NoError(t, err)
	assert.False(t, existed)

	second, existed, err := repo.UpsertByHash(ctx, "/other/copy.pdf", "copy.pdf", "pdf", 10, hashOf("same"), time.Now())
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, first.ID, second.ID)
	// The original row wins; the duplicate's path is not recorded.
	assert.Equal(t, "/drop/a.pdf", second.SourcePath)

	third, existed, err := repo.UpsertByHash(ctx, "/drop/b.pdf", "b.pdf", "pdf", 11, hashOf("different"), time.Now())
	require.NoError(t, err)
	assert.False(t, existed)
	assert.NotEqual(t, first.ID, third.ID)
}

func TestDocumentList(t *testing.T) {
	db := newTestDB(t)
	repo := NewDocumentRepository(db, nil)
	ctx := context.Background()

	older := time.Now().UTC().Add(-time.Hour)
	newer := time.Now().UTC()
	_, err := repo.Create(ctx, "/drop/old.pdf", "old.pdf", "pdf", 1, hashOf("old"), older)
	require.NoError(t, err)
	_, err = repo.Create(ctx, "/drop/new.pdf", "new.pdf", "pdf", 2, hashOf("new"), newer)
	require.NoError(t, err)

	docs, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "new.pdf", docs[0].Filename)
	assert.Equal(t, "old.pdf", docs[1].Filename)

	one, err := repo.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "new.pdf", one[0].Filename)
}

func TestParseJobLifecycle(t *testing.T) {
	db := newTestDB(t)
	docs := NewDocumentRepository(db, nil)
	jobs := NewParseJobRepository(db, nil)
	ctx := context.Background()

	doc, err := docs.Create(ctx, "/drop/a.pdf", "a.pdf", "pdf", 10, hashOf("a"), time.Now())
	require.NoError(t, err)

	job, err := jobs.Start(ctx, doc.ID, "PDF", string(constants.JobStatusQueued))
	require.NoError(t, err)
	assert.Equal(t, string(constants.JobStatusQueued), job.Status)

	require.NoError(t, jobs.SetStatus(ctx, job.ID, string(constants.JobStatusRunning)))

	require.NoError(t, jobs.FinishTextSuccess(ctx, job.ID, "page one text", "pdf-embedded", 1))

	got, err := jobs.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, string(constants.JobStatusTextOK), got.Status)
	require.NotNil(t, got.TextMethod)
	assert.Equal(t, "pdf-embedded", *got.TextMethod)
	require.NotNil(t, got.PageText)
	assert.Equal(t, "page one text", *got.PageText)
	assert.Equal(t, 1, got.PageCount)
	assert.Nil(t, got.FinishedAt)

	result := json.RawMessage(`{"job_info":{},"employees":[]}`)
	require.NoError(t, jobs.FinishParseSuccess(ctx, job.ID, result, 3))

	got, err = jobs.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, string(constants.JobStatusParsed), got.Status)
	assert.Equal(t, 3, got.EmployeeCount)
	assert.JSONEq(t, string(result), string(got.ResultJSON))
	require.NotNil(t, got.FinishedAt)
}

func TestParseJobFailure(t *testing.T) {
	db := newTestDB(t)
	docs := NewDocumentRepository(db, nil)
	jobs := NewParseJobRepository(db, nil)
	ctx := context.Background()

	doc, err := docs.Create(ctx, "/drop/bad.pdf", "bad.pdf", "pdf", 10, hashOf("bad"), time.Now())
	require.NoError(t, err)

	job, err := jobs.Start(ctx, doc.ID, "PDF", string(constants.JobStatusRunning))
	require.NoError(t, err)

	require.NoError(t, jobs.FinishFailure(ctx, job.ID, "document is not a readable PDF"))

	got, err := jobs.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, string(constants.JobStatusFailed), got.Status)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, "document is not a readable PDF", *got.ErrorMessage)
	require.NotNil(t, got.FinishedAt)
}

func TestParseJobGetMissing(t *testing.T) {
	db := newTestDB(t)
	jobs := NewParseJobRepository(db, nil)

	_, err := jobs.GetByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestParseJobListByDocument(t *testing.T) {
	db := newTestDB(t)
	docs := NewDocumentRepository(db, nil)
	jobs := NewParseJobRepository(db, nil)
	ctx := context.Background()

	doc, err := docs.Create(ctx, "/drop/a.pdf", "a.pdf", "pdf", 10, hashOf("a"), time.Now())
	require.NoError(t, err)
	other, err := docs.Create(ctx, "/drop/b.pdf", "b.pdf", "pdf", 11, hashOf("b"), time.Now())
	require.NoError(t, err)

	_, err = jobs.Start(ctx, doc.ID, "PDF", string(constants.JobStatusQueued))
	require.NoError(t, err)
	_, err = jobs.Start(ctx, doc.ID, "PDF", string(constants.JobStatusQueued))
	require.NoError(t, err)
	_, err = jobs.Start(ctx, other.ID, "PDF", string(constants.JobStatusQueued))
	require.NoError(t, err)

	list, err := jobs.ListByDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	for _, j := range list {
		assert.Equal(t, doc.ID, j.DocumentID)
	}
}
