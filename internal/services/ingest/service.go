package ingest

import (
	"context"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/certpay/payroll-extractor/internal/async"
	"github.com/certpay/payroll-extractor/internal/common"
	"github.com/certpay/payroll-extractor/internal/ingest"
)

// Service handles ingestion business logic.
type Service struct {
	ingestor ingest.Ingestor
	queue    async.Queue
	logger   *slog.Logger
}

// NewService creates a new ingest service.
func NewService(ing ingest.Ingestor, q async.Queue, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		ingestor: ing,
		queue:    q,
		logger:   logger,
	}
}

// FileIngestRequest represents file ingestion parameters.
type FileIngestRequest struct {
	Path           string
	SkipDuplicates bool
}

// DirectoryIngestResult represents directory ingestion results.
type DirectoryIngestResult struct {
	Statistics ingest.DirStats
	Results    []ingest.IngestionResult
}

// IngestFile ingests a single file.
func (s *Service) IngestFile(ctx context.Context, req FileIngestRequest) (ingest.IngestionResult, error) {
	path := strings.TrimSpace(req.Path)
	if path == "" {
		s.logger.Error("ingest request missing path")
		return ingest.IngestionResult{}, common.NewAppError("INVALID_ARGUMENT", "path is required", common.ErrInvalidInput)
	}

	s.logger.Info("starting file ingest", "path", path)
	r, err := s.ingestor.IngestPath(ctx, path)
	if err != nil {
		return ingest.IngestionResult{}, common.NewAppError("INGEST_FAILED", "ingest: "+path, err)
	}

	s.logger.Info("file ingest succeeded", "path", path, "document_id", r.DocumentID, "deduplicated", r.Deduplicated)

	return r, nil
}

// DirectoryIngestRequest represents directory ingestion parameters.
// Hidden entries are skipped unless IncludeHidden is set.
type DirectoryIngestRequest struct {
	RootPath       string
	IncludeHidden  bool
	SkipDuplicates bool
}

// IngestDirectory ingests all files in a directory.
func (s *Service) IngestDirectory(ctx context.Context, req DirectoryIngestRequest) (*DirectoryIngestResult, error) {
	root := strings.TrimSpace(req.RootPath)
	if root == "" {
		s.logger.Error("ingest directory request missing root_path")
		return nil, common.NewAppError("INVALID_ARGUMENT", "root_path is required", common.ErrInvalidInput)
	}

	skipHidden := !req.IncludeHidden

	s.logger.Info("starting directory ingest", "root", root, "skip_hidden", skipHidden)
	results, stats, err := s.ingestor.IngestDirectory(ctx, root, skipHidden)
	if err != nil {
		// file errors are already logged in repository/ingest layers
		return nil, common.NewAppError("INGEST_FAILED", "ingest directory: "+root, err)
	}

	s.logger.Info("directory ingest completed", "root", root, "scanned", stats.Scanned, "matched", stats.Matched, "succeeded", stats.Succeeded, "deduplicated", stats.Deduplicated, "failed", stats.Failed)

	return &DirectoryIngestResult{
		Statistics: stats,
		Results:    results,
	}, nil
}

// ProcessIngestedFile contains the business logic for queueing an ingested document
func (s *Service) ProcessIngestedFile(ctx context.Context, result *ingest.IngestionResult, skipDuplicates bool) error {
	if result.Err != "" || result.DocumentID == "" {
		return nil // nothing to enqueue
	}

	documentID, err := uuid.Parse(result.DocumentID)
	if err != nil {
		s.logger.Error("invalid document_id: cannot enqueue", "document_id", result.DocumentID, "error", err)
		return common.NewAppError("INVALID_ARGUMENT", "invalid document_id", common.ErrInvalidInput)
	}

	if result.Deduplicated && skipDuplicates {
		s.logger.Info("skipping processing (duplicate)", "document_id", result.DocumentID, "path", result.SourcePath)
		return nil
	}

	if err := s.queue.Enqueue(ctx, async.Job{
		DocumentID:  documentID,
		Force:       !skipDuplicates && result.Deduplicated,
		SubmittedAt: time.Now(),
	}); err != nil {
		s.logger.Error("enqueue failed for document", "document_id", result.DocumentID, "err", err)
		return common.NewAppError("INTERNAL", "enqueue failed", err)
	}

	return nil
}
