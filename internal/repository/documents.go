package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/certpay/payroll-extractor/internal/common"
	"github.com/certpay/payroll-extractor/internal/entity"
)

type DocumentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	GetByHash(ctx context.Context, hash []byte) (*entity.Document, error)
	Create(ctx context.Context, sourcePath, filename, ext string, size int, hash []byte, uploadedAt time.Time) (*entity.Document, error)
	UpsertByHash(ctx context.Context, sourcePath, filename, ext string, size int, hash []byte, uploadedAt time.Time) (*entity.Document, bool, error)
	List(ctx context.Context, limit int) ([]*entity.Document, error)
}

type documentRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewDocumentRepository(db *DB, logger *slog.Logger) DocumentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentRepo{db: db, logger: logger}
}

const documentColumns = "id, source_path, content_hash, filename, file_ext, file_size, uploaded_at"

func (r *documentRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	row := r.db.QueryRowContext(ctx,
		r.db.rebind("SELECT "+documentColumns+" FROM documents WHERE id = ?"), id.String())
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewAppError("NOT_FOUND",
				fmt.Sprintf("document %s not found", id), common.ErrNotFound)
		}
		r.logger.Error("failed to get document by id", "document_id", id, "error", err)
		return nil, err
	}
	return doc, nil
}

func (r *documentRepo) GetByHash(ctx context.Context, hash []byte) (*entity.Document, error) {
	row := r.db.QueryRowContext(ctx,
		r.db.rebind("SELECT "+documentColumns+" FROM documents WHERE content_hash = ?"), hash)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewAppError("NOT_FOUND", "document not found by hash", common.ErrNotFound)
		}
		r.logger.Error("failed to get document by hash", "error", err)
		return nil, err
	}
	return doc, nil
}

func (r *documentRepo) Create(ctx context.Context, sourcePath, filename, ext string, size int, hash []byte, uploadedAt time.Time) (*entity.Document, error) {
	doc := &entity.Document{
		ID:          uuid.New(),
		SourcePath:  sourcePath,
		ContentHash: hash,
		Filename:    filename,
		FileExt:     ext,
		FileSize:    size,
		UploadedAt:  uploadedAt.UTC(),
	}
	_, err := r.db.ExecContext(ctx,
		r.db.rebind(`INSERT INTO documents (`+documentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		doc.ID.String(), doc.SourcePath, doc.ContentHash, doc.Filename, doc.FileExt, doc.FileSize, doc.UploadedAt)
	if err != nil {
		r.logger.Error("failed to create document", "source_path", sourcePath, "filename", filename, "error", err)
		return nil, err
	}
	return doc, nil
}

func (r *documentRepo) UpsertByHash(ctx context.Context, sourcePath, filename, ext string, size int, hash []byte, uploadedAt time.Time) (*entity.Document, bool, error) {
	if existing, err := r.GetByHash(ctx, hash); err == nil {
		return existing, true, nil
	}
	doc, err := r.Create(ctx, sourcePath, filename, ext, size, hash, uploadedAt)
	if err != nil {
		r.logger.Error("failed to upsert document by hash", "source_path", sourcePath, "filename", filename, "error", err)
		return nil, false, err
	}
	return doc, false, nil
}

func (r *documentRepo) List(ctx context.Context, limit int) ([]*entity.Document, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		r.db.rebind("SELECT "+documentColumns+" FROM documents ORDER BY uploaded_at DESC LIMIT ?"), limit)
	if err != nil {
		r.logger.Error("failed to list documents", "error", err)
		return nil, err
	}
	defer rows.Close()

	docs := make([]*entity.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*entity.Document, error) {
	var (
		doc   entity.Document
		idStr string
	)
	err := row.Scan(&idStr, &doc.SourcePath, &doc.ContentHash, &doc.Filename, &doc.FileExt, &doc.FileSize, &doc.UploadedAt)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parse document id: %w", err)
	}
	doc.ID = id
	return &doc, nil
}
