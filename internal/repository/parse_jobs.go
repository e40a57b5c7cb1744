package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/certpay/payroll-extractor/constants"
	"github.com/certpay/payroll-extractor/internal/common"
	"github.com/certpay/payroll-extractor/internal/entity"
)

type ParseJobRepository interface {
	Start(ctx context.Context, documentID uuid.UUID, format, status string) (*entity.ParseJob, error)
	SetStatus(ctx context.Context, jobID uuid.UUID, status string) error
	FinishTextSuccess(ctx context.Context, jobID uuid.UUID, pageText, method string, pageCount int) error
	FinishParseSuccess(ctx context.Context, jobID uuid.UUID, result json.RawMessage, employeeCount int) error
	FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.ParseJob, error)
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]*entity.ParseJob, error)
}

type parseJobRepo struct {
	db  *DB
	log *slog.Logger
}

func NewParseJobRepository(db *DB, log *slog.Logger) ParseJobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &parseJobRepo{db: db, log: log}
}

const parseJobColumns = "id, document_id, format, status, started_at, finished_at, error_message, text_method, page_text, page_count, employee_count, result_json"

func (r *parseJobRepo) Start(ctx context.Context, documentID uuid.UUID, format, status string) (*entity.ParseJob, error) {
	job := &entity.ParseJob{
		ID:         uuid.New(),
		DocumentID: documentID,
		Format:     format,
		Status:     status,
		StartedAt:  time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx,
		r.db.rebind(`INSERT INTO parse_jobs (id, document_id, format, status, started_at) VALUES (?, ?, ?, ?, ?)`),
		job.ID.String(), job.DocumentID.String(), job.Format, job.Status, job.StartedAt)
	if err != nil {
		r.log.Error("parse_job start failed", "document_id", documentID, "err", err)
		return nil, err
	}
	r.log.Info("parse_job started", "job_id", job.ID, "document_id", documentID, "format", format)
	return job, nil
}

func (r *parseJobRepo) SetStatus(ctx context.Context, jobID uuid.UUID, status string) error {
	_, err := r.db.ExecContext(ctx,
		r.db.rebind("UPDATE parse_jobs SET status = ? WHERE id = ?"), status, jobID.String())
	if err != nil {
		r.log.Error("parse_job status update failed", "job_id", jobID, "status", status, "err", err)
		return err
	}
	return nil
}

func (r *parseJobRepo) FinishTextSuccess(ctx context.Context, jobID uuid.UUID, pageText, method string, pageCount int) error {
	_, err := r.db.ExecContext(ctx,
		r.db.rebind(`UPDATE parse_jobs SET status = ?, page_text = ?, text_method = ?, page_count = ? WHERE id = ?`),
		string(constants.JobStatusTextOK), pageText, method, pageCount, jobID.String())
	if err != nil {
		r.log.Error("parse_job finish(TEXT_OK) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Info("parse_job text extracted", "job_id", jobID, "method", method, "pages", pageCount)
	return nil
}

func (r *parseJobRepo) FinishParseSuccess(ctx context.Context, jobID uuid.UUID, result json.RawMessage, employeeCount int) error {
	_, err := r.db.ExecContext(ctx,
		r.db.rebind(`UPDATE parse_jobs SET status = ?, result_json = ?, employee_count = ?, finished_at = ? WHERE id = ?`),
		string(constants.JobStatusParsed), string(result), employeeCount, time.Now().UTC(), jobID.String())
	if err != nil {
		r.log.Error("parse_job finish(PARSED) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Info("parse_job finished (PARSED)", "job_id", jobID, "employees", employeeCount)
	return nil
}

func (r *parseJobRepo) FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error {
	_, err := r.db.ExecContext(ctx,
		r.db.rebind(`UPDATE parse_jobs SET status = ?, error_message = ?, finished_at = ? WHERE id = ?`),
		string(constants.JobStatusFailed), message, time.Now().UTC(), jobID.String())
	if err != nil {
		r.log.Error("parse_job finish(FAILED) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Warn("parse_job finished (FAILED)", "job_id", jobID, "error", message)
	return nil
}

func (r *parseJobRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.ParseJob, error) {
	row := r.db.QueryRowContext(ctx,
		r.db.rebind("SELECT "+parseJobColumns+" FROM parse_jobs WHERE id = ?"), id.String())
	job, err := scanParseJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewAppError("NOT_FOUND",
				fmt.Sprintf("parse job %s not found", id), common.ErrNotFound)
		}
		r.log.Error("failed to get parse job", "job_id", id, "err", err)
		return nil, err
	}
	return job, nil
}

func (r *parseJobRepo) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]*entity.ParseJob, error) {
	rows, err := r.db.QueryContext(ctx,
		r.db.rebind("SELECT "+parseJobColumns+" FROM parse_jobs WHERE document_id = ? ORDER BY started_at DESC"),
		documentID.String())
	if err != nil {
		r.log.Error("failed to list parse jobs", "document_id", documentID, "err", err)
		return nil, err
	}
	defer rows.Close()

	jobs := make([]*entity.ParseJob, 0)
	for rows.Next() {
		job, err := scanParseJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func scanParseJob(row rowScanner) (*entity.ParseJob, error) {
	var (
		job        entity.ParseJob
		idStr      string
		docIDStr   string
		finishedAt sql.NullTime
		errMsg     sql.NullString
		method     sql.NullString
		pageText   sql.NullString
		resultJSON sql.NullString
	)
	err := row.Scan(&idStr, &docIDStr, &job.Format, &job.Status, &job.StartedAt,
		&finishedAt, &errMsg, &method, &pageText, &job.PageCount, &job.EmployeeCount, &resultJSON)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parse job id: %w", err)
	}
	docID, err := uuid.Parse(docIDStr)
	if err != nil {
		return nil, fmt.Errorf("parse job document id: %w", err)
	}
	job.ID = id
	job.DocumentID = docID
	if finishedAt.Valid {
		t := finishedAt.Time
		job.FinishedAt = &t
	}
	if errMsg.Valid {
		s := errMsg.String
		job.ErrorMessage = &s
	}
	if method.Valid {
		s := method.String
		job.TextMethod = &s
	}
	if pageText.Valid {
		s := pageText.String
		job.PageText = &s
	}
	if resultJSON.Valid && resultJSON.String != "" {
		job.ResultJSON = json.RawMessage(resultJSON.String)
	}
	return &job, nil
}
