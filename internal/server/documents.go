package server

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/certpay/payroll-extractor/internal/async"
	"github.com/certpay/payroll-extractor/internal/common"
	"github.com/certpay/payroll-extractor/internal/entity"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type documentResponse struct {
	ID          string    `json:"id"`
	SourcePath  string    `json:"source_path"`
	Filename    string    `json:"filename"`
	FileExt     string    `json:"file_ext"`
	FileSize    int       `json:"file_size"`
	ContentHash string    `json:"content_hash"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

func toDocumentResponse(d *entity.Document) documentResponse {
	return documentResponse{
		ID:          d.ID.String(),
		SourcePath:  d.SourcePath,
		Filename:    d.Filename,
		FileExt:     d.FileExt,
		FileSize:    d.FileSize,
		ContentHash: hex.EncodeToString(d.ContentHash),
		UploadedAt:  d.UploadedAt.UTC(),
	}
}

// jobResponse always omits the stored page text; the parse result is
// included only on single-job reads.
type jobResponse struct {
	ID            string          `json:"id"`
	DocumentID    string          `json:"document_id"`
	Format        string          `json:"format"`
	Status        string          `json:"status"`
	StartedAt     time.Time       `json:"started_at"`
	FinishedAt    *time.Time      `json:"finished_at,omitempty"`
	ErrorMessage  string          `json:"error_message,omitempty"`
	TextMethod    string          `json:"text_method,omitempty"`
	PageCount     int             `json:"page_count"`
	EmployeeCount int             `json:"employee_count"`
	Result        json.RawMessage `json:"result,omitempty"`
}

func toJobResponse(j *entity.ParseJob, includeResult bool) jobResponse {
	out := jobResponse{
		ID:            j.ID.String(),
		DocumentID:    j.DocumentID.String(),
		Format:        j.Format,
		Status:        j.Status,
		StartedAt:     j.StartedAt.UTC(),
		FinishedAt:    j.FinishedAt,
		PageCount:     j.PageCount,
		EmployeeCount: j.EmployeeCount,
	}
	if j.ErrorMessage != nil {
		out.ErrorMessage = *j.ErrorMessage
	}
	if j.TextMethod != nil {
		out.TextMethod = *j.TextMethod
	}
	if includeResult {
		out.Result = j.ResultJSON
	}
	return out
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.writeError(w, r, common.NewAppError("INVALID_ARGUMENT", "limit must be a positive integer", common.ErrInvalidInput))
			return
		}
		limit = min(n, maxListLimit)
	}

	docs, err := s.docs.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocumentResponse(d))
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": out})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDPath(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := s.docs.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentResponse(doc))
}

func (s *Server) handleListDocumentJobs(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDPath(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	jobs, err := s.jobs.ListByDocument(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]jobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toJobResponse(j, false))
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": out})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDPath(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	job, err := s.jobs.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toJobResponse(job, true))
}

// handleQueueParse requeues a stored document for background processing.
func (s *Server) handleQueueParse(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDPath(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.docs.GetByID(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.queue.Enqueue(r.Context(), async.Job{
		DocumentID:  id,
		Force:       true,
		SubmittedAt: time.Now(),
		TraceID:     common.RequestIDFromContext(r.Context()),
	}); err != nil {
		s.writeError(w, r, common.NewAppError("INTERNAL", "enqueue failed", err))
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "queued", "document_id": id.String()})
}

func parseIDPath(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, common.NewAppError("INVALID_ARGUMENT", "id must be a UUID", common.ErrInvalidInput)
	}
	return id, nil
}
