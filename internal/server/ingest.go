package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/certpay/payroll-extractor/internal/common"
	"github.com/certpay/payroll-extractor/internal/ingest"
	ingestsvc "github.com/certpay/payroll-extractor/internal/services/ingest"
)

type ingestResponse struct {
	DocumentID   string `json:"document_id"`
	Deduplicated bool   `json:"deduplicated"`
	ContentHash  string `json:"content_hash"`
	FileExt      string `json:"file_ext"`
	UploadedAt   string `json:"uploaded_at"`
	SourcePath   string `json:"source_path"`
	Error        string `json:"error,omitempty"`
}

func toIngestResponse(r ingest.IngestionResult) ingestResponse {
	uploaded := ""
	if !r.UploadedAt.IsZero() {
		uploaded = r.UploadedAt.UTC().Format(time.RFC3339)
	}
	return ingestResponse{
		DocumentID:   r.DocumentID,
		Deduplicated: r.Deduplicated,
		ContentHash:  r.HashHex,
		FileExt:      r.FileExt,
		UploadedAt:   uploaded,
		SourcePath:   r.SourcePath,
		Error:        r.Err,
	}
}

type ingestFileRequest struct {
	Path           string `json:"path"`
	SkipDuplicates bool   `json:"skip_duplicates"`
}

// handleIngestFile registers one on-disk file and queues it for processing.
func (s *Server) handleIngestFile(w http.ResponseWriter, r *http.Request) {
	var req ingestFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, common.NewAppError("INVALID_ARGUMENT", "request body: "+err.Error(), common.ErrInvalidInput))
		return
	}

	res, err := s.ingest.IngestFile(r.Context(), ingestsvc.FileIngestRequest{
		Path:           req.Path,
		SkipDuplicates: req.SkipDuplicates,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.ingest.ProcessIngestedFile(r.Context(), &res, req.SkipDuplicates); err != nil && res.Err == "" {
		res.Err = err.Error()
	}
	writeJSON(w, http.StatusOK, toIngestResponse(res))
}

type ingestDirectoryRequest struct {
	RootPath       string `json:"root_path"`
	IncludeHidden  bool   `json:"include_hidden"`
	SkipDuplicates bool   `json:"skip_duplicates"`
}

// handleIngestDirectory walks a directory, registers every matching file,
// and queues each success for processing.
func (s *Server) handleIngestDirectory(w http.ResponseWriter, r *http.Request) {
	var req ingestDirectoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, common.NewAppError("INVALID_ARGUMENT", "request body: "+err.Error(), common.ErrInvalidInput))
		return
	}

	out, err := s.ingest.IngestDirectory(r.Context(), ingestsvc.DirectoryIngestRequest{
		RootPath:       req.RootPath,
		IncludeHidden:  req.IncludeHidden,
		SkipDuplicates: req.SkipDuplicates,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	results := make([]ingestResponse, 0, len(out.Results))
	for i := range out.Results {
		res := &out.Results[i]
		if err := s.ingest.ProcessIngestedFile(r.Context(), res, req.SkipDuplicates); err != nil && res.Err == "" {
			res.Err = err.Error()
		}
		results = append(results, toIngestResponse(*res))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"scanned":      out.Statistics.Scanned,
		"matched":      out.Statistics.Matched,
		"succeeded":    out.Statistics.Succeeded,
		"deduplicated": out.Statistics.Deduplicated,
		"failed":       out.Statistics.Failed,
		"results":      results,
	})
}
