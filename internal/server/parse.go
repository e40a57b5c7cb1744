package server

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/certpay/payroll-extractor/constants"
	"github.com/certpay/payroll-extractor/internal/common"
	"github.com/certpay/payroll-extractor/internal/services/parse"
	"github.com/certpay/payroll-extractor/internal/utils"
)

// handleParseDocument accepts a multipart upload and parses it in-request.
// Without a mapping the raw job info and employee records come back as JSON.
// With ?mapping= the mapped rows come back as JSON, and with format=csv|xlsx
// the encoded export is streamed as a download instead.
func (s *Server) handleParseDocument(w http.ResponseWriter, r *http.Request) {
	if s.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, common.NewAppError("INVALID_ARGUMENT", "file field is required: "+err.Error(), common.ErrInvalidInput))
		return
	}
	defer func() { _ = file.Close() }()

	ext := constants.NormalizeExt(filepath.Ext(header.Filename))
	if !constants.IsAllowedExt(ext) {
		s.writeError(w, r, common.NewAppError("INVALID_ARGUMENT", "unsupported file type: "+header.Filename, common.ErrInvalidInput))
		return
	}

	tmpPath, err := s.saveUpload(file, ext)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer func() { _ = os.Remove(tmpPath) }()

	mappingName := strings.TrimSpace(r.FormValue("mapping"))
	format := strings.TrimSpace(r.FormValue("format"))

	if mappingName == "" {
		result, textRes, err := s.parseSvc.ExtractDocument(r.Context(), tmpPath)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		resp := map[string]any{
			"status":         "success",
			"file_name":      header.Filename,
			"method":         textRes.Method,
			"page_count":     len(textRes.Pages),
			"employee_count": len(result.Employees),
			"job_info":       result.JobInfo,
			"employees":      result.Employees,
		}
		if len(textRes.Warnings) > 0 {
			resp["warnings"] = textRes.Warnings
		}
		if len(result.Employees) == 0 {
			resp["warning"] = "no employee records found"
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	parsed, err := s.parseSvc.ParseDocument(r.Context(), parse.ParseRequest{
		Path:        tmpPath,
		MappingName: mappingName,
		Format:      format,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if format == "" {
		resp := map[string]any{
			"status":         "success",
			"file_name":      header.Filename,
			"mapping":        mappingName,
			"method":         parsed.Method,
			"page_count":     parsed.PageCount,
			"employee_count": len(parsed.Result.Employees),
			"columns":        parsed.Table.Columns,
			"rows":           parsed.Table.Rows,
		}
		if len(parsed.Result.Employees) == 0 {
			resp["warning"] = "no employee records found"
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	name := utils.ExportFilename(header.Filename, mappingName, parsed.Format.Ext())
	w.Header().Set("Content-Type", parsed.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("X-Employee-Count", strconv.Itoa(len(parsed.Result.Employees)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(parsed.Payload)
}

// saveUpload spools the upload to a temp file so the extractor can seek it.
// Callers remove the returned path.
func (s *Server) saveUpload(file io.Reader, ext string) (string, error) {
	tmp, err := os.CreateTemp("", "upload-*."+ext)
	if err != nil {
		return "", common.NewAppError("INTERNAL", "create temp file", err)
	}
	tmpPath := tmp.Name()
	if _, err := io.Copy(tmp, file); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", common.NewAppError("INTERNAL", "spool upload", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", common.NewAppError("INTERNAL", "close temp file", err)
	}
	return tmpPath, nil
}
