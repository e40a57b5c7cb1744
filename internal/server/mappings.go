package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/certpay/payroll-extractor/internal/common"
	"github.com/certpay/payroll-extractor/internal/mapping"
)

const maxStoreBodyBytes = 1 << 20

func (s *Server) handleListMappings(w http.ResponseWriter, r *http.Request) {
	names, err := s.mappings.ListMappings()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"mappings": names})
}

// handleGetMapping returns the mapping file itself, fields in stored order.
func (s *Server) handleGetMapping(w http.ResponseWriter, r *http.Request) {
	m, err := s.mappings.GetMapping(r.PathValue("name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	body, err := m.EncodeIndented()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(append(body, '\n'))
}

func (s *Server) handlePutMapping(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxStoreBodyBytes))
	if err != nil {
		s.writeError(w, r, common.NewAppError("INVALID_ARGUMENT", "read body: "+err.Error(), common.ErrInvalidInput))
		return
	}
	var m mapping.Mapping
	if err := json.Unmarshal(body, &m); err != nil {
		s.writeError(w, r, common.NewAppError("MAPPING_INVALID", "mapping body: "+err.Error(), common.ErrValidation))
		return
	}
	if err := s.mappings.PutMapping(name, &m); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "name": name, "fields": m.Len()})
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	names, err := s.mappings.ListTemplates()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": names})
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	columns, err := s.mappings.GetTemplate(name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"name": name, "columns": columns})
}

type putTemplateRequest struct {
	Columns []string `json:"columns"`
}

func (s *Server) handlePutTemplate(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	var req putTemplateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxStoreBodyBytes)).Decode(&req); err != nil {
		s.writeError(w, r, common.NewAppError("INVALID_ARGUMENT", "template body: "+err.Error(), common.ErrInvalidInput))
		return
	}
	if len(req.Columns) == 0 {
		s.writeError(w, r, common.NewAppError("INVALID_ARGUMENT", "columns is required", common.ErrInvalidInput))
		return
	}
	if err := s.mappings.PutTemplate(name, req.Columns); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "name": name, "columns": len(req.Columns)})
}
