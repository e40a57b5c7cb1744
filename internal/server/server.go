package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/certpay/payroll-extractor/internal/async"
	"github.com/certpay/payroll-extractor/internal/common"
	"github.com/certpay/payroll-extractor/internal/mapping"
	"github.com/certpay/payroll-extractor/internal/repository"
	ingestsvc "github.com/certpay/payroll-extractor/internal/services/ingest"
	"github.com/certpay/payroll-extractor/internal/services/parse"
)

const dbPingTimeout = 3 * time.Second

// Deps bundles everything the HTTP surface delegates to.
type Deps struct {
	Parse     *parse.Service
	Ingest    *ingestsvc.Service
	Mappings  *mapping.Store
	Documents repository.DocumentRepository
	Jobs      repository.ParseJobRepository
	Queue     async.Queue
	DB        *repository.DB
	Logger    *slog.Logger
}

// Server is the HTTP front for parsing, ingestion, and the stores.
type Server struct {
	cfg      common.ServerConfig
	parseSvc *parse.Service
	ingest   *ingestsvc.Service
	mappings *mapping.Store
	docs     repository.DocumentRepository
	jobs     repository.ParseJobRepository
	queue    async.Queue
	db       *repository.DB
	logger   *slog.Logger
	httpSrv  *http.Server
}

// New assembles the server. A nil logger falls back to slog.Default().
func New(cfg common.ServerConfig, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:      cfg,
		parseSvc: deps.Parse,
		ingest:   deps.Ingest,
		mappings: deps.Mappings,
		docs:     deps.Documents,
		jobs:     deps.Jobs,
		queue:    deps.Queue,
		db:       deps.DB,
		logger:   logger,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /parse-document", s.handleParseDocument)

	mux.HandleFunc("GET /mappings", s.handleListMappings)
	mux.HandleFunc("GET /mappings/{name}", s.handleGetMapping)
	mux.HandleFunc("PUT /mappings/{name}", s.handlePutMapping)
	mux.HandleFunc("GET /templates", s.handleListTemplates)
	mux.HandleFunc("GET /templates/{name}", s.handleGetTemplate)
	mux.HandleFunc("PUT /templates/{name}", s.handlePutTemplate)

	mux.HandleFunc("POST /ingest/file", s.handleIngestFile)
	mux.HandleFunc("POST /ingest/directory", s.handleIngestDirectory)

	mux.HandleFunc("GET /documents", s.handleListDocuments)
	mux.HandleFunc("GET /documents/{id}", s.handleGetDocument)
	mux.HandleFunc("GET /documents/{id}/jobs", s.handleListDocumentJobs)
	mux.HandleFunc("POST /documents/{id}/parse", s.handleQueueParse)
	mux.HandleFunc("GET /jobs/{id}", s.handleGetJob)

	mux.HandleFunc("GET /healthz", s.handleHealthz)

	return s.withRequestID(mux)
}

// Start blocks serving HTTP until Shutdown or a listener error.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{
		Addr:         s.cfg.HTTPAddr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
	s.logger.Info("http server listening", "addr", s.cfg.HTTPAddr)
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	s.logger.Info("http server shutting down")
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	if s.db != nil {
		if err := s.db.HealthCheck(r.Context(), dbPingTimeout); err != nil {
			resp["status"] = "degraded"
			resp["database"] = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp["database"] = "ok"
	}
	writeJSON(w, http.StatusOK, resp)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(common.WithRequestID(r.Context(), requestID)))

		s.logger.Info("http request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed_ms", time.Since(start).Milliseconds())
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	code := "INTERNAL"
	msg := err.Error()
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
		msg = appErr.Message
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			"request_id", common.RequestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err)
	}
	writeJSON(w, status, map[string]any{"error": msg, "code": code})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, common.ErrDocumentUnreadable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrMappingNotFound),
		errors.Is(err, common.ErrTemplateNotFound),
		errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrInvalidInput),
		errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	}
	// ingest failures are caller mistakes (bad path, unreadable file)
	var appErr *common.AppError
	if errors.As(err, &appErr) && appErr.Code == "INGEST_FAILED" {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
