package parse

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/certpay/payroll-extractor/internal/common"
	"github.com/certpay/payroll-extractor/internal/export"
	"github.com/certpay/payroll-extractor/internal/mapping"
	"github.com/certpay/payroll-extractor/internal/payroll"
	"github.com/certpay/payroll-extractor/internal/pdftext"
	"github.com/certpay/payroll-extractor/internal/pipeline"
)

// Service handles synchronous parse-and-export business logic.
type Service struct {
	extractor pdftext.TextExtractor
	parser    pipeline.RecordParser
	mappings  *mapping.Store
	exporter  *export.Service
	logger    *slog.Logger
}

// NewService creates a new parse service.
func NewService(tx pdftext.TextExtractor, parser pipeline.RecordParser, mappings *mapping.Store, exporter *export.Service, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		extractor: tx,
		parser:    parser,
		mappings:  mappings,
		exporter:  exporter,
		logger:    logger,
	}
}

// ParseRequest represents parse-and-export parameters for one document.
type ParseRequest struct {
	Path        string
	MappingName string // empty selects the default mapping
	Format      string // empty selects CSV
}

// ParseResponse carries the mapped table and its encoded payload.
type ParseResponse struct {
	Result      *payroll.Result
	Table       *mapping.Table
	Payload     []byte
	Format      export.Format
	ContentType string
	Method      string
	PageCount   int
}

// ExtractDocument extracts text from one document and parses employee
// records without applying any mapping.
func (s *Service) ExtractDocument(ctx context.Context, path string) (*payroll.Result, pdftext.TextExtractionResult, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		s.logger.Error("extract request missing path")
		return nil, pdftext.TextExtractionResult{}, common.NewAppError("INVALID_ARGUMENT", "path is required", common.ErrInvalidInput)
	}
	return pipeline.ExtractOnly(ctx, s.extractor, s.parser, path)
}

// ParseDocument extracts text from one document, maps the parsed records
// through the named mapping, and encodes the table in the requested format.
func (s *Service) ParseDocument(ctx context.Context, req ParseRequest) (*ParseResponse, error) {
	path := strings.TrimSpace(req.Path)
	if path == "" {
		s.logger.Error("parse request missing path")
		return nil, common.NewAppError("INVALID_ARGUMENT", "path is required", common.ErrInvalidInput)
	}

	format, err := export.ParseFormat(req.Format)
	if err != nil {
		s.logger.Error("invalid export format for parse", "format", req.Format, "error", err)
		return nil, err
	}

	mappingName := strings.TrimSpace(req.MappingName)
	if mappingName == "" {
		mappingName = mapping.DefaultMappingName
	}
	m, err := s.mappings.GetMapping(mappingName)
	if err != nil {
		s.logger.Error("mapping lookup failed for parse", "mapping", mappingName, "error", err)
		return nil, err
	}

	start := time.Now()
	s.logger.Info("parsing document", "path", path, "mapping", mappingName, "format", string(format))

	res, err := s.extractor.Extract(ctx, path)
	if err != nil {
		s.logger.Error("text extraction failed", "path", path, "error", err)
		return nil, err
	}

	result := s.parser.Parse(res.Pages)
	table := mapping.Apply(result.Employees, m)

	payload, err := s.exporter.Export(table, format)
	if err != nil {
		s.logger.Error("export failed", "path", path, "format", string(format), "error", err)
		return nil, err
	}

	s.logger.Info("document parsed",
		"path", path,
		"pages", len(res.Pages),
		"employees", len(result.Employees),
		"method", res.Method,
		"elapsed_ms", time.Since(start).Milliseconds())

	return &ParseResponse{
		Result:      result,
		Table:       table,
		Payload:     payload,
		Format:      format,
		ContentType: format.ContentType(),
		Method:      res.Method,
		PageCount:   len(res.Pages),
	}, nil
}
