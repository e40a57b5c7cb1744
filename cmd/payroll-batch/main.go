package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/certpay/payroll-extractor/internal/common"
	"github.com/certpay/payroll-extractor/internal/export"
	"github.com/certpay/payroll-extractor/internal/ingest"
	"github.com/certpay/payroll-extractor/internal/mapping"
	"github.com/certpay/payroll-extractor/internal/payroll"
	"github.com/certpay/payroll-extractor/internal/pdftext"
	"github.com/certpay/payroll-extractor/internal/pipeline"
	"github.com/certpay/payroll-extractor/internal/repository"
	"github.com/certpay/payroll-extractor/internal/server"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir         = flag.String("dir", "", "directory of payroll PDFs to process (required)")
		out         = flag.String("out", "", "output file path (optional, defaults to parent directory)")
		mappingName = flag.String("mapping", "default", "field mapping to apply")
		formatStr   = flag.String("format", "xlsx", "output format: csv or xlsx")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}

	format, err := export.ParseFormat(*formatStr)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "payroll"+format.Ext())
	}

	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := server.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		os.Exit(1)
	}
	defer server.CloseDB(db, logger)

	docsRepo := repository.NewDocumentRepository(db, logger)
	jobsRepo := repository.NewParseJobRepository(db, logger)

	store := mapping.NewStore(cfg.Mapping.MappingsDir, cfg.Mapping.TemplatesDir, logger)
	if err := store.EnsureDefaults(); err != nil {
		logger.Error("failed to seed mapping defaults", "error", err)
		os.Exit(1)
	}
	m, err := store.GetMapping(*mappingName)
	if err != nil {
		logger.Error("failed to load mapping", "mapping", *mappingName, "error", err)
		os.Exit(1)
	}

	extractor := pdftext.NewExtractor(pdftext.Config{
		Strategy:      cfg.Extraction.Strategy,
		PdftotextPath: cfg.Extraction.PdftotextPath,
		Timeout:       cfg.Extraction.Timeout,
	}, logger)

	parser, err := payroll.NewExtractor(payroll.DefaultPatternSet(), logger)
	if err != nil {
		logger.Error("failed to compile extraction patterns", "error", err)
		os.Exit(1)
	}

	processor := pipeline.NewProcessor(logger,
		pipeline.NewTextStage(docsRepo, jobsRepo, extractor, logger),
		pipeline.NewParseStage(logger, jobsRepo, parser),
	)

	ingestor := ingest.NewFSIngestor(docsRepo, logger)

	logger.Info("starting ingestion", "dir", *dir)
	results, stats, err := ingestor.IngestDirectory(ctx, *dir, true)
	if err != nil {
		logger.Error("failed to ingest directory", "error", err)
		os.Exit(1)
	}

	var ingested []uuid.UUID
	for _, result := range results {
		if result.Err != "" {
			continue
		}
		docID, err := uuid.Parse(result.DocumentID)
		if err != nil {
			logger.Error("failed to parse document ID", "document_id", result.DocumentID, "error", err)
			continue
		}
		ingested = append(ingested, docID)
	}
	logger.Info("ingestion complete",
		"documents", len(ingested),
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"deduplicated", stats.Deduplicated)

	processed := 0
	failures := 0
	var employees []payroll.Record

	for _, docID := range ingested {
		logger.Info("processing document", "document_id", docID)
		jobID, err := processor.ProcessDocument(ctx, docID)
		if err != nil {
			logger.Error("failed to process document", "document_id", docID, "error", err)
			failures++
			continue
		}
		job, err := jobsRepo.GetByID(ctx, jobID)
		if err != nil {
			logger.Error("failed to load job result", "job_id", jobID, "error", err)
			failures++
			continue
		}
		if len(job.ResultJSON) > 0 {
			var res payroll.Result
			if err := json.Unmarshal(job.ResultJSON, &res); err != nil {
				logger.Error("failed to decode job result", "job_id", jobID, "error", err)
				failures++
				continue
			}
			employees = append(employees, res.Employees...)
		}
		processed++
	}

	logger.Info("exporting", "output", *out, "format", string(format), "employees", len(employees))
	payload, err := export.NewService(logger).Export(mapping.Apply(employees, m), format)
	if err != nil {
		logger.Error("failed to export", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, payload, 0o644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	logger.Info("batch processing complete",
		"documents_ingested", len(ingested),
		"documents_processed", processed,
		"failures", failures,
		"employee_records", len(employees),
		"output_file", *out)

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Documents ingested: %d\n", len(ingested))
	fmt.Printf("- Documents processed: %d\n", processed)
	fmt.Printf("- Failures: %d\n", failures)
	fmt.Printf("- Employee records: %d\n", len(employees))
	fmt.Printf("- Output: %s\n", *out)
}
