package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/certpay/payroll-extractor/internal/common"
	"github.com/certpay/payroll-extractor/internal/export"
	"github.com/certpay/payroll-extractor/internal/mapping"
	"github.com/certpay/payroll-extractor/internal/payroll"
	"github.com/certpay/payroll-extractor/internal/pdftext"
	"github.com/certpay/payroll-extractor/internal/pipeline"
	"github.com/certpay/payroll-extractor/internal/services/parse"
	"github.com/certpay/payroll-extractor/internal/utils"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		file        = flag.String("file", "", "payroll PDF to parse (required)")
		mappingName = flag.String("mapping", "default", "field mapping applied to csv/xlsx output")
		format      = flag.String("format", "csv", "output format: csv, xlsx, or json")
		out         = flag.String("out", "", "output file path (default: next to the input)")
	)
	flag.Parse()

	if *file == "" {
		printError("Error: --file is required\n")
		os.Exit(1)
	}

	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()

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

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	start := time.Now()

	var (
		payload   []byte
		ext       string
		employees int
		pages     int
		method    string
	)

	if *format == "json" {
		result, textRes, err := pipeline.ExtractOnly(ctx, extractor, parser, *file)
		if err != nil {
			logger.Error("extraction failed", "file", *file, "error", err)
			os.Exit(1)
		}
		payload, err = json.MarshalIndent(result, "", "  ")
		if err != nil {
			logger.Error("encode result", "error", err)
			os.Exit(1)
		}
		payload = append(payload, '\n')
		ext = ".json"
		*mappingName = ""
		employees, pages, method = len(result.Employees), len(textRes.Pages), textRes.Method
	} else {
		store := mapping.NewStore(cfg.Mapping.MappingsDir, cfg.Mapping.TemplatesDir, logger)
		if err := store.EnsureDefaults(); err != nil {
			logger.Error("failed to seed mapping defaults", "error", err)
			os.Exit(1)
		}

		svc := parse.NewService(extractor, parser, store, export.NewService(logger), logger)
		resp, err := svc.ParseDocument(ctx, parse.ParseRequest{
			Path:        *file,
			MappingName: *mappingName,
			Format:      *format,
		})
		if err != nil {
			logger.Error("parse failed", "file", *file, "error", err)
			os.Exit(1)
		}
		payload, ext = resp.Payload, resp.Format.Ext()
		employees, pages, method = len(resp.Result.Employees), resp.PageCount, resp.Method
	}

	outPath := *out
	if outPath == "" {
		outPath = filepath.Join(filepath.Dir(*file),
			utils.ExportFilename(filepath.Base(*file), *mappingName, ext))
	}
	if err := os.WriteFile(outPath, payload, 0o644); err != nil {
		logger.Error("failed to write output file", "path", outPath, "error", err)
		os.Exit(1)
	}

	logger.Info("extraction OK",
		"file", *file,
		"out", outPath,
		"employees", employees,
		"pages", pages,
		"method", method,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	fmt.Printf("Parsed %s\n", *file)
	fmt.Printf("- Pages with text: %d\n", pages)
	fmt.Printf("- Employee records: %d\n", employees)
	fmt.Printf("- Output: %s\n", outPath)
}
