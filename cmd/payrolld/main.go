package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/certpay/payroll-extractor/internal/async"
	"github.com/certpay/payroll-extractor/internal/common"
	"github.com/certpay/payroll-extractor/internal/export"
	"github.com/certpay/payroll-extractor/internal/ingest"
	"github.com/certpay/payroll-extractor/internal/mapping"
	"github.com/certpay/payroll-extractor/internal/payroll"
	"github.com/certpay/payroll-extractor/internal/pdftext"
	"github.com/certpay/payroll-extractor/internal/pipeline"
	"github.com/certpay/payroll-extractor/internal/repository"
	"github.com/certpay/payroll-extractor/internal/server"
	ingestsvc "github.com/certpay/payroll-extractor/internal/services/ingest"
	"github.com/certpay/payroll-extractor/internal/services/parse"
)

func main() {
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	queue := async.NewProcessorQueue(processor, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.QueueSize),
		async.WithProcessTimeout(cfg.Queue.ProcessTimeout),
	)

	ingestor := ingest.NewFSIngestor(docsRepo, logger)
	ingestService := ingestsvc.NewService(ingestor, queue, logger)
	parseService := parse.NewService(extractor, parser, store, export.NewService(logger), logger)

	srv := server.New(cfg.Server, server.Deps{
		Parse:     parseService,
		Ingest:    ingestService,
		Mappings:  store,
		Documents: docsRepo,
		Jobs:      jobsRepo,
		Queue:     queue,
		DB:        db,
		Logger:    logger,
	})

	if cfg.Ingest.WatchDir != "" {
		if err := startWatchLoop(ctx, cfg.Ingest, ingestService, logger); err != nil {
			logger.Error("failed to start drop-directory watcher", "error", err)
			os.Exit(1)
		}
	}

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("http serve error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
	queue.Shutdown(shCtx)
}

// startWatchLoop feeds files dropped into the watch directory through
// ingestion and into the processing queue. Duplicates are skipped.
func startWatchLoop(ctx context.Context, cfg common.IngestConfig, svc *ingestsvc.Service, logger *slog.Logger) error {
	evCh, errCh, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{cfg.WatchDir},
		InitialScan: cfg.InitialScan,
		Debounce:    cfg.WatchDebounce,
	})
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case path, ok := <-evCh:
				if !ok {
					return
				}
				res, err := svc.IngestFile(ctx, ingestsvc.FileIngestRequest{Path: path, SkipDuplicates: true})
				if err != nil {
					logger.Error("watch ingest failed", "path", path, "error", err)
					continue
				}
				if err := svc.ProcessIngestedFile(ctx, &res, true); err != nil {
					logger.Error("watch enqueue failed", "path", path, "error", err)
				}
			case err, ok := <-errCh:
				if !ok {
					return
				}
				logger.Error("watcher error", "error", err)
			}
		}
	}()

	logger.Info("watching drop directory", "dir", cfg.WatchDir)
	return nil
}
