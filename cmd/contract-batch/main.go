package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/a12042020/contract-analyzer/constants"
	"github.com/a12042020/contract-analyzer/internal/analysis"
	"github.com/a12042020/contract-analyzer/internal/batch"
	"github.com/a12042020/contract-analyzer/internal/common"
	"github.com/a12042020/contract-analyzer/internal/export"
	"github.com/a12042020/contract-analyzer/internal/extract"
	"github.com/a12042020/contract-analyzer/internal/extract/openai"
	"github.com/a12042020/contract-analyzer/internal/ingest"
	"github.com/a12042020/contract-analyzer/internal/ocr"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	// Parse CLI flags
	var (
		dir       = flag.String("dir", "", "directory to process contracts from (required)")
		out       = flag.String("out", "", "output XLSX file path (optional, defaults to parent directory)")
		policy    = flag.String("policy", "", "path to a policy file; when set, each contract is analyzed against it")
		force     = flag.Bool("force", false, "recompute extractions even when cached")
		summarize = flag.Bool("summarize", false, "produce a markdown risk summary per contract")
	)
	flag.Parse()

	// Validate required flags
	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}

	// If output file not specified, use parent directory with default filename
	if *out == "" {
		parentDir := filepath.Dir(*dir)
		*out = filepath.Join(parentDir, "contracts.xlsx")
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	// Load configuration
	_ = godotenv.Load()
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Initialize cache store
	storeResult, err := common.InitStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer storeResult.Cleanup()
	store := storeResult.Store

	// Setup OCR (graceful if missing; markdown inputs never need it)
	var ocrClient ocr.Extractor
	if cfg.OCR.APIKey != "" {
		ocrClient = ocr.NewMistralClient(ocr.Config{
			APIKey:  cfg.OCR.APIKey,
			BaseURL: cfg.OCR.BaseURL,
			Model:   cfg.OCR.Model,
			Timeout: cfg.OCR.Timeout,
		}, logger)
		logger.Info("OCR client initialized", "model", cfg.OCR.Model)
	} else {
		logger.Warn("Mistral API key not configured, only markdown inputs will be processed")
	}

	// Setup OpenAI client
	llmClient := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
	logger.Info("OpenAI client initialized", "model", cfg.LLM.Model)

	// Ingest directory
	ingestor := ingest.NewFSIngestor(store, ocrClient, logger)
	logger.Info("starting ingestion", "dir", *dir)
	ingested, dirStats, err := ingestor.IngestDirectory(ctx, *dir, true)
	if err != nil {
		logger.Error("failed to ingest directory", "error", err)
		os.Exit(1)
	}
	logger.Info("ingestion complete",
		"scanned", dirStats.Scanned,
		"matched", dirStats.Matched,
		"succeeded", dirStats.Succeeded,
		"failed", dirStats.Failed,
		"ocr_cache_hits", dirStats.CacheHits)

	// Run the extraction batch
	registry := extract.DefaultRegistry()
	extractor := extract.NewArtifactExtractor(llmClient, registry)

	opts := []batch.Option{}
	if cfg.Batch.MaxInFlight > 0 {
		opts = append(opts, batch.WithMaxInFlight(cfg.Batch.MaxInFlight))
	}
	processor := batch.NewProcessor(store, extractor, logger, opts...)

	docs := ingest.BatchDocuments(ingested)
	outcomes, stats, err := processor.Process(ctx, docs, constants.NamespaceExtraction, *force)
	if err != nil {
		logger.Error("batch processing failed", "error", err)
		os.Exit(1)
	}
	summary := stats.Summary()

	// Optional derived reports
	if *summarize || *policy != "" {
		var policyText string
		if *policy != "" {
			data, err := os.ReadFile(*policy)
			if err != nil {
				logger.Error("failed to read policy file", "path", *policy, "error", err)
				os.Exit(1)
			}
			policyText = string(data)
		}

		analyst := analysis.NewService(store, llmClient, logger)
		for _, o := range outcomes {
			if o.Status == constants.OutcomeFailed {
				continue
			}
			extracted := string(o.Artifact.Data)
			if *summarize {
				if _, err := analyst.Summarize(ctx, o.DocumentID, extracted, *force); err != nil {
					logger.Error("summary failed", "document_id", o.DocumentID, "error", err)
				}
			}
			if policyText != "" {
				if _, err := analyst.AnalyzePolicy(ctx, o.DocumentID, extracted, policyText, *force); err != nil {
					logger.Error("policy analysis failed", "document_id", o.DocumentID, "error", err)
				}
			}
		}
	}

	// Export to XLSX
	logger.Info("exporting to XLSX", "output", *out)
	exportService := export.NewService(store, logger)
	xlsxBytes, err := exportService.ExportContractsXLSX(ctx)
	if err != nil {
		logger.Error("failed to export contracts", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsxBytes, 0644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	// Log summary
	logger.Info("batch processing complete",
		"discovered", summary.Discovered,
		"cache_hits", summary.CacheHits,
		"processed", summary.Processed,
		"failures", summary.Errors,
		"elapsed_ms", summary.Elapsed.Milliseconds(),
		"output_file", *out)

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Documents discovered: %d\n", summary.Discovered)
	fmt.Printf("- Cache hits: %d\n", summary.CacheHits)
	fmt.Printf("- Processed: %d\n", summary.Processed)
	fmt.Printf("- Failures: %d\n", summary.Errors)
	fmt.Printf("- Output: %s\n", *out)

	report := stats.ErrorReport()
	if report.Total > 0 {
		fmt.Printf("\nRecent errors (%d of %d):\n", len(report.Recent), report.Total)
		for _, e := range report.Recent {
			fmt.Printf("- %s: %s\n", e.DocumentID, e.Message)
		}
		os.Exit(1)
	}
}
