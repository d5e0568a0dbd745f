package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/a12042020/contract-analyzer/internal/batch"
	"github.com/a12042020/contract-analyzer/internal/common"
	"github.com/a12042020/contract-analyzer/internal/extract"
	"github.com/a12042020/contract-analyzer/internal/extract/openai"
	"github.com/a12042020/contract-analyzer/internal/ingest"
	"github.com/a12042020/contract-analyzer/internal/ocr"
)

// app holds the wired services shared by the subcommands.
type app struct {
	cfg       *common.Config
	logger    *slog.Logger
	store     *common.StoreResult
	llm       *openai.Client
	ingestor  *ingest.FSIngestor
	processor *batch.Processor

	force   bool
	verbose bool
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "contract-analyzer",
		Short:         "Extract, summarize and analyze legal contracts",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().BoolVar(&a.force, "force", false, "recompute results even when cached")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newExtractCmd(a),
		newSummarizeCmd(a),
		newAnalyzeCmd(a),
		newListCmd(a),
		newExportCmd(a),
	)
	return root
}

// setup loads configuration and wires the store and clients. Each subcommand
// calls it once from its RunE; the returned cleanup closes the store.
func (a *app) setup(ctx context.Context) (func(), error) {
	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(a.logger)

	_ = godotenv.Load()
	a.cfg = common.LoadConfig()
	if err := a.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	storeResult, err := common.InitStore(ctx, a.cfg, a.logger)
	if err != nil {
		return nil, err
	}
	a.store = storeResult

	a.llm = openai.NewClient(openai.Config{
		APIKey:      a.cfg.LLM.APIKey,
		BaseURL:     a.cfg.LLM.BaseURL,
		Model:       a.cfg.LLM.Model,
		Temperature: a.cfg.LLM.Temperature,
		Timeout:     a.cfg.LLM.Timeout,
	}, a.logger)

	var ocrClient ocr.Extractor
	if a.cfg.OCR.APIKey != "" {
		ocrClient = ocr.NewMistralClient(ocr.Config{
			APIKey:  a.cfg.OCR.APIKey,
			BaseURL: a.cfg.OCR.BaseURL,
			Model:   a.cfg.OCR.Model,
			Timeout: a.cfg.OCR.Timeout,
		}, a.logger)
	}
	a.ingestor = ingest.NewFSIngestor(storeResult.Store, ocrClient, a.logger)

	var opts []batch.Option
	if a.cfg.Batch.MaxInFlight > 0 {
		opts = append(opts, batch.WithMaxInFlight(a.cfg.Batch.MaxInFlight))
	}
	a.processor = batch.NewProcessor(storeResult.Store, extract.NewArtifactExtractor(a.llm, extract.DefaultRegistry()), a.logger, opts...)

	return storeResult.Cleanup, nil
}
