package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/a12042020/contract-analyzer/constants"
	"github.com/a12042020/contract-analyzer/internal/ingest"
)

func newExtractCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <path>...",
		Short: "Extract structured fields from one or more contract documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cleanup, err := a.setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			var docs []ingest.Document
			for _, path := range args {
				doc, err := a.ingestor.IngestPath(ctx, path)
				if err != nil {
					return fmt.Errorf("ingest %s: %w", path, err)
				}
				docs = append(docs, doc)
			}

			outcomes, stats, err := a.processor.Process(ctx, ingest.BatchDocuments(docs), constants.NamespaceExtraction, a.force)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			for _, o := range outcomes {
				if o.Status == constants.OutcomeFailed {
					continue
				}
				if err := enc.Encode(json.RawMessage(o.Artifact.Data)); err != nil {
					return err
				}
			}

			report := stats.ErrorReport()
			if report.Total > 0 {
				for _, e := range report.Recent {
					fmt.Fprintf(cmd.ErrOrStderr(), "error %s: %s\n", e.DocumentID, e.Message)
				}
				return fmt.Errorf("%d of %d documents failed", report.Total, stats.Summary().Discovered)
			}
			return nil
		},
	}
}

// extractOne ingests one path and returns its extracted artifact JSON,
// running the extraction if it is not already cached.
func extractOne(cmd *cobra.Command, a *app, path string) (string, string, error) {
	ctx := cmd.Context()
	doc, err := a.ingestor.IngestPath(ctx, path)
	if err != nil {
		return "", "", fmt.Errorf("ingest %s: %w", path, err)
	}
	artifact, err := a.processor.ProcessOne(ctx, doc.DocumentID, doc.Markdown, constants.NamespaceExtraction, a.force)
	if err != nil {
		return "", "", err
	}
	return doc.DocumentID, string(artifact.Data), nil
}
