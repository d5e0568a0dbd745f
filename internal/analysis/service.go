// Package analysis derives summaries and policy-compliance analyses from
// extracted contract artifacts, cached in the derived namespace under a
// fingerprint over every upstream input.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/a12042020/contract-analyzer/constants"
	"github.com/a12042020/contract-analyzer/internal/cache"
	"github.com/a12042020/contract-analyzer/internal/fingerprint"
)

// SchemaReport is the registry tag for derived markdown reports.
const SchemaReport = "markdown_report"

// Report is the payload stored for a derived artifact.
type Report struct {
	Kind     string `json:"kind"` // "summary" | "policy_analysis"
	Markdown string `json:"markdown"`
}

// Analyst is the downstream LLM collaborator for derived operations.
type Analyst interface {
	// Summarize turns extracted contract JSON into a markdown risk summary.
	Summarize(ctx context.Context, extractedJSON string) (string, error)
	// AnalyzePolicy checks extracted contract JSON against a reference policy.
	AnalyzePolicy(ctx context.Context, extractedJSON, policy string) (string, error)
}

// Service caches derived reports in front of the Analyst.
type Service struct {
	store   cache.Store
	analyst Analyst
	logger  *slog.Logger
}

func NewService(store cache.Store, analyst Analyst, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, analyst: analyst, logger: logger}
}

// Summarize returns the markdown summary for one extracted artifact,
// computing and caching it on first request.
func (s *Service) Summarize(ctx context.Context, documentID, extractedJSON string, force bool) (string, error) {
	key := fingerprint.Derived("summary", extractedJSON).String()
	return s.derive(ctx, documentID, key, "summary", force, func() (string, error) {
		return s.analyst.Summarize(ctx, extractedJSON)
	})
}

// AnalyzePolicy returns the policy-compliance analysis for one extracted
// artifact against a reference policy. The key covers both inputs, so a new
// policy revision naturally invalidates prior analyses.
func (s *Service) AnalyzePolicy(ctx context.Context, documentID, extractedJSON, policy string, force bool) (string, error) {
	key := fingerprint.Derived("policy_analysis", extractedJSON, policy).String()
	return s.derive(ctx, documentID, key, "policy_analysis", force, func() (string, error) {
		return s.analyst.AnalyzePolicy(ctx, extractedJSON, policy)
	})
}

func (s *Service) derive(ctx context.Context, documentID, key, kind string, force bool, compute func() (string, error)) (string, error) {
	if !force {
		a, ok, err := s.store.Get(ctx, constants.NamespaceDerived, key)
		if err != nil {
			// Fail open: recompute when the derived cache cannot be read.
			s.logger.Warn("analysis.cache.read_error", "kind", kind, "document_id", documentID, "error", err)
		}
		if ok {
			var r Report
			if err := json.Unmarshal(a.Data, &r); err == nil && r.Kind == kind {
				s.logger.Debug("analysis.cache.hit", "kind", kind, "document_id", documentID)
				return r.Markdown, nil
			}
		}
	}

	markdown, err := compute()
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", kind, documentID, err)
	}

	data, err := json.Marshal(Report{Kind: kind, Markdown: markdown})
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	artifact := cache.Artifact{DocumentID: documentID, Schema: SchemaReport, Data: data}
	if err := s.store.Put(ctx, constants.NamespaceDerived, key, artifact); err != nil {
		// The report is still returned even when persistence fails.
		s.logger.Warn("analysis.cache.write_error", "kind", kind, "document_id", documentID, "error", err)
	}
	return markdown, nil
}
