package extract

import (
	"context"
	"fmt"

	"github.com/a12042020/contract-analyzer/internal/cache"
)

// ArtifactExtractor adapts a FieldExtractor to the orchestrator's opaque
// artifact contract, validating the payload against the registered schema
// before it enters the cache.
type ArtifactExtractor struct {
	inner    FieldExtractor
	registry *Registry
}

func NewArtifactExtractor(inner FieldExtractor, registry *Registry) *ArtifactExtractor {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &ArtifactExtractor{inner: inner, registry: registry}
}

func (e *ArtifactExtractor) Extract(ctx context.Context, content string) (cache.Artifact, error) {
	_, raw, err := e.inner.ExtractFields(ctx, content)
	if err != nil {
		return cache.Artifact{}, err
	}
	entry, err := e.registry.Lookup(SchemaContractFields)
	if err != nil {
		return cache.Artifact{}, err
	}
	if err := entry.Validate(raw); err != nil {
		return cache.Artifact{}, fmt.Errorf("artifact payload: %w", err)
	}
	return cache.Artifact{Schema: entry.Tag, Data: raw}, nil
}
