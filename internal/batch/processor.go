package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/a12042020/contract-analyzer/constants"
	"github.com/a12042020/contract-analyzer/internal/cache"
	"github.com/a12042020/contract-analyzer/internal/fingerprint"
)

// ErrNoResult reports that a batch call produced no outcome for a document.
// Every input yields exactly one outcome, so this guards a broken invariant.
var ErrNoResult = errors.New("no outcome for document")

// Processor orchestrates one batch at a time: cache probe, concurrent
// dispatch of misses, and aggregation of outcomes. A Processor is stateless
// across batches; each Process call gets its own RunStats.
type Processor struct {
	store     cache.Store
	extractor Extractor
	logger    *slog.Logger

	maxInFlight int
	dedup       bool
	failFast    bool
}

// Option configures a Processor.
type Option func(*Processor)

// WithMaxInFlight bounds how many extraction calls run concurrently.
// Zero or negative means unbounded.
func WithMaxInFlight(n int) Option {
	return func(p *Processor) { p.maxInFlight = n }
}

// WithDeduplication collapses concurrent extraction calls for the same
// fingerprint into one in-flight request. Duplicate-content documents under
// distinct ids then share a single external call per batch.
func WithDeduplication() Option {
	return func(p *Processor) { p.dedup = true }
}

// WithFailFast aborts the whole batch when the cache store itself fails
// during the probe phase, instead of treating read errors as misses.
func WithFailFast() Option {
	return func(p *Processor) { p.failFast = true }
}

// NewProcessor wires a Processor from its collaborators.
func NewProcessor(store cache.Store, extractor Extractor, logger *slog.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		store:     store,
		extractor: extractor,
		logger:    logger,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Process runs one batch. Cache hits come first in insertion order, followed
// by computed and failed outcomes in completion order. Completion order is
// not deterministic; callers that need input order must re-sort by document id.
//
// Per-document extraction failures never abort the batch: they surface as
// FAILED outcomes and entries in the stats error log. The returned error is
// reserved for systemic failures (and only with the fail-fast option).
func (p *Processor) Process(ctx context.Context, docs []Document, ns constants.Namespace, force bool) ([]Outcome, *RunStats, error) {
	stats := NewRunStats()
	stats.SetDiscovered(len(docs))

	p.logger.Info("batch.process.start",
		"namespace", ns, "documents", len(docs), "force", force)

	if len(docs) == 0 {
		return []Outcome{}, stats, nil
	}

	outcomes := make([]Outcome, 0, len(docs))
	pending := make([]Document, 0, len(docs))

	// Probe phase. Skipped entirely under force: reads are bypassed but
	// fresh results are still written below.
	if force {
		pending = append(pending, docs...)
	} else {
		for _, d := range docs {
			key := fingerprint.Content(d.Content).String()
			a, ok, err := p.store.Get(ctx, ns, key)
			if err != nil {
				if p.failFast {
					return nil, stats, fmt.Errorf("cache probe %s: %w", d.ID, err)
				}
				// Fail open: a broken read is a miss, the document recomputes.
				p.logger.Warn("batch.probe.store_error", "document_id", d.ID, "error", err)
			}
			if ok {
				stats.MarkCacheHit()
				outcomes = append(outcomes, Outcome{
					DocumentID: d.ID,
					Status:     constants.OutcomeCacheHit,
					Artifact:   a,
				})
				p.logger.Debug("batch.probe.hit", "document_id", d.ID, "key", key)
				continue
			}
			pending = append(pending, d)
		}
	}

	// Dispatch phase: one unit per remaining document, all in flight together.
	results := make(chan Outcome)
	g := new(errgroup.Group)
	if p.maxInFlight > 0 {
		g.SetLimit(p.maxInFlight)
	}
	var flight *singleflight.Group
	if p.dedup {
		flight = new(singleflight.Group)
	}
	for _, d := range pending {
		d := d
		g.Go(func() error {
			results <- p.runUnit(ctx, ns, d, flight)
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(results)
	}()

	// Aggregation: this loop is the only writer to stats and outcomes while
	// units are in flight.
	for out := range results {
		switch out.Status {
		case constants.OutcomeComputed:
			stats.MarkProcessed()
		case constants.OutcomeFailed:
			stats.AddError(out.DocumentID, out.Err)
		}
		outcomes = append(outcomes, out)
	}

	summary := stats.Summary()
	p.logger.Info("batch.process.done",
		"namespace", ns,
		"discovered", summary.Discovered,
		"processed", summary.Processed,
		"cache_hits", summary.CacheHits,
		"errors", summary.Errors,
		"elapsed_ms", summary.Elapsed.Milliseconds(),
	)
	return outcomes, stats, nil
}

// runUnit invokes the extraction collaborator for one document and classifies
// the result. It never returns an error: failures become FAILED outcomes so
// the rest of the batch is unaffected.
func (p *Processor) runUnit(ctx context.Context, ns constants.Namespace, d Document, flight *singleflight.Group) Outcome {
	key := fingerprint.Content(d.Content).String()

	var (
		artifact cache.Artifact
		err      error
	)
	if flight != nil {
		var v any
		v, err, _ = flight.Do(key, func() (any, error) {
			return p.extractor.Extract(ctx, d.Content)
		})
		if err == nil {
			artifact = v.(cache.Artifact)
		}
	} else {
		artifact, err = p.extractor.Extract(ctx, d.Content)
	}
	if err != nil {
		p.logger.Error("batch.unit.failed", "document_id", d.ID, "error", err)
		return Outcome{
			DocumentID: d.ID,
			Status:     constants.OutcomeFailed,
			Err:        err.Error(),
		}
	}

	// Stamp the originating document's identity; shared singleflight results
	// are value copies, so each document gets its own id.
	artifact.DocumentID = d.ID

	out := Outcome{
		DocumentID: d.ID,
		Status:     constants.OutcomeComputed,
		Artifact:   artifact,
	}
	if perr := p.store.Put(ctx, ns, key, artifact); perr != nil {
		// Persistence failure is a warning, not a processing failure: the
		// in-memory artifact is still returned to the caller.
		p.logger.Warn("batch.unit.persist_failed", "document_id", d.ID, "key", key, "error", perr)
		out.PersistErr = perr.Error()
	} else {
		p.logger.Debug("batch.unit.ok", "document_id", d.ID, "key", key)
	}
	return out
}

// ProcessOne is the synchronous single-document convenience wrapper.
func (p *Processor) ProcessOne(ctx context.Context, id, content string, ns constants.Namespace, force bool) (cache.Artifact, error) {
	outcomes, _, err := p.Process(ctx, []Document{{ID: id, Content: content}}, ns, force)
	if err != nil {
		return cache.Artifact{}, err
	}
	if len(outcomes) == 0 {
		return cache.Artifact{}, fmt.Errorf("%w: %q", ErrNoResult, id)
	}
	out := outcomes[0]
	if out.Status == constants.OutcomeFailed {
		return cache.Artifact{}, fmt.Errorf("process %s: %s", id, out.Err)
	}
	return out.Artifact, nil
}
