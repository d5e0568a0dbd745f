package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a12042020/contract-analyzer/constants"
	"github.com/a12042020/contract-analyzer/internal/cache"
	"github.com/a12042020/contract-analyzer/internal/fingerprint"
)

// stubExtractor echoes an artifact for any input except contents it is told
// to fail on. It counts every invocation.
type stubExtractor struct {
	mu    sync.Mutex
	calls int
	fail  map[string]bool
	delay time.Duration
}

func (s *stubExtractor) Extract(_ context.Context, content string) (cache.Artifact, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.fail[content] {
		return cache.Artifact{}, errors.New("extraction service rejected the document")
	}
	data, _ := json.Marshal(map[string]any{"title": content, "ok": true})
	return cache.Artifact{Schema: "contract_fields", Data: data}, nil
}

func (s *stubExtractor) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// flakyStore wraps a real store and injects read/write failures.
type flakyStore struct {
	cache.Store
	failGet bool
	failPut bool
}

func (f *flakyStore) Get(ctx context.Context, ns constants.Namespace, key string) (cache.Artifact, bool, error) {
	if f.failGet {
		return cache.Artifact{}, false, errors.New("store unreachable")
	}
	return f.Store.Get(ctx, ns, key)
}

func (f *flakyStore) Put(ctx context.Context, ns constants.Namespace, key string, a cache.Artifact) error {
	if f.failPut {
		return errors.New("disk full")
	}
	return f.Store.Put(ctx, ns, key, a)
}

func outcomesByID(outcomes []Outcome) map[string]Outcome {
	m := make(map[string]Outcome, len(outcomes))
	for _, o := range outcomes {
		m[o.DocumentID] = o
	}
	return m
}

func TestProcess_EmptyInput(t *testing.T) {
	ext := &stubExtractor{}
	p := NewProcessor(cache.NewFSStore(t.TempDir(), nil), ext, nil)

	outcomes, stats, err := p.Process(context.Background(), nil, constants.NamespaceExtraction, false)
	require.NoError(t, err)
	assert.Empty(t, outcomes)
	assert.Equal(t, 0, ext.callCount())
	assert.Equal(t, 0, stats.Summary().Discovered)
}

func TestProcess_PartialFailureIsolation(t *testing.T) {
	ctx := context.Background()
	store := cache.NewFSStore(t.TempDir(), nil)
	ext := &stubExtractor{fail: map[string]bool{"text-B": true}}
	p := NewProcessor(store, ext, nil)

	docs := []Document{
		{ID: "a", Content: "text-A"},
		{ID: "b", Content: "text-B"},
		{ID: "c", Content: "text-C"},
	}
	outcomes, stats, err := p.Process(ctx, docs, constants.NamespaceExtraction, false)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	byID := outcomesByID(outcomes)
	assert.Equal(t, constants.OutcomeComputed, byID["a"].Status)
	assert.Equal(t, constants.OutcomeComputed, byID["c"].Status)
	assert.Equal(t, constants.OutcomeFailed, byID["b"].Status)
	assert.NotEmpty(t, byID["b"].Err)
	assert.Equal(t, "a", byID["a"].Artifact.DocumentID, "artifact is stamped with its document id")

	sum := stats.Summary()
	assert.Equal(t, 3, sum.Discovered)
	assert.Equal(t, 2, sum.Processed)
	assert.Equal(t, 1, sum.Errors)
	assert.Equal(t, 0, sum.CacheHits)

	// Successes are persisted under their content fingerprints; failures never are.
	_, ok, err := store.Get(ctx, constants.NamespaceExtraction, fingerprint.Content("text-A").String())
	require.NoError(t, err)
	assert.True(t, ok)
	_, ok, err = store.Get(ctx, constants.NamespaceExtraction, fingerprint.Content("text-B").String())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProcess_SecondRunServesFromCache(t *testing.T) {
	ctx := context.Background()
	store := cache.NewFSStore(t.TempDir(), nil)
	ext := &stubExtractor{fail: map[string]bool{"text-B": true}}
	p := NewProcessor(store, ext, nil)

	docs := []Document{
		{ID: "a", Content: "text-A"},
		{ID: "b", Content: "text-B"},
		{ID: "c", Content: "text-C"},
	}
	first, _, err := p.Process(ctx, docs, constants.NamespaceExtraction, false)
	require.NoError(t, err)
	callsAfterFirst := ext.callCount()
	require.Equal(t, 3, callsAfterFirst)

	second, stats, err := p.Process(ctx, docs, constants.NamespaceExtraction, false)
	require.NoError(t, err)
	require.Len(t, second, 3)

	byID := outcomesByID(second)
	assert.Equal(t, constants.OutcomeCacheHit, byID["a"].Status)
	assert.Equal(t, constants.OutcomeCacheHit, byID["c"].Status)
	// b failed last time, so nothing was cached and it is dispatched again.
	assert.Equal(t, constants.OutcomeFailed, byID["b"].Status)
	assert.Equal(t, callsAfterFirst+1, ext.callCount())

	// Cached artifacts round-trip identically.
	firstByID := outcomesByID(first)
	assert.JSONEq(t, string(firstByID["a"].Artifact.Data), string(byID["a"].Artifact.Data))

	sum := stats.Summary()
	assert.Equal(t, 2, sum.CacheHits)
	assert.Equal(t, 0, sum.Processed)
	assert.Equal(t, 1, sum.Errors)
}

func TestProcess_IdempotentSecondRunMakesNoCalls(t *testing.T) {
	ctx := context.Background()
	store := cache.NewFSStore(t.TempDir(), nil)
	ext := &stubExtractor{}
	p := NewProcessor(store, ext, nil)

	docs := []Document{{ID: "a", Content: "alpha"}, {ID: "b", Content: "beta"}}
	_, _, err := p.Process(ctx, docs, constants.NamespaceExtraction, false)
	require.NoError(t, err)
	require.Equal(t, 2, ext.callCount())

	outcomes, _, err := p.Process(ctx, docs, constants.NamespaceExtraction, false)
	require.NoError(t, err)
	assert.Equal(t, 2, ext.callCount(), "a fully cached batch makes zero external calls")
	for _, o := range outcomes {
		assert.Equal(t, constants.OutcomeCacheHit, o.Status)
	}
}

func TestProcess_ForceRecomputesFullyCachedBatch(t *testing.T) {
	ctx := context.Background()
	store := cache.NewFSStore(t.TempDir(), nil)
	ext := &stubExtractor{}
	p := NewProcessor(store, ext, nil)

	docs := []Document{{ID: "a", Content: "alpha"}, {ID: "b", Content: "beta"}}
	_, _, err := p.Process(ctx, docs, constants.NamespaceExtraction, false)
	require.NoError(t, err)
	require.Equal(t, 2, ext.callCount())

	outcomes, stats, err := p.Process(ctx, docs, constants.NamespaceExtraction, true)
	require.NoError(t, err)
	assert.Equal(t, 4, ext.callCount(), "force bypasses cache reads")
	for _, o := range outcomes {
		assert.Equal(t, constants.OutcomeComputed, o.Status)
	}
	assert.Equal(t, 0, stats.Summary().CacheHits)
}

func TestProcess_ExactlyOneOutcomePerDocument(t *testing.T) {
	ctx := context.Background()
	ext := &stubExtractor{fail: map[string]bool{"bad": true}}
	p := NewProcessor(cache.NewFSStore(t.TempDir(), nil), ext, nil)

	docs := make([]Document, 0, 20)
	for i := 0; i < 20; i++ {
		content := fmt.Sprintf("doc %d", i)
		if i == 7 {
			content = "bad"
		}
		docs = append(docs, Document{ID: fmt.Sprintf("d%02d", i), Content: content})
	}
	outcomes, _, err := p.Process(ctx, docs, constants.NamespaceExtraction, false)
	require.NoError(t, err)
	require.Len(t, outcomes, 20)

	seen := make(map[string]int)
	for _, o := range outcomes {
		seen[o.DocumentID]++
	}
	for _, d := range docs {
		assert.Equal(t, 1, seen[d.ID], "document %s must have exactly one outcome", d.ID)
	}
}

func TestProcess_CacheHitsPrecedeComputedOutcomes(t *testing.T) {
	ctx := context.Background()
	store := cache.NewFSStore(t.TempDir(), nil)
	ext := &stubExtractor{}
	p := NewProcessor(store, ext, nil)

	_, _, err := p.Process(ctx, []Document{{ID: "cached", Content: "warm"}}, constants.NamespaceExtraction, false)
	require.NoError(t, err)

	outcomes, _, err := p.Process(ctx, []Document{
		{ID: "fresh", Content: "cold"},
		{ID: "cached", Content: "warm"},
	}, constants.NamespaceExtraction, false)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, constants.OutcomeCacheHit, outcomes[0].Status)
	assert.Equal(t, "cached", outcomes[0].DocumentID)
}

func TestProcess_DeduplicationSharesOneCall(t *testing.T) {
	ctx := context.Background()
	ext := &stubExtractor{delay: 200 * time.Millisecond}
	p := NewProcessor(cache.NewFSStore(t.TempDir(), nil), ext, nil, WithDeduplication())

	docs := []Document{
		{ID: "left", Content: "identical body"},
		{ID: "right", Content: "identical body"},
	}
	outcomes, _, err := p.Process(ctx, docs, constants.NamespaceExtraction, false)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, 1, ext.callCount(), "duplicate content shares one in-flight call")

	byID := outcomesByID(outcomes)
	assert.Equal(t, "left", byID["left"].Artifact.DocumentID)
	assert.Equal(t, "right", byID["right"].Artifact.DocumentID)
}

func TestProcess_MaxInFlightStillCompletesAll(t *testing.T) {
	ctx := context.Background()
	ext := &stubExtractor{delay: 5 * time.Millisecond}
	p := NewProcessor(cache.NewFSStore(t.TempDir(), nil), ext, nil, WithMaxInFlight(2))

	docs := make([]Document, 0, 10)
	for i := 0; i < 10; i++ {
		docs = append(docs, Document{ID: fmt.Sprintf("d%d", i), Content: fmt.Sprintf("body %d", i)})
	}
	outcomes, stats, err := p.Process(ctx, docs, constants.NamespaceExtraction, false)
	require.NoError(t, err)
	assert.Len(t, outcomes, 10)
	assert.Equal(t, 10, stats.Summary().Processed)
}

func TestProcess_PersistFailureIsAWarningNotAFailure(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{Store: cache.NewFSStore(t.TempDir(), nil), failPut: true}
	ext := &stubExtractor{}
	p := NewProcessor(store, ext, nil)

	outcomes, stats, err := p.Process(ctx, []Document{{ID: "a", Content: "alpha"}}, constants.NamespaceExtraction, false)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, constants.OutcomeComputed, outcomes[0].Status)
	assert.NotEmpty(t, outcomes[0].PersistErr)
	assert.NotEmpty(t, outcomes[0].Artifact.Data, "the in-memory artifact is still returned")
	assert.Equal(t, 0, stats.Summary().Errors)
}

func TestProcess_StoreReadErrorFailsOpen(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{Store: cache.NewFSStore(t.TempDir(), nil), failGet: true}
	ext := &stubExtractor{}
	p := NewProcessor(store, ext, nil)

	outcomes, _, err := p.Process(ctx, []Document{{ID: "a", Content: "alpha"}}, constants.NamespaceExtraction, false)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, constants.OutcomeComputed, outcomes[0].Status)
	assert.Equal(t, 1, ext.callCount(), "a broken read recomputes instead of aborting")
}

func TestProcess_FailFastAbortsOnStoreError(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{Store: cache.NewFSStore(t.TempDir(), nil), failGet: true}
	p := NewProcessor(store, &stubExtractor{}, nil, WithFailFast())

	_, _, err := p.Process(ctx, []Document{{ID: "a", Content: "alpha"}}, constants.NamespaceExtraction, false)
	assert.Error(t, err)
}

func TestProcessOne(t *testing.T) {
	ctx := context.Background()
	store := cache.NewFSStore(t.TempDir(), nil)
	ext := &stubExtractor{fail: map[string]bool{"broken": true}}
	p := NewProcessor(store, ext, nil)

	a, err := p.ProcessOne(ctx, "doc-1", "some contract text", constants.NamespaceExtraction, false)
	require.NoError(t, err)
	assert.Equal(t, "doc-1", a.DocumentID)

	_, err = p.ProcessOne(ctx, "doc-2", "broken", constants.NamespaceExtraction, false)
	assert.Error(t, err)
}

func TestProcess_EmptyContentIsStillDispatched(t *testing.T) {
	ctx := context.Background()
	ext := &stubExtractor{}
	p := NewProcessor(cache.NewFSStore(t.TempDir(), nil), ext, nil)

	outcomes, _, err := p.Process(ctx, []Document{{ID: "empty", Content: ""}}, constants.NamespaceExtraction, false)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, constants.OutcomeComputed, outcomes[0].Status)
	assert.Equal(t, 1, ext.callCount())
}
