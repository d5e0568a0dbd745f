package batch

import (
	"sync"
	"time"
)

// errorDisplayWindow caps how many error details a report shows. The full
// error count is always retained.
const errorDisplayWindow = 10

// ErrorDetail is one entry in the bounded error log.
type ErrorDetail struct {
	DocumentID string
	Message    string
}

// Summary is a point-in-time view of the counters for reporting.
type Summary struct {
	Discovered int
	Processed  int
	CacheHits  int
	Errors     int
	Elapsed    time.Duration
}

// ErrorReport holds the most recent failures plus the total failure count.
type ErrorReport struct {
	Recent []ErrorDetail
	Total  int
}

// RunStats tracks counters and an error log for one batch invocation.
// Counters only ever increase. Safe for concurrent use, though the processor
// funnels all updates through its aggregator.
type RunStats struct {
	mu         sync.Mutex
	start      time.Time
	discovered int
	processed  int
	cacheHits  int
	errors     int
	errorLog   []ErrorDetail
}

// NewRunStats starts tracking a new batch invocation.
func NewRunStats() *RunStats {
	return &RunStats{start: time.Now()}
}

// SetDiscovered records how many documents entered the batch.
func (s *RunStats) SetDiscovered(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discovered = n
}

// MarkCacheHit counts a document served from the cache store.
func (s *RunStats) MarkCacheHit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cacheHits++
}

// MarkProcessed counts a freshly extracted document.
func (s *RunStats) MarkProcessed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed++
}

// AddError counts a failure and appends it to the error log.
func (s *RunStats) AddError(documentID, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors++
	s.errorLog = append(s.errorLog, ErrorDetail{DocumentID: documentID, Message: message})
}

// Elapsed returns the time since the batch started.
func (s *RunStats) Elapsed() time.Duration {
	return time.Since(s.start)
}

// Summary returns the current counter values.
func (s *RunStats) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summary{
		Discovered: s.discovered,
		Processed:  s.processed,
		CacheHits:  s.cacheHits,
		Errors:     s.errors,
		Elapsed:    time.Since(s.start),
	}
}

// ErrorReport returns the last errorDisplayWindow failures and the total count.
func (s *RunStats) ErrorReport() ErrorReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	recent := s.errorLog
	if len(recent) > errorDisplayWindow {
		recent = recent[len(recent)-errorDisplayWindow:]
	}
	out := make([]ErrorDetail, len(recent))
	copy(out, recent)
	return ErrorReport{Recent: out, Total: len(s.errorLog)}
}
