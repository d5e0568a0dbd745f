package constants

// OutcomeStatus is the canonical status for a per-document processing outcome.
type OutcomeStatus string

// Stable values (store these exact strings in reports and exports).
const (
	OutcomeCacheHit OutcomeStatus = "CACHE_HIT" // served from the cache store
	OutcomeComputed OutcomeStatus = "COMPUTED"  // freshly extracted and persisted
	OutcomeFailed   OutcomeStatus = "FAILED"    // terminal failure for this document
)
