package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultSkipped  ResultLabel = "skipped"
	ResultCanceled ResultLabel = "canceled"
)

// OutcomeLabel is the final status of a single document.
type OutcomeLabel string

const (
	OutcomeRendered  OutcomeLabel = "rendered"
	OutcomeDegraded  OutcomeLabel = "degraded"
	OutcomeFailed    OutcomeLabel = "failed"
	OutcomeUnchanged OutcomeLabel = "unchanged"
)

// LookupResult labels external lookup results.
type LookupResult string

const (
	LookupHit   LookupResult = "hit"
	LookupFetch LookupResult = "fetch"
	LookupError LookupResult = "error"
)

// Recorder defines observability hooks for documents, stages and lookups.
// Implementations must be safe for concurrent use.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	ObserveDocumentDuration(d time.Duration)
	IncDocumentOutcome(outcome OutcomeLabel)
	IncDocumentRetry()
	ObserveLookupDuration(kind string, d time.Duration)
	IncLookupResult(kind string, result LookupResult)
	ObserveBuildDuration(d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)  {}
func (NoopRecorder) IncStageResult(string, ResultLabel)          {}
func (NoopRecorder) ObserveDocumentDuration(time.Duration)       {}
func (NoopRecorder) IncDocumentOutcome(OutcomeLabel)             {}
func (NoopRecorder) IncDocumentRetry()                           {}
func (NoopRecorder) ObserveLookupDuration(string, time.Duration) {}
func (NoopRecorder) IncLookupResult(string, LookupResult)        {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)          {}
