package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "mdpipeline"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once             sync.Once
	stageDuration    *prom.HistogramVec
	stageResults     *prom.CounterVec
	documentDuration prom.Histogram
	documentOutcome  *prom.CounterVec
	documentRetries  prom.Counter
	lookupDuration   *prom.HistogramVec
	lookupResults    *prom.CounterVec
	buildDuration    prom.Histogram
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual transform stages",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"stage"})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.documentDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "document_duration_seconds",
			Help:      "Duration of a full document render including retries",
			Buckets:   prom.DefBuckets,
		})
		pr.documentOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "document_outcomes_total",
			Help:      "Documents by final status",
		}, []string{"outcome"})
		pr.documentRetries = prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "document_retries_total",
			Help:      "Whole-document retries after transient lookup failures",
		})
		pr.lookupDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "lookup_duration_seconds",
			Help:      "Duration of external lookups",
			Buckets:   prom.DefBuckets,
		}, []string{"kind"})
		pr.lookupResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_results_total",
			Help:      "External lookup results by source",
		}, []string{"kind", "result"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		})
		reg.MustRegister(pr.stageDuration, pr.stageResults, pr.documentDuration, pr.documentOutcome,
			pr.documentRetries, pr.lookupDuration, pr.lookupResults, pr.buildDuration)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveDocumentDuration(d time.Duration) {
	if p == nil || p.documentDuration == nil {
		return
	}
	p.documentDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncDocumentOutcome(outcome OutcomeLabel) {
	if p == nil || p.documentOutcome == nil {
		return
	}
	p.documentOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncDocumentRetry() {
	if p == nil || p.documentRetries == nil {
		return
	}
	p.documentRetries.Inc()
}

func (p *PrometheusRecorder) ObserveLookupDuration(kind string, d time.Duration) {
	if p == nil || p.lookupDuration == nil {
		return
	}
	p.lookupDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncLookupResult(kind string, result LookupResult) {
	if p == nil || p.lookupResults == nil {
		return
	}
	p.lookupResults.WithLabelValues(kind, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}
