// Package observability exposes the engine's Prometheus metrics and a
// health/readiness HTTP server, mirroring the shape of a service's usual
// /healthz + /metrics surface.
package observability

import "github.com/prometheus/client_golang/prometheus"

// Metrics for ingest throughput, the AI façade, and recall/extraction
// latency.
var (
	PagesCrawledTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "extraction_pages_crawled_total",
		Help: "Total number of pages discovered and cached by ingest",
	})
	PagesSummarizedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "extraction_pages_summarized_total",
		Help: "Total number of pages summarized by ingest",
	})
	PagesSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "extraction_pages_skipped_total",
		Help: "Total number of pages skipped because their summary was already current",
	})
	SummarizeErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "extraction_summarize_errors_total",
		Help: "Total number of pages that failed to summarize",
	})

	AIRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "extraction_ai_request_duration_seconds",
		Help: "AI façade request latency by provider and operation",
	}, []string{"provider", "operation"})
	AIRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "extraction_ai_requests_total",
		Help: "Total AI façade requests by provider, operation, and outcome",
	}, []string{"provider", "operation", "outcome"})
	AIFallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "extraction_ai_fallbacks_total",
		Help: "Total number of times the registry fell back to the next provider",
	}, []string{"from_provider", "to_provider"})

	ExtractDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "extraction_extract_duration_seconds",
		Help: "End-to-end latency of Extract calls",
	})
	RecallHitsHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "extraction_recall_hits",
		Help:    "Number of summaries returned by a recall pass",
		Buckets: prometheus.LinearBuckets(0, 5, 10),
	})
)

func init() {
	prometheus.MustRegister(
		PagesCrawledTotal,
		PagesSummarizedTotal,
		PagesSkippedTotal,
		SummarizeErrorsTotal,
		AIRequestDuration,
		AIRequestsTotal,
		AIFallbacksTotal,
		ExtractDuration,
		RecallHitsHistogram,
	)
}

// ObserveIngestResult records one Ingest call's counts into the ingest
// throughput counters.
func ObserveIngestResult(crawled, summarized, skipped int) {
	PagesCrawledTotal.Add(float64(crawled))
	PagesSummarizedTotal.Add(float64(summarized))
	PagesSkippedTotal.Add(float64(skipped))
}
