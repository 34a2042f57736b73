package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scopelens_parsing_seconds",
		Help:    "Time spent building a syntax tree from generated output.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scopelens_analysis_seconds",
		Help:    "Time spent in each stage of a free-variable analysis.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	AnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scopelens_analyses_total",
		Help: "Total number of analyses, by outcome code.",
	}, []string{"outcome"})

	FreeVariablesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scopelens_free_variables_total",
		Help: "Total number of free-variable occurrences reported, by class.",
	}, []string{"class"})

	UnmappedReferencesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scopelens_unmapped_references_total",
		Help: "Total number of references the source map could not place in the original text.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scopelens_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scopelens_http_requests_total",
		Help: "Total number of API requests, by route and status code.",
	}, []string{"route", "code"})

	RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scopelens_http_rate_limited_total",
		Help: "Total number of API requests rejected by the per-client rate limiter.",
	})
)
