package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueriesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codelist_queries_total",
			Help: "Total number of queries processed, by outcome",
		},
		[]string{"outcome"},
	)

	ExtractionStrategyHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codelist_extraction_strategy_total",
			Help: "Parameter extraction results, by winning strategy (none when nothing matched)",
		},
		[]string{"strategy"},
	)

	AnswersSynthesized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codelist_answers_total",
			Help: "Synthesized answers, by question kind",
		},
		[]string{"kind"},
	)

	CompletionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codelist_completion_requests_total",
			Help: "Language model completion requests, by provider and status",
		},
		[]string{"provider", "status"},
	)

	LookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codelist_lookup_duration_seconds",
			Help:    "Duration of CDISC Library codelist lookups in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"standard", "status"},
	)
)
