package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intelbrief_pipeline_runs_total",
			Help: "Total number of research pipeline runs by outcome code",
		},
		[]string{"outcome"},
	)

	PipelineActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "intelbrief_pipeline_active",
			Help: "Number of research pipeline runs in flight",
		},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "intelbrief_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2.5, 10),
		},
		[]string{"stage"},
	)

	ProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intelbrief_provider_calls_total",
			Help: "Outbound provider calls by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	LLMCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intelbrief_llm_calls_total",
			Help: "Language model completion calls by purpose",
		},
		[]string{"purpose"},
	)

	CompetitorDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intelbrief_competitor_candidates_total",
			Help: "Competitor candidates by acceptance decision",
		},
		[]string{"decision"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intelbrief_http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"route", "status"},
	)
)
