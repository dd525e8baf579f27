package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	providerRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_provider_requests_total",
			Help: "Total number of requests to the completion provider.",
		},
		[]string{"provider", "model", "status"},
	)
	providerRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_provider_request_duration_seconds",
			Help:    "Histogram of completion provider request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "model"},
	)
	providerPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_provider_prompt_tokens",
			Help:    "Histogram of prompt token counts.",
			Buckets: prometheus.LinearBuckets(250, 250, 20),
		},
		[]string{"provider", "model"},
	)
	providerCompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_provider_completion_tokens",
			Help:    "Histogram of completion token counts.",
			Buckets: prometheus.LinearBuckets(100, 100, 20),
		},
		[]string{"provider", "model"},
	)
	turnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_turns_total",
			Help: "Turns served, by branch and outcome (ok, degraded, crisis, empty).",
		},
		[]string{"branch", "outcome"},
	)
	extractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_extractions_total",
			Help: "Character extractions served, by outcome.",
		},
		[]string{"outcome"},
	)
	lintWarningsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_lint_warnings_total",
			Help: "Style rule violations found in generated turns.",
		},
		[]string{"rule"},
	)
)
