package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	agentRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_runs_total",
			Help: "Total number of agent pipeline runs",
		},
		[]string{"intent", "error_kind"},
	)

	agentRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agent_run_duration_seconds",
			Help:    "Agent pipeline run duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"intent"},
	)

	agentRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agent_sql_retries_total",
			Help: "Total number of SQL generation retries after retryable execution failures",
		},
	)

	rateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agent_rate_limited_total",
			Help: "Total number of requests rejected by the per-user rate limit",
		},
	)
)

// observeRun records the pipeline metrics for one completed turn. Retries are
// counted as repeated generate_sql visits beyond the first.
func observeRun(intent, errorKind string, durationSeconds float64, nodePath []string) {
	if errorKind == "" {
		errorKind = "none"
	}
	agentRunsTotal.WithLabelValues(intent, errorKind).Inc()
	agentRunDuration.WithLabelValues(intent).Observe(durationSeconds)

	generations := 0
	for _, node := range nodePath {
		if node == "generate_sql" {
			generations++
		}
	}
	if generations > 1 {
		agentRetriesTotal.Add(float64(generations - 1))
	}
}
