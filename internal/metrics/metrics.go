// Package metrics exposes Prometheus counters for the ingestion and rollup
// paths. Registered on the default registry and served at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PageViewsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clientpulse_page_views_ingested_total",
		Help: "Total number of page view events accepted for storage",
	})

	PageViewsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clientpulse_page_views_dropped_total",
		Help: "Page view events dropped because the tenant is unknown",
	})

	LeadsCaptured = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clientpulse_leads_captured_total",
		Help: "Total number of lead notifications stored",
	})

	RollupRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clientpulse_rollup_runs_total",
		Help: "Total number of per-tenant-day rollup units executed",
	})

	RollupFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clientpulse_rollup_failures_total",
		Help: "Per-tenant-day rollup units that failed and will be retried next run",
	})

	SnapshotsCollected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clientpulse_snapshots_collected_total",
		Help: "Third-party analytics snapshots stored, by source",
	}, []string{"source"})
)
