package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// SyncRunsTotal counts orchestrator invocations by outcome.
	SyncRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudsync_sync_runs_total",
			Help: "Total number of tenant sync runs",
		},
		[]string{"outcome"},
	)

	// ResourcesReconciledTotal counts successfully upserted resources.
	ResourcesReconciledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cloudsync_resources_reconciled_total",
			Help: "Total number of resources reconciled into local storage",
		},
	)

	ReconcileErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cloudsync_reconcile_errors_total",
			Help: "Total number of per-record reconciliation failures",
		},
	)

	EnrichmentErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cloudsync_enrichment_errors_total",
			Help: "Total number of enrichment failures",
		},
	)
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		SyncRunsTotal,
		ResourcesReconciledTotal,
		ReconcileErrorsTotal,
		EnrichmentErrorsTotal,
	)
}
