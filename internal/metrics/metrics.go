package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RunsTotal counts completed runs by kind and terminal status.
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "digest_runs_total",
		Help: "Completed runs by kind and status.",
	}, []string{"kind", "status"})

	// ReportsGenerated counts HTML reports written to disk.
	ReportsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "digest_reports_generated_total",
		Help: "Reports written to the output directory.",
	})

	// ReportsDeleted counts reports removed by retention sweeps.
	ReportsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "digest_reports_deleted_total",
		Help: "Reports deleted by retention sweeps.",
	})

	// SourcesSkipped counts daily source files skipped as malformed.
	SourcesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "digest_sources_skipped_total",
		Help: "Source files skipped due to unreadable or malformed content.",
	})

	// LastRunTime records the unix time of the most recent finished run.
	LastRunTime = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "digest_last_run_timestamp_seconds",
		Help: "Unix timestamp of the last finished run per kind.",
	}, []string{"kind"})
)

// Handler exposes the default prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
