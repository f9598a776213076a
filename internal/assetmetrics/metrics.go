// Package assetmetrics exposes Prometheus instrumentation for the asset
// runtime: load tracker state, processing queue depth, and storage
// eviction activity. The core never starts an HTTP server; a host process
// mounts Handler() wherever it already serves /metrics.
package assetmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
)

var (
	AssetsLoading = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "assets_loading",
		Help: "Number of assets currently in the Loading state",
	})

	AssetsLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "assets_loaded",
		Help: "Number of assets currently in the Loaded state",
	})

	AssetsErrored = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "assets_errored",
		Help: "Number of assets currently in the Error or DoesNotExist state",
	})

	RefOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_ref_ops_total",
			Help: "Total number of reference-count operations drained by the tracker, by kind",
		},
		[]string{"kind"}, // increase | decrease
	)

	QueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "asset_processing_queue_depth",
			Help: "Number of entries waiting in a per-type processing queue",
		},
		[]string{"data_type"},
	)

	ProcessTickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "asset_tracker_process_duration_seconds",
			Help:    "Time taken by one Tracker.Process tick",
			Buckets: prometheus.DefBuckets,
		},
	)

	EvictionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "asset_evictions_total",
		Help: "Total number of asset slots freed after their grace period expired",
	})

	HotReloadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "asset_hot_reloads_total",
		Help: "Total number of times an already-loaded asset was replaced by a new version",
	})
)

func init() {
	prometheus.MustRegister(
		AssetsLoading,
		AssetsLoaded,
		AssetsErrored,
		RefOpsTotal,
		QueueDepth,
		ProcessTickDuration,
		EvictionsTotal,
		HotReloadsTotal,
	)
}

// Handler returns the promhttp handler for a host process to mount.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer measures an operation's duration for later observation into a
// histogram.
type Timer struct {
	start time.Time
}

// NewTimer starts a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration records the elapsed time into histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(t.Duration().Seconds())
}
