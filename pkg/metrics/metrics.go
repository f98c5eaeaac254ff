package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	ResultSucceeded = "succeeded"
	ResultFailed    = "failed"
)

var (
	ApplyResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "konnect_sync_apply_results_total",
			Help: "applied changes by entity type, operation and result",
		},
		[]string{"entity_type", "operation", "result"},
	)
	SyncState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "konnect_sync_entity_state",
			Help: "entities per type and cross-store sync state",
		},
		[]string{"entity_type", "state"},
	)
	DiffDurationSeconds = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "konnect_sync_diff_duration_seconds",
			Help: "wall time of the last diff per phase",
		},
		[]string{"phase"},
	)

	registerOnce sync.Once
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(ApplyResults)
		prometheus.MustRegister(SyncState)
		prometheus.MustRegister(DiffDurationSeconds)
	})
}

func AddApplyResult(entityType, operation, result string, count float64) {
	ApplyResults.WithLabelValues(entityType, operation, result).Add(count)
}

func SetSyncState(entityType, state string, count float64) {
	SyncState.WithLabelValues(entityType, state).Set(count)
}

func SetDiffDuration(phase string, seconds float64) {
	DiffDurationSeconds.WithLabelValues(phase).Set(seconds)
}

func StartMetricsServer(addr string, logger *zap.SugaredLogger) {
	go func() {
		logger.Infof("Starting metrics server on %s", addr)
		RegisterMetrics()
		http.Handle("/metrics", promhttp.Handler())
		_ = http.ListenAndServe(addr, nil)
	}()
}
