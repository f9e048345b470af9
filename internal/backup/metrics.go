package backup

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncDurationHistogram = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "growthrec_sync_duration_seconds",
		Help:    "Time to complete a sync",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"direction", "status"})

	syncOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "growthrec_sync_operations_total",
		Help: "Total sync operations by direction and status",
	}, []string{"direction", "status"})

	syncPayloadBytes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "growthrec_sync_payload_bytes",
		Help: "Size of the most recently transferred sync file in bytes",
	}, []string{"direction"})

	lastSyncTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "growthrec_last_sync_timestamp_seconds",
		Help: "Unix time of the last successful sync",
	})
)
