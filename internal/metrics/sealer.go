// Package metrics exposes Prometheus instrumentation for the marketplace
// services.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sealTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "freightledger",
		Subsystem: "sealer",
		Name:      "seal_total",
		Help:      "Count of block seal attempts.",
	}, []string{"status"})

	sealDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "freightledger",
		Subsystem: "sealer",
		Name:      "seal_duration_seconds",
		Help:      "Duration of proof-of-work block sealing.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16),
	}, []string{"status"})

	sealTransactions = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "freightledger",
		Subsystem: "sealer",
		Name:      "seal_transactions",
		Help:      "Number of transactions sealed per block.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})
)

// Sealer tracks metrics for the background sealing service.
type Sealer struct{}

// NewSealer constructs a Sealer metrics observer.
func NewSealer() *Sealer {
	return &Sealer{}
}

// ObserveSeal records one sealing attempt.
func (Sealer) ObserveSeal(err error, transactions int, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	sealTotal.WithLabelValues(status).Inc()
	sealDuration.WithLabelValues(status).Observe(time.Since(started).Seconds())
	if err == nil && transactions > 0 {
		sealTransactions.Observe(float64(transactions))
	}
}
