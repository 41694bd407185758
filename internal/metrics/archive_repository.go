package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	archiveOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "freightledger",
		Subsystem: "archive_repository",
		Name:      "operations_total",
		Help:      "Count of ClickHouse archive operations.",
	}, []string{"operation", "status"})

	archiveOpsDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "freightledger",
		Subsystem: "archive_repository",
		Name:      "operation_duration_seconds",
		Help:      "Duration of ClickHouse archive operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "status"})
)

// ArchiveRepository tracks metrics for the block archive store.
type ArchiveRepository struct{}

// NewArchiveRepository constructs an ArchiveRepository metrics observer.
func NewArchiveRepository() *ArchiveRepository {
	return &ArchiveRepository{}
}

// Observe records one repository operation outcome and duration.
func (ArchiveRepository) Observe(operation string, err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	archiveOpsTotal.WithLabelValues(operation, status).Inc()
	archiveOpsDuration.WithLabelValues(operation, status).Observe(time.Since(started).Seconds())
}
