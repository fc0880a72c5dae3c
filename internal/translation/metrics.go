package translation

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	backendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csvtrans_backend_requests_total",
			Help: "Total number of backend translation requests",
		},
		[]string{"backend", "status"},
	)

	backendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "csvtrans_backend_request_duration_seconds",
			Help:    "Duration of backend translation requests in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
		},
		[]string{"backend", "status"},
	)

	insecureFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csvtrans_insecure_fallbacks_total",
			Help: "Number of requests retried over plain HTTP after a failed HTTPS attempt",
		},
		[]string{"operation"},
	)
)

func observeRequest(kind Kind, err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "failure"
		if te, ok := err.(*TranslateError); ok {
			status = string(te.Reason)
		}
	}
	backendRequestsTotal.WithLabelValues(string(kind), status).Inc()
	backendRequestDuration.WithLabelValues(string(kind), status).Observe(time.Since(started).Seconds())
}

// RecordInsecureFallback counts a secure-to-insecure retry for operation.
func RecordInsecureFallback(operation string) {
	insecureFallbacksTotal.WithLabelValues(operation).Inc()
}
