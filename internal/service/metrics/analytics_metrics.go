// Package metrics instruments calls to the model-serving process.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	AnalyticsLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "salespulse",
			Subsystem: "analytics",
			Name:      "latency_seconds",
			Help:      "Latency of model-serving calls",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	AnalyticsErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "salespulse",
			Subsystem: "analytics",
			Name:      "errors_total",
			Help:      "Failed model-serving calls by endpoint",
		},
		[]string{"endpoint"},
	)
)

// Register adds the analytics collectors to the default registry once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(AnalyticsLatency, AnalyticsErrors)
	})
}

// ObserveAnalytics records one call started at start.
func ObserveAnalytics(endpoint string, start time.Time, err error) {
	AnalyticsLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		AnalyticsErrors.WithLabelValues(endpoint).Inc()
	}
}
