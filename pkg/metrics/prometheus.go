package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements repository.Metrics using Prometheus.
type Recorder struct {
	pipelineItems *prometheus.CounterVec
	forecasts     *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	riskScore     *prometheus.HistogramVec
	latency       *prometheus.HistogramVec
}

// New registers the recorder on the default registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers on reg, so tests can use a private registry.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		pipelineItems: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salespulse_pipeline_items_total",
				Help: "Opportunities handled by the automation pipeline, by outcome",
			},
			[]string{"outcome"},
		),
		forecasts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salespulse_forecasts_total",
				Help: "Ensemble forecasts produced, by kind and number of sources used",
			},
			[]string{"kind", "sources"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salespulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		riskScore: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "salespulse_deal_risk_score",
				Help:    "Distribution of deal risk scores",
				Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			},
			[]string{"category"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "salespulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordPipelineItem counts one opportunity by outcome (ok, error, task, alert).
func (r *Recorder) RecordPipelineItem(outcome string) {
	r.pipelineItems.WithLabelValues(outcome).Inc()
}

// RecordForecast counts one ensemble result.
func (r *Recorder) RecordForecast(kind string, sources int) {
	label := "2"
	if sources < 2 {
		label = "1"
	}
	r.forecasts.WithLabelValues(kind, label).Inc()
}

// RecordDealRisk observes one deal risk score.
func (r *Recorder) RecordDealRisk(category string, score float64) {
	r.riskScore.WithLabelValues(category).Observe(score)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
