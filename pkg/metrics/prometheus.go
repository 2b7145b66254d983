package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	providerCalls    *prometheus.CounterVec
	providerErrors   *prometheus.CounterVec
	providerLatency  *prometheus.HistogramVec
	fieldUnavailable *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	lastValue        *prometheus.GaugeVec
}

// New creates a recorder registered on the default Prometheus registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder registered on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		providerCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macropulse_provider_requests_total",
				Help: "Total number of upstream provider calls",
			},
			[]string{"provider", "field"},
		),
		providerErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macropulse_provider_errors_total",
				Help: "Total number of failed upstream provider calls",
			},
			[]string{"provider", "field"},
		),
		providerLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "macropulse_provider_duration_seconds",
				Help:    "Duration of upstream provider calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		fieldUnavailable: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macropulse_field_unavailable_total",
				Help: "Number of times every provider for a field failed",
			},
			[]string{"field"},
		),
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macropulse_cache_lookups_total",
				Help: "Response cache lookups by result",
			},
			[]string{"result"},
		),
		lastValue: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "macropulse_field_last_value",
				Help: "Last resolved value for a field",
			},
			[]string{"field"},
		),
	}
}

// RecordProviderCall records one upstream call and its outcome.
func (r *Recorder) RecordProviderCall(provider, field string, d time.Duration, err error) {
	r.providerCalls.WithLabelValues(provider, field).Inc()
	r.providerLatency.WithLabelValues(provider).Observe(d.Seconds())
	if err != nil {
		r.providerErrors.WithLabelValues(provider, field).Inc()
	}
}

// RecordFieldUnavailable records a field whose fallback chain was exhausted.
func (r *Recorder) RecordFieldUnavailable(field string) {
	r.fieldUnavailable.WithLabelValues(field).Inc()
}

// RecordCacheLookup records a response cache hit or miss.
func (r *Recorder) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

// RecordLastValue records the last resolved value for a field.
func (r *Recorder) RecordLastValue(field string, v float64) {
	r.lastValue.WithLabelValues(field).Set(v)
}
