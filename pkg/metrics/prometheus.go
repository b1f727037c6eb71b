package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cyclesTotal   *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	instruments   prometheus.Gauge
	alertsEmitted *prometheus.CounterVec
	cacheOps      *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	lastPrice     *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		cyclesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rankpulse_cycles_total",
				Help: "Total number of polling cycles by result",
			},
			[]string{"result"},
		),
		cycleDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rankpulse_cycle_duration_seconds",
				Help:    "Duration of one full polling cycle in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		instruments: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "rankpulse_instruments_processed",
				Help: "Instruments processed in the last committed cycle",
			},
		),
		alertsEmitted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rankpulse_alerts_emitted_total",
				Help: "Total number of alerts emitted by rule and priority",
			},
			[]string{"rule", "priority"},
		),
		cacheOps: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rankpulse_cache_requests_total",
				Help: "Cache lookups by data kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rankpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rankpulse_last_price",
				Help: "Last recorded price for an instrument",
			},
			[]string{"code"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rankpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordCycle records one finished polling cycle.
func (r *Recorder) RecordCycle(result string, seconds float64, instruments int) {
	r.cyclesTotal.WithLabelValues(result).Inc()
	r.cycleDuration.Observe(seconds)
	r.instruments.Set(float64(instruments))
}

// RecordAlert records an emitted alert.
func (r *Recorder) RecordAlert(rule, priority string) {
	r.alertsEmitted.WithLabelValues(rule, priority).Inc()
}

// RecordCacheHit records a cache hit for a data kind.
func (r *Recorder) RecordCacheHit(kind string) {
	r.cacheOps.WithLabelValues(kind, "hit").Inc()
}

// RecordCacheMiss records a cache miss for a data kind.
func (r *Recorder) RecordCacheMiss(kind string) {
	r.cacheOps.WithLabelValues(kind, "miss").Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for an instrument.
func (r *Recorder) RecordLastPrice(code string, price float64) {
	r.lastPrice.WithLabelValues(code).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
