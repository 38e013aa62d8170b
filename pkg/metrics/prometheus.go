package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	refreshTotal *prometheus.CounterVec
	messagesSent *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	lastPrice    *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		refreshTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinboard_refresh_total",
				Help: "Total number of upstream refresh runs",
			},
			[]string{"kind", "result"},
		),
		messagesSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinboard_snapshots_written_total",
				Help: "Total number of coin snapshots written to a backend",
			},
			[]string{"backend", "coin"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinboard_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		cacheLookups: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinboard_cache_lookups_total",
				Help: "Cache lookups partitioned by key kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "coinboard_last_price_usd",
				Help: "Last stored USD price for a coin",
			},
			[]string{"coin"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coinboard_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordRefresh records the outcome of a refresh run ("markets" or "historic").
func (r *Recorder) RecordRefresh(kind string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	r.refreshTotal.WithLabelValues(kind, result).Inc()
}

// RecordSnapshotWritten records a coin snapshot persisted through a backend.
func (r *Recorder) RecordSnapshotWritten(backend, coin string) {
	r.messagesSent.WithLabelValues(backend, coin).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordCacheLookup records a cache hit or miss for a key kind.
func (r *Recorder) RecordCacheLookup(kind string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	r.cacheLookups.WithLabelValues(kind, outcome).Inc()
}

// RecordLastPrice records the last stored price for a coin.
func (r *Recorder) RecordLastPrice(coin string, price float64) {
	r.lastPrice.WithLabelValues(coin).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
