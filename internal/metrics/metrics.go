// Package metrics exposes Prometheus counters for long batch runs so an
// operator can watch progress from outside the terminal.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	globalMetrics     *Metrics
	globalMetricsOnce sync.Once
)

// Metrics holds all Prometheus metrics for a batch run.
type Metrics struct {
	FilesTotal      *prometheus.CounterVec
	BytesSaved      prometheus.Counter
	BytesProcessed  prometheus.Counter
	InProgress      prometheus.Gauge
	EncodeDuration  prometheus.Histogram
	CurrentPosition prometheus.Gauge
}

// New creates and registers all metrics (singleton to avoid double
// registration when tests construct it repeatedly).
func New() *Metrics {
	globalMetricsOnce.Do(func() {
		globalMetrics = newMetrics()
	})
	return globalMetrics
}

func newMetrics() *Metrics {
	m := &Metrics{
		FilesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "squeeze",
				Subsystem: "files",
				Name:      "total",
				Help:      "Files reaching a terminal state, by outcome",
			},
			[]string{"outcome"},
		),
		BytesSaved: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "squeeze",
				Name:      "bytes_saved_total",
				Help:      "Bytes reclaimed by replaced files",
			},
		),
		BytesProcessed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "squeeze",
				Name:      "bytes_processed_total",
				Help:      "Original bytes of files reaching a terminal state",
			},
		),
		InProgress: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "squeeze",
				Subsystem: "files",
				Name:      "in_progress",
				Help:      "Whether an encode is currently running (0 or 1)",
			},
		),
		EncodeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "squeeze",
				Name:      "encode_duration_seconds",
				Help:      "Wall time per file encode",
				Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600},
			},
		),
		CurrentPosition: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "squeeze",
				Subsystem: "batch",
				Name:      "position",
				Help:      "Index of the candidate currently being processed",
			},
		),
	}

	prometheus.MustRegister(
		m.FilesTotal, m.BytesSaved, m.BytesProcessed,
		m.InProgress, m.EncodeDuration, m.CurrentPosition,
	)
	return m
}

// ObserveOutcome records one terminal per-file state.
func (m *Metrics) ObserveOutcome(outcome string, originalSize, savedBytes int64, elapsed time.Duration) {
	m.FilesTotal.WithLabelValues(outcome).Inc()
	m.BytesProcessed.Add(float64(originalSize))
	if savedBytes > 0 {
		m.BytesSaved.Add(float64(savedBytes))
	}
	m.EncodeDuration.Observe(elapsed.Seconds())
}

// Serve starts the metrics HTTP listener on addr. It blocks, so callers run
// it in a goroutine; the server dies with the process at run end.
func (m *Metrics) Serve(addr string) error {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return http.ListenAndServe(addr, r)
}
