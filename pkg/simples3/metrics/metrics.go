// Package metrics provides optional Prometheus instrumentation for
// client operations. Install it with simples3.WithObserver.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ClientMetrics holds Prometheus collectors for object-store client
// instrumentation. It implements the simples3.Observer interface.
type ClientMetrics struct {
	ops     *prometheus.CounterVec
	bytes   *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// New registers client metrics on the provided registerer.
func New(reg prometheus.Registerer) *ClientMetrics {
	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "simples3",
		Subsystem: "client",
		Name:      "ops_total",
		Help:      "Total number of object-store operations by result.",
	}, []string{"op", "result"}) // result = "ok" | "error"
	bytes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "simples3",
		Subsystem: "client",
		Name:      "bytes_total",
		Help:      "Total payload bytes processed by object-store operations.",
	}, []string{"op"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "simples3",
		Subsystem: "client",
		Name:      "op_duration_seconds",
		Help:      "Histogram of object-store operation durations in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})

	reg.MustRegister(ops, bytes, latency)

	return &ClientMetrics{ops: ops, bytes: bytes, latency: latency}
}

// Observe records one operation with optional payload bytes and error.
func (m *ClientMetrics) Observe(op string, bytes int64, err error, dur time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ops.WithLabelValues(op, result).Inc()
	if bytes > 0 {
		m.bytes.WithLabelValues(op).Add(float64(bytes))
	}
	m.latency.WithLabelValues(op).Observe(dur.Seconds())
}
