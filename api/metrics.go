package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dbxquery/dbxquery/core"
)

type metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// newMetrics registers the call collectors and an open sessions gauge that
// reads conn on every scrape.
func newMetrics(reg prometheus.Registerer, conn *core.Connection) *metrics {
	m := &metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dbxquery",
			Name:      "calls_total",
			Help:      "Warehouse calls by route and final state.",
		}, []string{"route", "state"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dbxquery",
			Name:      "call_duration_seconds",
			Help:      "Time from session open to fully drained result.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"route"}),
	}

	reg.MustRegister(
		m.calls,
		m.duration,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "dbxquery",
			Name:      "open_sessions",
			Help:      "Warehouse sessions currently open.",
		}, func() float64 {
			return float64(conn.OpenSessions())
		}),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *metrics) observe(route string, call *core.Call) {
	m.calls.WithLabelValues(route, call.GetState().String()).Inc()
	m.duration.WithLabelValues(route).Observe(call.GetTimeTaken().Seconds())
}
