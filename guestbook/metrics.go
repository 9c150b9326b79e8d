package guestbook

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arnvald/controller"
)

// Metrics instruments every action through the shared base chains: a
// prepend-before counts the request in, an append-after observes duration.
// Those insertion modes bracket whatever the derived actions declare
// themselves.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "guestbook_requests_total",
			Help: "Invocations started, by action.",
		}, []string{"action"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "guestbook_request_duration_seconds",
			Help:    "Duration of completed invocations, by action.",
			Buckets: prometheus.DefBuckets,
		}, []string{"action"}),
	}
	m.registry.MustRegister(m.requests, m.duration)
	return m
}

// Registry exposes the demo's private registry for the /metrics endpoint.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) begin(c *controller.Context) error {
	m.requests.WithLabelValues(c.ActionName()).Inc()
	c.Set("metrics.startedAt", time.Now())
	return nil
}

// finish only runs for invocations that made it through the whole pipeline;
// halted and failed ones skip the after chain, so the histogram measures
// full runs.
func (m *Metrics) finish(c *controller.Context) error {
	if started, ok := c.Value("metrics.startedAt").(time.Time); ok {
		m.duration.WithLabelValues(c.ActionName()).Observe(time.Since(started).Seconds())
	}
	return nil
}
