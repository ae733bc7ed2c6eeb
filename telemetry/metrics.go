// Package telemetry records what the frame loop does: prometheus counters,
// a rolling window of frame times and an optional per-frame CSV file.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds the frame loop counters on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	frames        prometheus.Counter
	recreations   *prometheus.CounterVec
	waitTimeouts  *prometheus.CounterVec
	frameDuration prometheus.Histogram
}

// NewMetrics registers the frame loop metrics on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		frames: factory.NewCounter(prometheus.CounterOpts{
			Name: "particles_frames_total",
			Help: "Total number of presented frames",
		}),
		recreations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "particles_swapchain_recreations_total",
				Help: "Total number of swapchain recreations",
			},
			[]string{"reason"},
		),
		waitTimeouts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "particles_wait_timeouts_total",
				Help: "Total number of timed out fence and timeline waits",
			},
			[]string{"what"},
		),
		frameDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "particles_frame_duration_seconds",
			Help:    "Time from acquire to present of one frame",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}
}

// ObserveFrame counts a presented frame.
func (m *Metrics) ObserveFrame(d time.Duration) {
	m.frames.Inc()
	m.frameDuration.Observe(d.Seconds())
}

// ObserveRecreation counts a swapchain recreation.
func (m *Metrics) ObserveRecreation(reason string) {
	m.recreations.WithLabelValues(reason).Inc()
}

// ObserveTimeout counts a timed out wait.
func (m *Metrics) ObserveTimeout(what string) {
	m.waitTimeouts.WithLabelValues(what).Inc()
}

// Gather collects the current values of every metric.
func (m *Metrics) Gather() ([]*dto.MetricFamily, error) {
	return m.registry.Gather()
}

// Total sums the counter named name over all its label values. Unknown
// names yield 0.
func (m *Metrics) Total(name string) (float64, error) {
	families, err := m.Gather()
	if err != nil {
		return 0, err
	}

	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	return total, nil
}
