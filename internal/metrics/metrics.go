// Package metrics exports dataization counters in the Prometheus format.
package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sbl8/eoc/runtime"
)

// Collector holds Prometheus metrics for a series of dataizations. Each
// collector owns its registry, so drivers and tests never collide on
// registration.
//
// Metrics:
//   - eoc_dataizations_total{outcome} - Count of dataizations by ok/error
//   - eoc_atoms_total{atom} - Count of atom invocations
//   - eoc_transitions_total{kind} - Count of evaluation transitions
//   - eoc_dataize_duration_seconds - Histogram of dataization times
//   - eoc_live_baskets - Baskets alive after the last dataization
//   - eoc_peak_baskets - Largest basket count observed
type Collector struct {
	registry *prometheus.Registry

	DataizationsTotal *prometheus.CounterVec
	AtomsTotal        *prometheus.CounterVec
	TransitionsTotal  *prometheus.CounterVec
	DataizeDuration   prometheus.Histogram
	LiveBaskets       prometheus.Gauge
	PeakBaskets       prometheus.Gauge
}

// NewCollector creates a collector with a private registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		DataizationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eoc_dataizations_total",
				Help: "Total number of dataizations",
			},
			[]string{"outcome"}, // "ok" or "error"
		),

		AtomsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eoc_atoms_total",
				Help: "Total number of atom invocations",
			},
			[]string{"atom"},
		),

		TransitionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eoc_transitions_total",
				Help: "Total number of evaluation transitions",
			},
			[]string{"kind"},
		),

		DataizeDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "eoc_dataize_duration_seconds",
				Help:    "Duration of one dataization in seconds",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10), // 10µs to ~2.6s
			},
		),

		LiveBaskets: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "eoc_live_baskets",
				Help: "Baskets alive after the last dataization",
			},
		),

		PeakBaskets: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "eoc_peak_baskets",
				Help: "Largest number of baskets alive at once",
			},
		),
	}
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Record adds one dataization snapshot.
func (c *Collector) Record(perf runtime.Perf, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.DataizationsTotal.WithLabelValues(outcome).Inc()
	c.DataizeDuration.Observe(elapsed.Seconds())

	for _, name := range perf.AtomNames() {
		c.AtomsTotal.WithLabelValues(name).Add(float64(perf.Atoms[name]))
	}
	for _, t := range runtime.Transitions() {
		if n := perf.Count(t); n > 0 {
			c.TransitionsTotal.WithLabelValues(t.String()).Add(float64(n))
		}
	}
}

// RecordBaskets updates the basket gauges.
func (c *Collector) RecordBaskets(b *runtime.Baskets) {
	c.LiveBaskets.Set(float64(b.Live()))
	c.PeakBaskets.Set(float64(b.Peak()))
}

// RecordStats updates the basket gauges from an engine's counters.
func (c *Collector) RecordStats(s runtime.Stats) {
	c.LiveBaskets.Set(float64(s.LiveBaskets))
	c.PeakBaskets.Set(float64(s.PeakBaskets))
}

// WriteTextfile writes every metric to path in the text exposition format,
// for pickup by a node exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return errors.Wrapf(err, "write metrics to %s", path)
	}
	return nil
}
