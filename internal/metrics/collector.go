// Package metrics exposes Prometheus metrics for a proflog run.
//
// The tool supervises a single child, so everything here is a flat set of
// counters and gauges; there is no per-entity cardinality to manage.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	proflogInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "proflog_info",
			Help: "Information about the supervised run (value always 1)",
		},
		[]string{"version", "command"},
	)

	linesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proflog_lines_total",
			Help: "Lines framed from the child's output, by stream",
		},
		[]string{"stream"},
	)

	outputBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proflog_output_bytes_total",
			Help: "Bytes framed from the child's output, by stream",
		},
		[]string{"stream"},
	)

	samplesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "proflog_stack_samples_total",
			Help: "Stack samples spliced into the render",
		},
	)

	sampleState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "proflog_sample_state",
			Help: "Sample correlator state (0=unknown, 1=available, 2=unavailable)",
		},
	)

	childRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "proflog_child_running",
			Help: "Whether the child process is currently running",
		},
	)

	childExitCode = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "proflog_child_exit_code",
			Help: "The child's propagated exit code (-1 while running)",
		},
	)
)

// Collector owns registration and updates for the run metrics.
type Collector struct{}

// NewCollector registers the metrics with the default registry.
func NewCollector() *Collector {
	return NewCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewCollectorWithRegistry registers with a custom registry. Used in
// tests.
func NewCollectorWithRegistry(registry prometheus.Registerer) *Collector {
	registry.MustRegister(
		proflogInfo,
		linesTotal,
		outputBytesTotal,
		samplesTotal,
		sampleState,
		childRunning,
		childExitCode,
	)
	childExitCode.Set(-1)
	return &Collector{}
}

// SetInfo records the static run labels.
func (c *Collector) SetInfo(version, command string) {
	proflogInfo.WithLabelValues(version, command).Set(1)
}

// ObserveLine counts one framed line.
func (c *Collector) ObserveLine(stream string, byteLen int) {
	linesTotal.WithLabelValues(stream).Inc()
	outputBytesTotal.WithLabelValues(stream).Add(float64(byteLen))
}

// ObserveSample counts one displayed stack sample.
func (c *Collector) ObserveSample() {
	samplesTotal.Inc()
}

// SetSampleState publishes the correlator state.
func (c *Collector) SetSampleState(state int) {
	sampleState.Set(float64(state))
}

// SetChildRunning publishes whether the child is alive.
func (c *Collector) SetChildRunning(running bool) {
	if running {
		childRunning.Set(1)
	} else {
		childRunning.Set(0)
	}
}

// SetExitCode publishes the propagated exit code.
func (c *Collector) SetExitCode(code int) {
	childExitCode.Set(float64(code))
}
