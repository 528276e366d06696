package metrics

import (
	"net/http"
	"time"

	"github.com/berfenger/solaredge2influx/internal/core/domain"
	"github.com/berfenger/solaredge2influx/pkg/sunspec_modbus"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricPrefix = "solaredge_"

// Metrics holds the poller collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	pollIterations  prometheus.Counter
	samplesWritten  *prometheus.CounterVec
	pollFailures    *prometheus.CounterVec
	modbusDurations *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pollIterations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "poll_iterations_total",
				Help: "Total poll loop iterations",
			},
		),
		samplesWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "samples_written_total",
				Help: "Total samples written by device",
			},
			[]string{"device"},
		),
		pollFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "poll_failures_total",
				Help: "Total poll failures by device and kind",
			},
			[]string{"device", "kind"},
		),
		modbusDurations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "modbus_request_duration_seconds",
				Help:    "Modbus request duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"fn"},
		),
	}
	m.registry.MustRegister(
		m.pollIterations,
		m.samplesWritten,
		m.pollFailures,
		m.modbusDurations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) IterationStarted() {
	m.pollIterations.Inc()
}

func (m *Metrics) SampleWritten(device string) {
	m.samplesWritten.WithLabelValues(device).Inc()
}

func (m *Metrics) PollFailed(device string, kind domain.FailureKind) {
	m.pollFailures.WithLabelValues(device, kind.String()).Inc()
}

// ModbusInstrument feeds register source timings into the duration histogram.
func (m *Metrics) ModbusInstrument() *sunspec_modbus.ModbusInstrument {
	return &sunspec_modbus.ModbusInstrument{
		RecordTime: func(fnName string, readTime time.Duration) {
			m.modbusDurations.WithLabelValues(fnName).Observe(readTime.Seconds())
		},
	}
}
