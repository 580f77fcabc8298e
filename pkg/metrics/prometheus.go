package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cycles          *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	heatmapDegraded prometheus.Counter
	instruments     prometheus.Gauge
	latency         *prometheus.HistogramVec
}

// New creates a recorder registered with the default Prometheus registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder registered with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		cycles: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "perfdash_fetch_cycles_total",
				Help: "Fetch cycles by outcome (ready, failed)",
			},
			[]string{"outcome"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "perfdash_errors_total",
				Help: "Failed fetch cycles by error kind",
			},
			[]string{"kind"},
		),
		heatmapDegraded: f.NewCounter(
			prometheus.CounterOpts{
				Name: "perfdash_heatmap_degraded_total",
				Help: "Ready cycles published without a heatmap",
			},
		),
		instruments: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "perfdash_published_instruments",
				Help: "Instruments in the currently published result",
			},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "perfdash_operation_duration_seconds",
				Help:    "Duration of remote calls and whole cycles in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordCycle(outcome string) {
	r.cycles.WithLabelValues(outcome).Inc()
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordHeatmapDegraded() {
	r.heatmapDegraded.Inc()
}

func (r *Recorder) RecordLatency(op string, d time.Duration) {
	r.latency.WithLabelValues(op).Observe(d.Seconds())
}

func (r *Recorder) SetInstruments(n int) {
	r.instruments.Set(float64(n))
}
