package probe

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records probe runs.
type Metrics struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	size     *prometheus.GaugeVec
}

// NewMetrics creates probe metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "image_probe",
			Name:      "runs_total",
			Help:      "Probe runs by engine and outcome.",
		}, []string{"engine", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "image_probe",
			Name:      "render_duration_seconds",
			Help:      "Time spent in the engine per probe run.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"engine"}),
		size: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "image_probe",
			Name:      "last_output_bytes",
			Help:      "Encoded size of the last successful run.",
		}, []string{"engine", "format"}),
	}

	for _, c := range []prometheus.Collector{m.runs, m.duration, m.size} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register probe metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) observe(engine string, d time.Duration, o Outcome) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(engine).Observe(d.Seconds())
	switch o := o.(type) {
	case Success:
		m.runs.WithLabelValues(engine, "success").Inc()
		m.size.WithLabelValues(engine, o.Format).Set(float64(o.ByteLength))
	default:
		m.runs.WithLabelValues(engine, "failure").Inc()
	}
}
