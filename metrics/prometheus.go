package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder exposes session events and request latencies as
// prometheus series.
type PrometheusRecorder struct {
	events  *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// NewPrometheusRecorder registers the collectors on the given registerer;
// pass prometheus.DefaultRegisterer for the process-wide registry.
func NewPrometheusRecorder(reg prometheus.Registerer) (Recorder, error) {
	events := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "walletconnect",
			Name:      "events_total",
			Help:      "Session events segmented by type and network.",
		},
		[]string{"event", "network"},
	)
	latency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "walletconnect",
			Name:      "request_latency_seconds",
			Help:      "Round-trip latency of signing and API requests.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "network"},
	)
	if err := reg.Register(events); err != nil {
		return nil, err
	}
	if err := reg.Register(latency); err != nil {
		return nil, err
	}
	return &PrometheusRecorder{events: events, latency: latency}, nil
}

func (p *PrometheusRecorder) IncCounter(name string, labels map[string]string) {
	p.events.With(prometheus.Labels{
		"event":   name,
		"network": labels["network"],
	}).Inc()
}

func (p *PrometheusRecorder) ObserveLatency(name string, d time.Duration, labels map[string]string) {
	p.latency.With(prometheus.Labels{
		"method":  name,
		"network": labels["network"],
	}).Observe(d.Seconds())
}
