package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the gateway's Prometheus instruments.
type Collector struct {
	RequestsTotal        *prometheus.CounterVec
	UpstreamDuration     *prometheus.HistogramVec
	UpstreamErrors       *prometheus.CounterVec
	HistoryWriteFailures prometheus.Counter
}

// New registers the gateway collectors on the given registerer.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_http_requests_total",
			Help: "HTTP requests handled, by path and status code.",
		}, []string{"path", "status"}),
		UpstreamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gateway_upstream_duration_seconds",
			Help:    "Latency of inference provider calls, by model.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 12),
		}, []string{"model"}),
		UpstreamErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_upstream_errors_total",
			Help: "Failed inference provider calls, by model and kind.",
		}, []string{"model", "kind"}),
		HistoryWriteFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "gateway_history_write_failures_total",
			Help: "Best-effort history writes that failed and were swallowed.",
		}),
	}
}

// NewDefault registers on the default Prometheus registry.
func NewDefault() *Collector {
	return New(prometheus.DefaultRegisterer)
}
