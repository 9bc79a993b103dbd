package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"adomcp/internal/domain"
)

type PrometheusMetrics struct {
	callDuration *prometheus.HistogramVec
	callTotal    *prometheus.CounterVec
	enabledTools prometheus.Gauge
}

func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		callDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "adomcp_tool_call_duration_seconds",
				Help:    "Duration of tool calls in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"tool", "domain", "status"},
		),
		callTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adomcp_tool_calls_total",
				Help: "Total number of tool calls",
			},
			[]string{"tool", "domain", "status"},
		),
		enabledTools: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "adomcp_enabled_tools",
				Help: "Number of tools enabled by the domain policy",
			},
		),
	}
}

func (p *PrometheusMetrics) ObserveToolCall(tool string, dom domain.Domain, status string, duration time.Duration) {
	labels := prometheus.Labels{
		"tool":   tool,
		"domain": string(dom),
		"status": status,
	}
	p.callTotal.With(labels).Inc()
	p.callDuration.With(labels).Observe(duration.Seconds())
}

func (p *PrometheusMetrics) SetEnabledTools(count int) {
	p.enabledTools.Set(float64(count))
}

var _ domain.Metrics = (*PrometheusMetrics)(nil)
