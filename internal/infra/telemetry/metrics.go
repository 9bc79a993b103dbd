package telemetry

import (
	"time"

	"adomcp/internal/domain"
)

type NoopMetrics struct{}

func NewNoopMetrics() *NoopMetrics {
	return &NoopMetrics{}
}

func (n *NoopMetrics) ObserveToolCall(_ string, _ domain.Domain, _ string, _ time.Duration) {}

func (n *NoopMetrics) SetEnabledTools(_ int) {}

var _ domain.Metrics = (*NoopMetrics)(nil)
