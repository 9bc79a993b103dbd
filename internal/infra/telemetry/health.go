package telemetry

import "sync"

type HealthReport struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

// HealthTracker aggregates per-component health for the /healthz
// endpoint. Components report "ok" or a failure description.
type HealthTracker struct {
	mu         sync.RWMutex
	components map[string]string
}

func NewHealthTracker() *HealthTracker {
	return &HealthTracker{
		components: make(map[string]string),
	}
}

func (h *HealthTracker) SetHealthy(component string) {
	h.set(component, "ok")
}

func (h *HealthTracker) SetUnhealthy(component, reason string) {
	if reason == "" {
		reason = "unhealthy"
	}
	h.set(component, reason)
}

func (h *HealthTracker) set(component, status string) {
	if component == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.components[component] = status
}

func (h *HealthTracker) Report() HealthReport {
	h.mu.RLock()
	defer h.mu.RUnlock()

	report := HealthReport{
		Status:     "ok",
		Components: make(map[string]string, len(h.components)),
	}
	for component, status := range h.components {
		report.Components[component] = status
		if status != "ok" {
			report.Status = "degraded"
		}
	}
	return report
}
