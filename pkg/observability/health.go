package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// CheckFunc probes a single dependency. A nil error means healthy.
type CheckFunc func(ctx context.Context) error

type check struct {
	name     string
	fn       CheckFunc
	optional bool
}

// HealthChecker provides health check functionality
type HealthChecker struct {
	checks []check
}

// NewHealthChecker creates a new health checker
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{}
}

// AddCheck registers a required dependency. A failing required check
// makes readiness report unhealthy.
func (h *HealthChecker) AddCheck(name string, fn CheckFunc) {
	h.checks = append(h.checks, check{name: name, fn: fn})
}

// AddOptionalCheck registers a dependency whose failure only degrades
// readiness instead of failing it.
func (h *HealthChecker) AddOptionalCheck(name string, fn CheckFunc) {
	h.checks = append(h.checks, check{name: name, fn: fn, optional: true})
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status       string                      `json:"status"`
	Timestamp    time.Time                   `json:"timestamp"`
	Dependencies map[string]DependencyStatus `json:"dependencies,omitempty"`
}

// DependencyStatus represents the health of a single dependency
type DependencyStatus struct {
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	LatencyMS int64     `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	StatusRunning   = "running"
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Liveness answers liveness probes. The body is the fixed document SCIM
// clients and container orchestrators poll for.
func (h *HealthChecker) Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": StatusRunning,
	})
}

// Readiness answers readiness probes by checking all dependencies
func (h *HealthChecker) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Check(ctx)

	w.Header().Set("Content-Type", "application/json")

	// Return 503 if unhealthy, 200 if healthy or degraded
	if status.Status == StatusUnhealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(status)
}

// Check runs every registered probe and aggregates the results.
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:       StatusHealthy,
		Timestamp:    time.Now(),
		Dependencies: make(map[string]DependencyStatus),
	}

	for _, c := range h.checks {
		dep := runCheck(ctx, c.fn)
		status.Dependencies[c.name] = dep

		if dep.Status != StatusUnhealthy {
			continue
		}
		if c.optional {
			if status.Status != StatusUnhealthy {
				status.Status = StatusDegraded
			}
		} else {
			status.Status = StatusUnhealthy
		}
	}

	return status
}

func runCheck(ctx context.Context, fn CheckFunc) DependencyStatus {
	start := time.Now()
	dep := DependencyStatus{
		Status:    StatusHealthy,
		Timestamp: start,
	}

	err := fn(ctx)
	dep.LatencyMS = time.Since(start).Milliseconds()

	if err != nil {
		dep.Status = StatusUnhealthy
		dep.Message = err.Error()
	}
	return dep
}
