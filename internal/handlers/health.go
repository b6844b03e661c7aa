package handlers

import (
	"context"
	"net/http"
	"time"

	"semnotes/internal/contextutil"
)

// Pinger reports whether a persistence layer is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	kv                 Pinger
	mirror             Pinger
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(kv, mirror Pinger) *HealthHandler {
	return &HealthHandler{
		kv:                 kv,
		mirror:             mirror,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	// Overall health status: "healthy" or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// List of issues (only present if status is unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP checks both persistence layers and reports overall health.
// Returns 200 OK if healthy, 503 Service Unavailable otherwise.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	var issues []string

	if err := h.kv.Ping(checkCtx); err != nil {
		logger.WarnContext(ctx, "key-value store health check failed", "error", err)
		checks["kv_store"] = "error"
		issues = append(issues, "kv_store_unavailable")
	} else {
		checks["kv_store"] = "ok"
	}

	if err := h.mirror.Ping(checkCtx); err != nil {
		logger.WarnContext(ctx, "mirror health check failed", "error", err)
		checks["mirror"] = "error"
		issues = append(issues, "mirror_unavailable")
	} else {
		checks["mirror"] = "ok"
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if len(issues) > 0 {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Issues:    issues,
	})
}
