package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

const readinessProbeTimeout = 2 * time.Second

// ReadinessCheck probes one dependency the service cannot run without.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes. Liveness is
// unconditional; readiness runs the registered dependency checks and
// reports 503 with the failing dependency when one breaks.
type HealthHandler struct {
	logger *slog.Logger
	checks []ReadinessCheck
}

// NewHealthHandler creates the probe handler with its dependency checks.
func NewHealthHandler(logger *slog.Logger, checks ...ReadinessCheck) *HealthHandler {
	return &HealthHandler{logger: logger, checks: checks}
}

// RegisterRoutes attaches health-check routes to the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.liveness)
	mux.HandleFunc("GET /readyz", h.readiness)
}

func (h *HealthHandler) liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "loan-orchestrator",
	})
}

func (h *HealthHandler) readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessProbeTimeout)
	defer cancel()

	for _, c := range h.checks {
		if err := c.Check(ctx); err != nil {
			h.logger.WarnContext(ctx, "readiness check failed",
				"dependency", c.Name, "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":     "unavailable",
				"service":    "loan-orchestrator",
				"dependency": c.Name,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ready",
		"service": "loan-orchestrator",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck
}
