package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"time"
)

// Checker reports whether a dependency is usable.
type Checker interface {
	Ping(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

// Ping implements Checker.
func (f CheckerFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler provides HTTP health, readiness and metrics endpoints.
type HealthHandler struct {
	logger    *slog.Logger
	checks    map[string]Checker
	metrics   http.Handler
	service   string
	timeout   time.Duration
	startTime time.Time
}

// NewHealthHandler creates a new health check handler. checks are probed
// on every readiness request; metrics may be nil.
func NewHealthHandler(service string, checks map[string]Checker, metrics http.Handler, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		logger:    logger,
		checks:    checks,
		metrics:   metrics,
		service:   service,
		timeout:   2 * time.Second,
		startTime: time.Now(),
	}
}

// HealthResponse is the JSON response for health checks.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Uptime  string `json:"uptime"`
}

// ReadinessResponse is the JSON response for readiness checks.
type ReadinessResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Checks  map[string]string `json:"checks"`
}

// RegisterRoutes registers the endpoints on the provided ServeMux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics)
	}
}

// Healthz handles liveness probe requests.
func (h *HealthHandler) Healthz(w http.ResponseWriter, _ *http.Request) {
	h.write(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: h.service,
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Readyz handles readiness probe requests. Any failing check makes the
// service not ready.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := ReadinessResponse{
		Status:  "ready",
		Service: h.service,
		Checks:  make(map[string]string, len(h.checks)),
	}
	code := http.StatusOK
	for _, name := range names {
		if err := h.checks[name].Ping(ctx); err != nil {
			h.logger.Warn("readiness check failed", slog.String("check", name), slog.String("error", err.Error()))
			resp.Checks[name] = err.Error()
			resp.Status = "not_ready"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	h.write(w, code, resp)
}

func (h *HealthHandler) write(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to write response", slog.String("error", err.Error()))
	}
}
