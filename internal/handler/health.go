package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger checks reachability of an external dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	store         Pinger
	llmConfigured bool
	version       string
	startTime     time.Time
}

// NewHealthHandler creates a new health handler. store may be nil when the
// audit store failed to initialize.
func NewHealthHandler(store Pinger, llmConfigured bool, version string) *HealthHandler {
	return &HealthHandler{
		store:         store,
		llmConfigured: llmConfigured,
		version:       version,
		startTime:     time.Now(),
	}
}

// HealthStatus represents health check status
type HealthStatus struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// Health handles GET /health. The audit store is best-effort, so an
// unreachable store degrades the report without failing the probe.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	status := HealthStatus{
		Status:    "healthy",
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    make(map[string]string),
	}

	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	if h.store == nil {
		status.Status = "degraded"
		status.Checks["object_store"] = "unavailable"
	} else if err := h.store.Ping(ctx); err != nil {
		status.Status = "degraded"
		status.Checks["object_store"] = "unhealthy: " + err.Error()
	} else {
		status.Checks["object_store"] = "healthy"
	}

	if h.llmConfigured {
		status.Checks["llm"] = "configured"
	} else {
		status.Status = "degraded"
		status.Checks["llm"] = "not configured"
	}

	return c.JSON(status)
}

// Liveness handles GET /livez - basic liveness probe
func (h *HealthHandler) Liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "alive",
	})
}

// Readiness handles GET /readyz - readiness probe. The pipeline holds no
// server-side state and the audit trail is best-effort, so the probe always
// reports ready; component statuses are included for operators.
func (h *HealthHandler) Readiness(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
	defer cancel()

	components := make(map[string]string)

	if h.store == nil {
		components["object_store"] = "unavailable"
	} else if err := h.store.Ping(ctx); err != nil {
		components["object_store"] = "unreachable"
	} else {
		components["object_store"] = "ok"
	}

	if h.llmConfigured {
		components["llm"] = "configured"
	} else {
		components["llm"] = "not configured"
	}

	return c.JSON(fiber.Map{
		"status":     "ready",
		"components": components,
	})
}

// Version handles GET /version
func (h *HealthHandler) Version(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"version": h.version,
	})
}
