package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(ctx context.Context) error {
	return s.err
}

func setupHealthTestApp(store Pinger, llmConfigured bool) *fiber.App {
	app := fiber.New()
	h := NewHealthHandler(store, llmConfigured, "test-version")
	app.Get("/health", h.Health)
	app.Get("/livez", h.Liveness)
	app.Get("/readyz", h.Readiness)
	app.Get("/version", h.Version)
	return app
}

func TestHealthHandler_Health(t *testing.T) {
	t.Run("healthy when all checks pass", func(t *testing.T) {
		app := setupHealthTestApp(stubPinger{}, true)

		resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var status HealthStatus
		body, _ := io.ReadAll(resp.Body)
		require.NoError(t, json.Unmarshal(body, &status))
		assert.Equal(t, "healthy", status.Status)
		assert.Equal(t, "test-version", status.Version)
		assert.Equal(t, "healthy", status.Checks["object_store"])
		assert.Equal(t, "configured", status.Checks["llm"])
	})

	t.Run("degrades when the object store is unreachable", func(t *testing.T) {
		app := setupHealthTestApp(stubPinger{err: assert.AnError}, true)

		resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var status HealthStatus
		body, _ := io.ReadAll(resp.Body)
		require.NoError(t, json.Unmarshal(body, &status))
		assert.Equal(t, "degraded", status.Status)
		assert.Contains(t, status.Checks["object_store"], "unhealthy")
	})

	t.Run("degrades when the store was never initialized", func(t *testing.T) {
		app := setupHealthTestApp(nil, true)

		resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
		require.NoError(t, err)

		var status HealthStatus
		body, _ := io.ReadAll(resp.Body)
		require.NoError(t, json.Unmarshal(body, &status))
		assert.Equal(t, "degraded", status.Status)
		assert.Equal(t, "unavailable", status.Checks["object_store"])
	})

	t.Run("degrades without an llm key", func(t *testing.T) {
		app := setupHealthTestApp(stubPinger{}, false)

		resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
		require.NoError(t, err)

		var status HealthStatus
		body, _ := io.ReadAll(resp.Body)
		require.NoError(t, json.Unmarshal(body, &status))
		assert.Equal(t, "degraded", status.Status)
		assert.Equal(t, "not configured", status.Checks["llm"])
	})
}

func TestHealthHandler_Probes(t *testing.T) {
	app := setupHealthTestApp(nil, false)

	resp, err := app.Test(httptest.NewRequest("GET", "/livez", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Readiness stays ready regardless of dependency state: the pipeline is
	// stateless and the audit trail is best-effort.
	resp, err = app.Test(httptest.NewRequest("GET", "/readyz", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var ready map[string]any
	readyBody, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(readyBody, &ready))
	assert.Equal(t, "ready", ready["status"])
	components, ok := ready["components"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "unavailable", components["object_store"])
	assert.Equal(t, "not configured", components["llm"])

	resp, err = app.Test(httptest.NewRequest("GET", "/version", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "test-version")
}
