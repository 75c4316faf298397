package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/helpdesk-io/ticket-service/internal/config"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/api/tickets", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/api/tickets", "GET", 200, 30*time.Millisecond)
	m.RecordRequest("/api/tickets/:id", "GET", 404, time.Millisecond)
	m.RecordError("/api/tickets/:id", "GET", "NOT_FOUND")

	snap := m.Snapshot()
	require.Len(t, snap.Requests, 2)
	assert.Equal(t, RouteStats{Method: "GET", Route: "/api/tickets", Status: 200, Count: 2, AvgLatencyMS: 20}, snap.Requests[0])
	assert.Equal(t, "/api/tickets/:id", snap.Requests[1].Route)
	require.Len(t, snap.Errors, 1)
	assert.Equal(t, ErrorStats{Method: "GET", Route: "/api/tickets/:id", Code: "NOT_FOUND", Count: 1}, snap.Errors[0])

	var nilMetrics *Metrics
	nilMetrics.RecordRequest("/", "GET", 200, 0)
	assert.Empty(t, nilMetrics.Snapshot().Requests)
}

func TestRequestLoggerAssignsIDAndRecords(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	metrics := NewMetrics()
	app := fiber.New()
	app.Use(RequestLogger(zap.New(core), metrics))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString(RequestID(c)) })
	app.Get("/teapot", func(c *fiber.Ctx) error { return fiber.NewError(http.StatusTeapot, "short and stout") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get(HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(HeaderRequestID, "fixed-id")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", resp.Header.Get(HeaderRequestID))

	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/teapot", nil))
	require.NoError(t, err)

	assert.Equal(t, 2, logs.FilterLevelExact(zapcore.InfoLevel).Len())
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.WarnLevel).Len())
	snap := metrics.Snapshot()
	require.Len(t, snap.Requests, 2)
	assert.Equal(t, int64(2), snap.Requests[0].Count)
	assert.Equal(t, http.StatusTeapot, snap.Requests[1].Status)
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "chatty"}, "production")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}
