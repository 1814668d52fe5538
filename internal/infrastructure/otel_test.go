package infrastructure

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adolanium/SWLic/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitializeOTel_Disabled(t *testing.T) {
	p, err := InitializeOTel(config.TelemetryConfig{ServiceName: "swlic", TraceExporter: "none", MetricsExporter: "none"}, "test", discardLogger())
	require.NoError(t, err)

	assert.NotNil(t, p.Tracer)
	assert.NotNil(t, p.Meter)
	assert.Nil(t, p.PrometheusHTTP)

	m, err := CreateBusinessMetrics(p.Meter)
	require.NoError(t, err)
	m.RecordPortalLookup(context.Background(), OutcomeSuccess, time.Second)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestInitializeOTel_Prometheus(t *testing.T) {
	p, err := InitializeOTel(config.TelemetryConfig{ServiceName: "swlic", MetricsExporter: "prometheus"}, "test", discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })
	require.NotNil(t, p.PrometheusHTTP)

	m, err := CreateBusinessMetrics(p.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordPortalLookup(ctx, OutcomeNotFound, 2*time.Second)
	m.RecordResolution(ctx, "any")
	m.SessionOpened(ctx)
	m.SessionClosed(ctx)

	rec := httptest.NewRecorder()
	p.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "portal_lookups_total")
	assert.Contains(t, body, `outcome="not_found"`)
	assert.Contains(t, body, "servicepack_resolutions_total")
	assert.Contains(t, body, "go_goroutines")
}

func TestInitializeOTel_TwiceDoesNotConflict(t *testing.T) {
	cfg := config.TelemetryConfig{ServiceName: "swlic", MetricsExporter: "prometheus"}
	for i := 0; i < 2; i++ {
		p, err := InitializeOTel(cfg, "test", discardLogger())
		require.NoError(t, err)
		_ = p.Shutdown(context.Background())
	}
}

func TestInitializeOTel_UnknownExporter(t *testing.T) {
	_, err := InitializeOTel(config.TelemetryConfig{TraceExporter: "jaeger"}, "test", discardLogger())
	assert.Error(t, err)

	_, err = InitializeOTel(config.TelemetryConfig{MetricsExporter: "statsd"}, "test", discardLogger())
	assert.Error(t, err)
}

func TestBusinessMetrics_NilSafe(t *testing.T) {
	var m *BusinessMetrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordPortalLookup(ctx, OutcomeError, time.Millisecond)
		m.RecordResolution(ctx, "label")
		m.SessionOpened(ctx)
		m.SessionClosed(ctx)
	})
}
