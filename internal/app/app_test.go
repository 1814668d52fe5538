package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Adolanium/SWLic/internal/config"
	"github.com/Adolanium/SWLic/internal/shared/testutil"
	"github.com/Adolanium/SWLic/pkg/contracts/domain"
)

const (
	testUser     = "admin"
	testPassword = "s3cret"
	knownSerial  = testutil.SampleSerial
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Security.Auth.Username = testUser
	cfg.Security.Auth.Password = testPassword
	cfg.Security.RateLimit.Enabled = false
	cfg.Portal.Username = "portal-user"
	cfg.Portal.Password = "portal-pass"
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) (*Application, *testutil.StubScraper) {
	t.Helper()
	scraper := testutil.NewStubScraper(testutil.SampleRecord())
	app, err := NewApplicationWithDependencies(context.Background(), cfg,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		Dependencies{Scraper: scraper, ServicePacks: testutil.ServicePackTable()})
	require.NoError(t, err)
	return app, scraper
}

func do(t *testing.T, app *Application, method, target string, auth bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if auth {
		req.SetBasicAuth(testUser, testPassword)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func TestNewApplication_RequiresConfig(t *testing.T) {
	_, err := NewApplication(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestNewApplication_Wiring(t *testing.T) {
	app, _ := newTestApp(t, testConfig())

	assert.NotNil(t, app.Router)
	assert.NotNil(t, app.Server)
	assert.NotNil(t, app.LicenseService)
	assert.NotNil(t, app.HealthService)
	assert.NotNil(t, app.Metrics)
	assert.Equal(t, 3, app.ServicePacks.Len())
	assert.Equal(t, "127.0.0.1:0", app.Server.Addr)
	assert.Equal(t, app.Router, app.Server.Handler)
}

func TestApplication_Routes(t *testing.T) {
	app, _ := newTestApp(t, testConfig())

	tests := []struct {
		name        string
		method      string
		target      string
		auth        bool
		wantStatus  int
		wantContain string
	}{
		{"root redirects", http.MethodGet, "/", true, http.StatusFound, ""},
		{"form", http.MethodGet, "/check", true, http.StatusOK, "<form"},
		{"health without auth", http.MethodGet, "/api/health", false, http.StatusOK, `"status"`},
		{"liveness without auth", http.MethodGet, "/api/health/live", false, http.StatusOK, "alive"},
		{"metrics without auth", http.MethodGet, "/metrics", false, http.StatusOK, ""},
		{"check requires auth", http.MethodGet, "/api/check/9000%200000%201234", false, http.StatusUnauthorized, ""},
		{"form requires auth", http.MethodGet, "/check", false, http.StatusUnauthorized, ""},
		{"check json", http.MethodGet, "/api/check/9000%200000%201234", true, http.StatusOK, `"spVersion":"SP1"`},
		{"check unknown serial", http.MethodGet, "/api/check/9000-9999", true, http.StatusNotFound, ""},
		{"check invalid serial", http.MethodGet, "/api/check/ab", true, http.StatusBadRequest, ""},
		{"resolve", http.MethodGet, "/api/servicepacks/resolve?version=2021+SP1&maintEnd=2021-12-31", true, http.StatusOK, "Any SP"},
		{"resolve missing version", http.MethodGet, "/api/servicepacks/resolve?maintEnd=2021-12-31", true, http.StatusBadRequest, ""},
		{"version", http.MethodGet, "/api/version", true, http.StatusOK, `"version"`},
		{"unknown route", http.MethodGet, "/nope", true, http.StatusNotFound, ""},
		{"wrong method", http.MethodPost, "/api/servicepacks/resolve", true, http.StatusMethodNotAllowed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, app, tt.method, tt.target, tt.auth)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantContain != "" {
				assert.Contains(t, rec.Body.String(), tt.wantContain)
			}
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}

func TestApplication_CheckResponse(t *testing.T) {
	app, scraper := newTestApp(t, testConfig())

	rec := do(t, app, http.MethodGet, "/api/check/9000%200000%201234", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var check domain.LicenseCheck
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &check))
	assert.Equal(t, "SOLIDWORKS Premium", check.ProductName)
	assert.Equal(t, knownSerial, check.SerialNumber)
	assert.Equal(t, "SP1", check.SPVersion)
	assert.Equal(t, "CAD-WS01", check.ActivatedMachineName)
	assert.Equal(t, domain.SubscriptionInactive, check.SubscriptionStatus)
	assert.Len(t, check.Activations, 2)
	assert.Equal(t, 1, scraper.Calls())
}

func TestApplication_UnauthorizedChallenge(t *testing.T) {
	app, scraper := newTestApp(t, testConfig())

	rec := do(t, app, http.MethodGet, "/api/check/"+strings.ReplaceAll(knownSerial, " ", "%20"), false)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), `realm="SWLic"`)
	assert.Zero(t, scraper.Calls())
}

func TestApplication_HTMLError(t *testing.T) {
	app, _ := newTestApp(t, testConfig())

	rec := do(t, app, http.MethodGet, "/check/9000-9999", true)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "An error occurred:")
}

func TestApplication_Export(t *testing.T) {
	app, _ := newTestApp(t, testConfig())

	rec := do(t, app, http.MethodGet, "/api/check/9000%200000%201234/export?format=csv", true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "license-")
	assert.Contains(t, rec.Body.String(), "CAD-WS01")
}

func TestApplication_HashedPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Security.Auth.Password = ""
	cfg.Security.Auth.PasswordHash = string(hash)
	app, _ := newTestApp(t, cfg)

	assert.Equal(t, http.StatusOK, do(t, app, http.MethodGet, "/api/version", true).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	req.SetBasicAuth(testUser, "wrong")
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestApplication_AuthDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Security.Auth.Enabled = false
	app, _ := newTestApp(t, cfg)

	assert.Equal(t, http.StatusOK, do(t, app, http.MethodGet, "/api/version", false).Code)
}

func TestApplication_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RateLimit.Enabled = true
	cfg.Security.RateLimit.RPS = 0.001
	cfg.Security.RateLimit.Burst = 1
	app, _ := newTestApp(t, cfg)

	assert.Equal(t, http.StatusOK, do(t, app, http.MethodGet, "/api/version", true).Code)
	rec := do(t, app, http.MethodGet, "/api/version", true)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Probes are outside the limiter
	assert.Equal(t, http.StatusOK, do(t, app, http.MethodGet, "/api/health/live", false).Code)
}

func TestApplication_CORSPreflight(t *testing.T) {
	app, _ := newTestApp(t, testConfig())

	req := httptest.NewRequest(http.MethodOptions, "/api/check/"+strings.ReplaceAll(knownSerial, " ", "%20"), nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestApplication_getCORSConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Security.AllowedOrigins = []string{"https://example.com"}
	app, _ := newTestApp(t, cfg)

	cors := app.getCORSConfig()
	assert.Equal(t, []string{"https://example.com"}, cors.AllowedOrigins)
	assert.Contains(t, cors.ExposedHeaders, "Content-Disposition")
	assert.True(t, cors.AllowCredentials)
}

func TestApplication_StartStop(t *testing.T) {
	app, _ := newTestApp(t, testConfig())
	ctx := context.Background()

	require.NoError(t, app.Start(ctx))
	addr := app.Addr()
	assert.NotEqual(t, "127.0.0.1:0", addr)

	resp, err := http.Get("http://" + addr + "/api/health/live")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, app.Stop(ctx))

	_, err = http.Get("http://" + addr + "/api/health/live")
	assert.Error(t, err)
}

func TestApplication_Run(t *testing.T) {
	app, _ := newTestApp(t, testConfig())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, func() bool { return app.Addr() != "127.0.0.1:0" }, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestApplication_StartAddressInUse(t *testing.T) {
	first, _ := newTestApp(t, testConfig())
	require.NoError(t, first.Start(context.Background()))
	defer first.Stop(context.Background())

	cfg := testConfig()
	_, port, _ := strings.Cut(first.Addr(), ":")
	p, err := strconv.Atoi(port)
	require.NoError(t, err)
	cfg.Server.Port = p
	second, _ := newTestApp(t, cfg)

	assert.Error(t, second.Start(context.Background()))
}

func TestLoadServicePacks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "servicepacks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`service_packs:
  "2021":
    - label: SP0
      date: 2021-01-01
    - label: SP1
      date: 2021-04-01
`), 0o600))

	table, err := LoadServicePacks(context.Background(), config.ServicePackConfig{
		Source: config.ServicePackSourceFile,
		File:   path,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	_, err = LoadServicePacks(context.Background(), config.ServicePackConfig{
		Source: config.ServicePackSourceFile,
		File:   filepath.Join(dir, "missing.yaml"),
	})
	assert.Error(t, err)

	_, err = LoadServicePacks(context.Background(), config.ServicePackConfig{Source: "ftp"})
	assert.Error(t, err)
}
