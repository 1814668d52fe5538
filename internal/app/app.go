package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/Adolanium/SWLic/internal/config"
	apierrors "github.com/Adolanium/SWLic/internal/errors"
	"github.com/Adolanium/SWLic/internal/infrastructure"
	customMiddleware "github.com/Adolanium/SWLic/internal/middleware"
	"github.com/Adolanium/SWLic/internal/portal"
	"github.com/Adolanium/SWLic/internal/servicepack"
	"github.com/Adolanium/SWLic/internal/services"
	httphandlers "github.com/Adolanium/SWLic/internal/transport/http"
	"github.com/Adolanium/SWLic/pkg/contracts"
)

// Application represents the main application
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	ErrorHandler  *apierrors.ErrorHandler

	ServicePacks   *servicepack.Table
	LicenseService services.LicenseService
	HealthService  *services.HealthService

	mu       sync.Mutex
	listener net.Listener
	serveErr chan error
}

// Dependencies lets callers replace the pieces that reach outside the process.
// Nil fields are built from the configuration.
type Dependencies struct {
	Scraper      portal.Scraper
	ServicePacks *servicepack.Table
	Providers    *infrastructure.OTelProviders
}

// NewApplication creates a new application instance from cfg
func NewApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	return NewApplicationWithDependencies(ctx, cfg, logger, Dependencies{})
}

// NewApplicationWithDependencies creates an application using deps where set
func NewApplicationWithDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger, deps Dependencies) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	app := &Application{
		Config:       cfg,
		Logger:       logger,
		ErrorHandler: apierrors.NewErrorHandler(logger, cfg.Logging.Development),
	}

	providers := deps.Providers
	if providers == nil {
		var err error
		providers, err = infrastructure.InitializeOTel(cfg.Telemetry, contracts.Version, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
		}
	}
	app.OTelProviders = providers

	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}
	app.Metrics = metrics

	table := deps.ServicePacks
	if table == nil {
		table, err = LoadServicePacks(ctx, cfg.ServicePacks)
		if err != nil {
			return nil, err
		}
	}
	app.ServicePacks = table
	logger.InfoContext(ctx, "service pack table loaded",
		slog.String("source", cfg.ServicePacks.Source),
		slog.Int("years", len(table.Years())),
		slog.Int("entries", table.Len()))

	scraper := deps.Scraper
	if scraper == nil {
		scraper = portal.NewConfiguredScraper(cfg.Portal, logger)
	}

	app.LicenseService = services.NewLicenseService(
		scraper,
		servicepack.NewResolver(table),
		cfg.Portal.MaxSessions,
		logger,
		services.WithMetrics(metrics),
	)
	app.HealthService = services.NewHealthService(contracts.Version, table, cfg.Portal, logger)

	if err := app.setupRouter(); err != nil {
		return nil, err
	}
	app.createServer()

	return app, nil
}

// LoadServicePacks reads the service pack table from the configured source
func LoadServicePacks(ctx context.Context, cfg config.ServicePackConfig) (*servicepack.Table, error) {
	switch cfg.Source {
	case config.ServicePackSourceFile:
		table, err := servicepack.LoadFile(cfg.File)
		if err != nil {
			return nil, apierrors.NewConfigError("failed to load service pack file", err)
		}
		return table, nil
	case config.ServicePackSourceSheets:
		svc, err := servicepack.NewSheetsService(ctx, cfg.CredentialsFile)
		if err != nil {
			return nil, apierrors.NewConfigError("failed to create sheets client", err)
		}
		table, err := servicepack.LoadFromSheet(ctx, svc, cfg.SpreadsheetID, cfg.Range)
		if err != nil {
			return nil, apierrors.NewConfigError("failed to load service pack sheet", err)
		}
		return table, nil
	default:
		return nil, apierrors.NewConfigError(fmt.Sprintf("unknown service pack source %q", cfg.Source), nil)
	}
}

// setupRouter configures the HTTP router. Health probes and metrics sit in
// front of rate limiting, auth and the request timeout.
func (a *Application) setupRouter() error {
	r := chi.NewRouter()

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics)
	if err != nil {
		return fmt.Errorf("failed to create OTel middleware: %w", err)
	}

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(otelMiddleware.Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(apierrors.RecoveryMiddleware(a.ErrorHandler))
	r.Use(customMiddleware.SecurityHeaders)
	// CORS answers preflights before routing, so it cannot live in the group.
	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(a.getCORSConfig()))
	}

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	healthHandler := httphandlers.NewHealthHandler(a.HealthService, a.Logger)
	r.Mount("/api/health", healthHandler.Routes())

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	htmlHandler, err := httphandlers.NewHTMLHandler(a.LicenseService, a.ErrorHandler, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create HTML handler: %w", err)
	}
	checkHandler := httphandlers.NewCheckHandler(a.LicenseService, a.ErrorHandler, a.Logger)

	r.Group(func(r chi.Router) {
		sec := a.Config.Security

		if sec.RateLimit.Enabled {
			limiter := customMiddleware.NewRateLimiter(sec.RateLimit.RPS, sec.RateLimit.Burst, a.ErrorHandler, a.Logger)
			r.Use(limiter.Handler)
		}
		if sec.Auth.Enabled {
			r.Use(customMiddleware.BasicAuth(a.basicAuthFunc(), sec.Auth.Realm, a.Logger, a.ErrorHandler,
				"/api/health", "/api/health/", "/metrics"))
		}
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.ErrorHandler))

		r.Get("/", httphandlers.RedirectToCheck)
		r.Mount("/check", htmlHandler.Routes())

		r.Route("/api", func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))

			r.Mount("/check", checkHandler.Routes())
			r.Get("/servicepacks/resolve", checkHandler.Resolve)
			r.Get("/version", healthHandler.Version)
		})
	})

	a.Router = r
	return nil
}

func (a *Application) basicAuthFunc() customMiddleware.BasicAuthFunc {
	auth := a.Config.Security.Auth
	if auth.PasswordHash != "" {
		return customMiddleware.HashedBasicAuthFunc(auth.Username, auth.PasswordHash)
	}
	return customMiddleware.FixedBasicAuthFunc(auth.Username, auth.Password)
}

func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins:   a.Config.Security.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
		Logger:           a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Server.Addr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start binds the listener and serves in the background. Serve errors are
// reported by Wait.
func (a *Application) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	a.mu.Lock()
	a.listener = ln
	a.mu.Unlock()
	a.serveErr = make(chan error, 1)

	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("version", contracts.Version),
		slog.String("address", ln.Addr().String()),
		slog.Bool("auth", a.Config.Security.Auth.Enabled),
		slog.Int("max_sessions", a.Config.Portal.MaxSessions))

	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			a.serveErr <- err
		}
		close(a.serveErr)
	}()

	return nil
}

// Addr returns the bound address once Start has succeeded
func (a *Application) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return a.Server.Addr
	}
	return a.listener.Addr().String()
}

// Wait blocks until the context ends or the server fails
func (a *Application) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	case err := <-a.serveErr:
		return err
	}
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Stopping application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}
	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	a.Logger.InfoContext(ctx, "Application stopped")
	return nil
}

// Run starts the application and blocks until SIGINT or SIGTERM
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		return err
	}

	runErr := a.Wait(ctx)
	if runErr == nil {
		a.Logger.Info("Shutdown signal received")
	}

	// The signal context is already done; shutdown gets a fresh one.
	stopCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout+5*time.Second)
	defer cancel()
	if err := a.Stop(stopCtx); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}
