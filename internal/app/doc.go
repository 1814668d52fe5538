// Package app wires SWLic together: configuration, telemetry, the service
// pack table, the portal scraper, the services and the HTTP router.
//
// # Routing
//
// Health probes and /metrics are served without authentication or rate
// limiting. Everything else sits behind the rate limiter, HTTP Basic auth and
// the request timeout:
//
//	GET /                              redirect to /check
//	GET /check                         HTML form
//	GET /check/{serial}                HTML result page
//	GET /api/check/{serial}            JSON license check
//	GET /api/check/{serial}/export     xlsx or csv download
//	GET /api/servicepacks/resolve      offline service pack resolution
//	GET /api/version                   build information
//
// # Lifecycle
//
// Run starts the server and blocks until SIGINT or SIGTERM, then shuts the
// server and the telemetry providers down within ShutdownTimeout.
//
//	app, err := app.NewApplication(ctx, cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return app.Run(ctx)
package app
