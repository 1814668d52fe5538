// Package http implements the HTTP handlers of the SWLic server. Handlers are
// thin: they parse the request, call a service and render the answer.
//
// # Request Flow
//
//	HTTP Request → Chi Router → Middleware → Handler → Service → Portal
//	                                              ↓
//	HTTP Response ← Handler ← Service Response ←─┘
//
// # Endpoints
//
//	GET /check                       serial number form
//	GET /check/{serial}              HTML result page
//	GET /api/check/{serial}          JSON license check
//	GET /api/check/{serial}/export   XLSX or CSV download
//	GET /api/servicepacks/resolve    offline service pack resolution
//	GET /api/health[/live|/ready]    health probes
//	GET /api/version                 build information
//
// # Error Handling
//
// JSON endpoints answer with RFC 7807 problem details produced by
// errors.ErrorHandler. HTML pages render the same problem as an error page
// with the problem's status code.
package http
