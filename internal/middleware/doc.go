// Package middleware contains the HTTP middleware of the SWLic server.
//
// The router installs them in this order:
//
//	RequestID -> RealIP -> OTel -> StructuredLogger -> Recoverer ->
//	SecurityHeaders -> CORS -> RateLimiter -> BasicAuth -> Timeout
//
// Errors are rendered as RFC 7807 problem details through the shared
// errors.ErrorHandler.
package middleware
