// Package services implements the business logic layer of SWLic. It sits
// between the HTTP and CLI fronts and the portal scraper.
//
// # Available Services
//
//   - LicenseService: serial number lookups and offline service pack resolution
//   - HealthService: liveness, readiness and version reporting
//
// # Concurrency
//
// LicenseService collapses concurrent lookups of the same serial number into
// one portal session and bounds the number of browser sessions open at once.
// Results are never cached; every new request that does not overlap an
// in-flight lookup opens a fresh session.
//
// # Error Handling
//
// Services return the portal sentinels from internal/errors wrapped with
// context. Handlers map them to problem details:
//
//   - ErrInvalidSerial: rejected input, 400
//   - ErrSerialNotFound: no such serial on the account, 404
//   - ErrPortalLogin: credentials rejected, 502
//   - ErrPortalTimeout: portal too slow, 504
package services
