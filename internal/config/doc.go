// Package config loads the service configuration.
//
// Values are layered in this order, later sources winning:
//
//  1. Default()
//  2. a YAML file (SWLIC_CONFIG, ./config.yaml or ./configs/config.yaml)
//  3. SWLIC_* environment variables, e.g. SWLIC_SERVER_PORT or
//     SWLIC_PORTAL_LOOKUP_TIMEOUT
//
// A bare PORT variable is also honoured when SWLIC_SERVER_PORT is unset.
//
// Load validates the result; basic auth is enabled by default, so a password
// (SWLIC_SECURITY_AUTH_PASSWORD) or bcrypt hash
// (SWLIC_SECURITY_AUTH_PASSWORD_HASH) must be configured.
package config
