package errors

import (
	"errors"
	"net/http"
)

// Portal boundary errors. Callers wrap these with %w so the HTTP layer can
// map them without string matching.
var (
	ErrInvalidSerial      = errors.New("invalid serial number")
	ErrSerialNotFound     = errors.New("serial number not found")
	ErrPortalLogin        = errors.New("portal login rejected")
	ErrPortalTimeout      = errors.New("portal timeout")
	ErrCredentialsMissing = errors.New("portal credentials missing")
)

// Portal problem types
const (
	TypeInvalidSerial      = "/errors/serial/invalid"
	TypeSerialNotFound     = "/errors/serial/not-found"
	TypePortalLogin        = "/errors/portal/login-rejected"
	TypePortalTimeout      = "/errors/portal/timeout"
	TypeCredentialsMissing = "/errors/portal/credentials-missing"
)

// MapPortalError maps a portal sentinel to problem details. The second return
// value is false when err wraps none of the portal sentinels.
func MapPortalError(err error, instance string) (*ProblemDetails, bool) {
	switch {
	case errors.Is(err, ErrInvalidSerial):
		return NewProblemDetails(
			http.StatusBadRequest,
			TypeInvalidSerial,
			"Invalid Serial Number",
			err.Error(),
			instance,
		).WithExtension("error_code", "INVALID_SERIAL"), true

	case errors.Is(err, ErrSerialNotFound):
		return NewProblemDetails(
			http.StatusNotFound,
			TypeSerialNotFound,
			"Serial Number Not Found",
			err.Error(),
			instance,
		).WithExtension("error_code", "SERIAL_NOT_FOUND"), true

	case errors.Is(err, ErrPortalLogin):
		return NewProblemDetails(
			http.StatusBadGateway,
			TypePortalLogin,
			"Portal Login Failed",
			"The license portal did not accept the configured credentials",
			instance,
		).WithExtension("error_code", "PORTAL_LOGIN_FAILED"), true

	case errors.Is(err, ErrPortalTimeout):
		return NewProblemDetails(
			http.StatusGatewayTimeout,
			TypePortalTimeout,
			"Portal Timeout",
			err.Error(),
			instance,
		).WithExtension("error_code", "PORTAL_TIMEOUT"), true

	case errors.Is(err, ErrCredentialsMissing):
		return NewProblemDetails(
			http.StatusInternalServerError,
			TypeCredentialsMissing,
			"Portal Credentials Missing",
			"No portal credentials are configured",
			instance,
		).WithExtension("error_code", "CREDENTIALS_MISSING"), true
	}
	return nil, false
}
