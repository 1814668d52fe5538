package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/Adolanium/SWLic/internal/errors"
	"github.com/Adolanium/SWLic/internal/validation"
)

type serialKey struct{}

// ValidateSerialParam rejects requests whose {serial} URL parameter is not a
// plausible serial number before any portal session is opened. The
// normalized serial is stored in the request context.
func ValidateSerialParam(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			serial, err := validation.ValidateSerial(chi.URLParam(r, "serial"))
			if err != nil {
				logger.WarnContext(r.Context(), "invalid serial parameter",
					"path", r.URL.Path,
					"error", err.Error(),
				)
				errorHandler.HandleError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), serialKey{}, serial)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SerialFromContext returns the serial stored by ValidateSerialParam
func SerialFromContext(ctx context.Context) (string, bool) {
	serial, ok := ctx.Value(serialKey{}).(string)
	return serial, ok
}
