package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "github.com/Adolanium/SWLic/internal/errors"
	"github.com/Adolanium/SWLic/internal/exporter"
	"github.com/Adolanium/SWLic/internal/middleware"
	"github.com/Adolanium/SWLic/internal/services"
)

// CheckHandler serves the JSON license check API
type CheckHandler struct {
	service      services.LicenseService
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewCheckHandler creates a new check handler
func NewCheckHandler(service services.LicenseService, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *CheckHandler {
	return &CheckHandler{
		service:      service,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "check")),
	}
}

// Routes returns the check routes, mounted at /api/check
func (h *CheckHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/{serial}", func(r chi.Router) {
		r.Use(middleware.ValidateSerialParam(h.logger, h.errorHandler))
		r.Get("/", h.Check)
		r.Get("/export", h.Export)
	})
	return r
}

// Check handles GET /api/check/{serial}
func (h *CheckHandler) Check(w http.ResponseWriter, r *http.Request) {
	check, err := h.service.CheckSerial(r.Context(), serialParam(r))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, check)
}

// Export handles GET /api/check/{serial}/export?format=xlsx|csv
func (h *CheckHandler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := exporter.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", err.Error()))
		return
	}

	check, err := h.service.CheckSerial(r.Context(), serialParam(r))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	// Build the file first so a failure can still be reported as a problem
	var buf bytes.Buffer
	if err := exporter.Export(&buf, format, check); err != nil {
		h.errorHandler.HandleError(w, r, fmt.Errorf("failed to export license check: %w", err))
		return
	}

	h.logger.InfoContext(r.Context(), "license check exported",
		slog.String("format", string(format)),
		slog.Int("bytes", buf.Len()))

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename(check)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// Resolve handles GET /api/servicepacks/resolve?version=..&maintEnd=..
func (h *CheckHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.service.ResolveServicePack(r.Context(), q.Get("version"), q.Get("maintEnd"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, res)
}

// serialParam prefers the serial normalized by ValidateSerialParam
func serialParam(r *http.Request) string {
	if serial, ok := middleware.SerialFromContext(r.Context()); ok {
		return serial
	}
	return chi.URLParam(r, "serial")
}
