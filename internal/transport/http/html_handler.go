package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/Adolanium/SWLic/internal/errors"
	"github.com/Adolanium/SWLic/internal/services"
	"github.com/Adolanium/SWLic/pkg/contracts/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// errorPrefix starts every error page message
const errorPrefix = "An error occurred: "

// pages holds one template set per page; each page defines its own title and
// content blocks around the shared layout.
type pages struct {
	form    *template.Template
	result  *template.Template
	failure *template.Template
}

func parsePages() (*pages, error) {
	parse := func(name string) (*template.Template, error) {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		return t, nil
	}

	var p pages
	var err error
	if p.form, err = parse("form.html"); err != nil {
		return nil, err
	}
	if p.result, err = parse("result.html"); err != nil {
		return nil, err
	}
	if p.failure, err = parse("error.html"); err != nil {
		return nil, err
	}
	return &p, nil
}

type formPage struct {
	Serial string
}

type resultPage struct {
	Serial string
	Check  *domain.LicenseCheck
}

type errorPage struct {
	Title   string
	Message string
}

// HTMLHandler serves the browser pages
type HTMLHandler struct {
	service      services.LicenseService
	errorHandler *apierrors.ErrorHandler
	pages        *pages
	logger       *slog.Logger
}

// NewHTMLHandler creates a new HTML handler
func NewHTMLHandler(service services.LicenseService, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) (*HTMLHandler, error) {
	p, err := parsePages()
	if err != nil {
		return nil, err
	}
	return &HTMLHandler{
		service:      service,
		errorHandler: errorHandler,
		pages:        p,
		logger:       logger.With(slog.String("handler", "html")),
	}, nil
}

// Routes returns the page routes, mounted at /check
func (h *HTMLHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Form)
	r.Get("/{serial}", h.Result)
	return r
}

// RedirectToCheck handles GET /
func RedirectToCheck(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/check", http.StatusFound)
}

// Form handles GET /check. A submitted form (?serial=) is redirected to the
// result page.
func (h *HTMLHandler) Form(w http.ResponseWriter, r *http.Request) {
	if serial := strings.TrimSpace(r.URL.Query().Get("serial")); serial != "" {
		http.Redirect(w, r, "/check/"+url.PathEscape(serial), http.StatusSeeOther)
		return
	}
	h.render(w, r, h.pages.form, http.StatusOK, formPage{})
}

// Result handles GET /check/{serial}
func (h *HTMLHandler) Result(w http.ResponseWriter, r *http.Request) {
	serial := chi.URLParam(r, "serial")

	check, err := h.service.CheckSerial(r.Context(), serial)
	if err != nil {
		problem := h.errorHandler.ErrorToProblem(err, r)
		h.logger.WarnContext(r.Context(), "license check page failed",
			slog.Int("status", problem.Status),
			slog.String("error", err.Error()))

		h.render(w, r, h.pages.failure, problem.Status, errorPage{
			Title:   problem.Title,
			Message: errorMessage(problem.Detail),
		})
		return
	}

	h.render(w, r, h.pages.result, http.StatusOK, resultPage{
		Serial: strings.TrimSpace(serial),
		Check:  check,
	})
}

func (h *HTMLHandler) render(w http.ResponseWriter, r *http.Request, t *template.Template, status int, data interface{}) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		h.errorHandler.HandleError(w, r, fmt.Errorf("failed to render page: %w", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func errorMessage(detail string) string {
	if strings.HasPrefix(detail, errorPrefix) {
		return detail
	}
	return errorPrefix + detail
}
