package portal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/Adolanium/SWLic/internal/config"
	apierrors "github.com/Adolanium/SWLic/internal/errors"
	"github.com/Adolanium/SWLic/internal/infrastructure"
	"github.com/Adolanium/SWLic/internal/validation"
	"github.com/Adolanium/SWLic/pkg/contracts/domain"
)

// Scraper looks a serial number up on the license portal
type Scraper interface {
	Lookup(ctx context.Context, serial string) (*domain.SerialRecord, error)
}

// ChromeScraper implements Scraper with a headless Chrome per lookup
type ChromeScraper struct {
	cfg    config.PortalConfig
	creds  Credentials
	logger *slog.Logger
}

// NewChromeScraper creates a scraper for the configured portal
func NewChromeScraper(cfg config.PortalConfig, creds Credentials, logger *slog.Logger) *ChromeScraper {
	return &ChromeScraper{
		cfg:    cfg,
		creds:  creds,
		logger: infrastructure.WithComponent(logger, "portal"),
	}
}

func (s *ChromeScraper) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", s.cfg.Headless),
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if s.cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(s.cfg.ChromePath))
	}
	return opts
}

// Lookup signs in, opens the serial's detail page and reads it. The browser
// is shut down before Lookup returns.
func (s *ChromeScraper) Lookup(ctx context.Context, serial string) (*domain.SerialRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.LookupTimeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, s.allocatorOptions()...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	// Start the browser on the lookup context, outside any step deadline.
	if err := chromedp.Run(browserCtx); err != nil {
		return nil, s.classify(ctx, "start browser", err, nil)
	}

	sel := s.cfg.Selectors
	var rec domain.SerialRecord
	var rows [][]string

	steps := []struct {
		name      string
		onTimeout error
		actions   []chromedp.Action
	}{
		{
			name: "open login page",
			actions: []chromedp.Action{
				chromedp.Navigate(s.cfg.LoginURL),
				chromedp.WaitVisible(sel.UsernameField, chromedp.ByQuery),
			},
		},
		{
			name:      "sign in",
			onTimeout: apierrors.ErrPortalLogin,
			actions: []chromedp.Action{
				chromedp.SendKeys(sel.UsernameField, s.creds.Username, chromedp.ByQuery),
				chromedp.SendKeys(sel.PasswordField, s.creds.Password+kb.Enter, chromedp.ByQuery),
				chromedp.WaitVisible(viewLinkXPath(sel.ViewLinkText), chromedp.BySearch),
			},
		},
		{
			name:    "open serial",
			actions: []chromedp.Action{s.openSerial(serial)},
		},
		{
			name: "read details",
			actions: []chromedp.Action{
				chromedp.Text(sel.ProductName, &rec.ProductName, chromedp.ByQuery),
				chromedp.Text(sel.Version, &rec.Version, chromedp.ByQuery),
				chromedp.Text(sel.MaintenanceEnd, &rec.MaintenanceEnd, chromedp.ByQuery),
				chromedp.Text(sel.SerialNumber, &rec.SerialNumber, chromedp.ByQuery),
			},
		},
		{
			name:    "read activations",
			actions: []chromedp.Action{chromedp.Evaluate(activationRowsJS(sel.ActivationTable), &rows)},
		},
	}

	start := time.Now()
	for _, st := range steps {
		if err := s.step(ctx, browserCtx, st.name, st.onTimeout, st.actions...); err != nil {
			return nil, err
		}
	}

	rec.ProductName = strings.TrimSpace(rec.ProductName)
	rec.Version = strings.TrimSpace(rec.Version)
	rec.MaintenanceEnd = strings.TrimSpace(rec.MaintenanceEnd)
	rec.SerialNumber = strings.TrimSpace(rec.SerialNumber)
	rec.Activations = ParseActivationRows(rows)

	s.logger.InfoContext(ctx, "portal lookup complete",
		slog.String("serial", validation.MaskSerial(serial)),
		slog.String("version", rec.Version),
		slog.Int("activations", len(rec.Activations)),
		slog.Duration("duration", time.Since(start)))

	return &rec, nil
}

// step runs actions against the browser with the per-step timeout
func (s *ChromeScraper) step(ctx, browserCtx context.Context, name string, onTimeout error, actions ...chromedp.Action) error {
	stepCtx, cancel := context.WithTimeout(browserCtx, s.cfg.StepTimeout)
	defer cancel()

	start := time.Now()
	err := chromedp.Run(stepCtx, actions...)
	s.logger.DebugContext(ctx, "portal step",
		slog.String("step", name),
		slog.Duration("duration", time.Since(start)),
		slog.Bool("ok", err == nil))

	if err != nil {
		return s.classify(ctx, name, err, onTimeout)
	}
	return nil
}

// classify maps a chromedp failure to the portal error taxonomy. A timeout of
// the whole lookup wins over a step timeout.
func (s *ChromeScraper) classify(ctx context.Context, step string, err, onTimeout error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apierrors.NewPortalError(step, fmt.Errorf("%w after %s", apierrors.ErrPortalTimeout, s.cfg.LookupTimeout))
	}
	if ctx.Err() != nil {
		return apierrors.NewPortalError(step, ctx.Err())
	}
	if errors.Is(err, apierrors.ErrSerialNotFound) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		if onTimeout != nil {
			return apierrors.NewPortalError(step, onTimeout)
		}
		return apierrors.NewPortalError(step, fmt.Errorf("%w: step exceeded %s", apierrors.ErrPortalTimeout, s.cfg.StepTimeout))
	}
	return apierrors.NewPortalError(step, err)
}

// openSerial clicks the View link of the listing row holding serial
func (s *ChromeScraper) openSerial(serial string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		xpath := serialRowViewLinkXPath(serial, s.cfg.Selectors.ViewLinkText)

		var nodes []*cdp.Node
		if err := chromedp.Nodes(xpath, &nodes, chromedp.BySearch, chromedp.AtLeast(0)).Do(ctx); err != nil {
			return err
		}
		if len(nodes) == 0 {
			return fmt.Errorf("%w: %s", apierrors.ErrSerialNotFound, serial)
		}

		return chromedp.Tasks{
			chromedp.Click(xpath, chromedp.BySearch, chromedp.NodeVisible),
			chromedp.WaitVisible(s.cfg.Selectors.ProductName, chromedp.ByQuery),
		}.Do(ctx)
	})
}

// xpathLiteral quotes s for use inside an XPath 1.0 expression
func xpathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, `'`) {
		return `'` + s + `'`
	}
	parts := strings.Split(s, `"`)
	return `concat("` + strings.Join(parts, `", '"', "`) + `")`
}

func viewLinkXPath(text string) string {
	return fmt.Sprintf(`//a[normalize-space(.)=%s]`, xpathLiteral(text))
}

func serialRowViewLinkXPath(serial, text string) string {
	return fmt.Sprintf(`//tr[td[contains(normalize-space(.), %s)]]//a[normalize-space(.)=%s]`,
		xpathLiteral(strings.TrimSpace(serial)), xpathLiteral(text))
}

// activationRowsJS returns the cell text of every row of the table matched by
// selector.
func activationRowsJS(selector string) string {
	quoted, _ := json.Marshal(selector)
	return fmt.Sprintf(`(() => {
		const table = document.querySelector(%s);
		if (!table) return [];
		return Array.from(table.querySelectorAll('tr')).map(tr =>
			Array.from(tr.querySelectorAll('td')).map(td => td.innerText.trim()));
	})()`, quoted)
}

// ConfiguredScraper resolves credentials on every lookup and delegates to a
// fresh ChromeScraper. A missing credentials file fails the lookup, not startup.
type ConfiguredScraper struct {
	cfg    config.PortalConfig
	logger *slog.Logger
}

// NewConfiguredScraper creates a scraper that reads credentials per lookup
func NewConfiguredScraper(cfg config.PortalConfig, logger *slog.Logger) *ConfiguredScraper {
	return &ConfiguredScraper{cfg: cfg, logger: logger}
}

// Lookup implements Scraper
func (s *ConfiguredScraper) Lookup(ctx context.Context, serial string) (*domain.SerialRecord, error) {
	creds, err := ResolveCredentials(s.cfg)
	if err != nil {
		return nil, err
	}
	return NewChromeScraper(s.cfg, creds, s.logger).Lookup(ctx, serial)
}
