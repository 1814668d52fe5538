package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	apierrors "github.com/Adolanium/SWLic/internal/errors"
	"github.com/Adolanium/SWLic/internal/infrastructure"
	"github.com/Adolanium/SWLic/internal/portal"
	"github.com/Adolanium/SWLic/internal/servicepack"
	"github.com/Adolanium/SWLic/internal/validation"
	"github.com/Adolanium/SWLic/pkg/contracts/domain"
)

// LicenseService provides the license lookup operations
type LicenseService interface {
	// CheckSerial looks a serial number up on the portal and assembles the
	// license check, including the service pack entitlement.
	CheckSerial(ctx context.Context, serial string) (*domain.LicenseCheck, error)

	// ResolveServicePack maps a version and maintenance end date to a
	// service pack without contacting the portal.
	ResolveServicePack(ctx context.Context, version, maintenanceEnd string) (*domain.ServicePackResolution, error)
}

// Option configures a license service
type Option func(*licenseService)

// WithMetrics records lookup and resolution metrics on m
func WithMetrics(m *infrastructure.BusinessMetrics) Option {
	return func(s *licenseService) {
		s.metrics = m
	}
}

// WithClock replaces the clock used for subscription status and CheckedAt
func WithClock(now func() time.Time) Option {
	return func(s *licenseService) {
		s.now = now
	}
}

type licenseService struct {
	scraper  portal.Scraper
	resolver *servicepack.Resolver
	metrics  *infrastructure.BusinessMetrics
	sessions *semaphore.Weighted
	lookups  singleflight.Group
	now      func() time.Time
	logger   *slog.Logger
}

// NewLicenseService creates a license service. maxSessions bounds the number
// of browser sessions open at the same time; values below 1 are treated as 1.
func NewLicenseService(scraper portal.Scraper, resolver *servicepack.Resolver, maxSessions int, logger *slog.Logger, opts ...Option) LicenseService {
	if logger == nil {
		logger = slog.Default()
	}
	if maxSessions < 1 {
		maxSessions = 1
	}
	s := &licenseService{
		scraper:  scraper,
		resolver: resolver,
		sessions: semaphore.NewWeighted(int64(maxSessions)),
		now:      time.Now,
		logger:   logger.With(slog.String("service", "license")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *licenseService) CheckSerial(ctx context.Context, serial string) (*domain.LicenseCheck, error) {
	reqID := middleware.GetReqID(ctx)

	serial, err := validation.ValidateSerial(serial)
	if err != nil {
		s.logger.WarnContext(ctx, "rejected serial number",
			slog.String("request_id", reqID),
			slog.String("error", err.Error()))
		return nil, err
	}

	s.logger.InfoContext(ctx, "license check started",
		slog.String("request_id", reqID),
		slog.String("serial", validation.MaskSerial(serial)))

	// The shared lookup outlives any single caller; each caller stops
	// waiting when its own context ends.
	ch := s.lookups.DoChan(serial, func() (interface{}, error) {
		return s.lookup(context.WithoutCancel(ctx), serial)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}

	if res.Err != nil {
		s.logger.WarnContext(ctx, "license check failed",
			slog.String("request_id", reqID),
			slog.String("serial", validation.MaskSerial(serial)),
			slog.Bool("shared", res.Shared),
			slog.String("error", res.Err.Error()))
		return nil, res.Err
	}

	check := s.assemble(ctx, res.Val.(*domain.SerialRecord))

	s.logger.InfoContext(ctx, "license check completed",
		slog.String("request_id", reqID),
		slog.String("serial", validation.MaskSerial(serial)),
		slog.String("version", check.Version),
		slog.String("sp_version", check.SPVersion),
		slog.String("subscription", string(check.SubscriptionStatus)),
		slog.Bool("shared", res.Shared))

	return check, nil
}

// lookup runs one portal session, waiting for a free session slot first
func (s *licenseService) lookup(ctx context.Context, serial string) (*domain.SerialRecord, error) {
	if err := s.sessions.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for a portal session: %w", err)
	}
	defer s.sessions.Release(1)

	s.metrics.SessionOpened(ctx)
	defer s.metrics.SessionClosed(ctx)

	start := time.Now()
	rec, err := s.scraper.Lookup(ctx, serial)
	duration := time.Since(start)
	s.metrics.RecordPortalLookup(ctx, lookupOutcome(err), duration)

	s.logger.DebugContext(ctx, "portal session finished",
		slog.String("serial", validation.MaskSerial(serial)),
		slog.Duration("duration", duration),
		slog.String("outcome", lookupOutcome(err)))

	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}
	if rec == nil {
		return nil, apierrors.NewParsingError("portal returned no record", nil)
	}
	return rec, nil
}

// assemble builds the license check from a portal record
func (s *licenseService) assemble(ctx context.Context, rec *domain.SerialRecord) *domain.LicenseCheck {
	now := s.now()
	sp := s.resolver.ResolveString(rec.Version, rec.MaintenanceEnd)
	s.metrics.RecordResolution(ctx, sp.Kind())

	activations := make([]domain.Activation, len(rec.Activations))
	copy(activations, rec.Activations)

	return &domain.LicenseCheck{
		ProductName:          rec.ProductName,
		Version:              rec.Version,
		SPVersion:            sp.String(),
		SerialNumber:         rec.SerialNumber,
		MaintenanceEnd:       rec.MaintenanceEnd,
		ActivatedMachineName: rec.ActivatedMachine(),
		SubscriptionStatus:   SubscriptionStatusAt(rec.MaintenanceEnd, now),
		Activations:          activations,
		CheckedAt:            now.UTC(),
	}
}

func (s *licenseService) ResolveServicePack(ctx context.Context, version, maintenanceEnd string) (*domain.ServicePackResolution, error) {
	req := validation.ResolveRequest{Version: version, MaintenanceEnd: maintenanceEnd}
	if err := validation.ValidateResolve(req); err != nil {
		return nil, err
	}

	sp := s.resolver.ResolveString(version, maintenanceEnd)
	s.metrics.RecordResolution(ctx, sp.Kind())

	s.logger.DebugContext(ctx, "service pack resolved",
		slog.String("version", version),
		slog.String("maint_end", maintenanceEnd),
		slog.String("sp_version", sp.String()))

	return &domain.ServicePackResolution{
		Version:        version,
		MaintenanceEnd: maintenanceEnd,
		Year:           servicepack.YearToken(version),
		SPVersion:      sp.String(),
	}, nil
}

// SubscriptionStatusAt reports whether a maintenance end date lies strictly
// after now. Unparsable dates count as not on subscription.
func SubscriptionStatusAt(maintenanceEnd string, now time.Time) domain.SubscriptionStatus {
	end, err := servicepack.ParseDate(maintenanceEnd)
	if err != nil || !end.After(now) {
		return domain.SubscriptionInactive
	}
	return domain.SubscriptionActive
}

func lookupOutcome(err error) string {
	switch {
	case err == nil:
		return infrastructure.OutcomeSuccess
	case errors.Is(err, apierrors.ErrSerialNotFound):
		return infrastructure.OutcomeNotFound
	case errors.Is(err, apierrors.ErrPortalLogin):
		return infrastructure.OutcomeLogin
	case errors.Is(err, apierrors.ErrPortalTimeout), errors.Is(err, context.DeadlineExceeded):
		return infrastructure.OutcomeTimeout
	default:
		return infrastructure.OutcomeError
	}
}
