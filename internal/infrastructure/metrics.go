package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Portal lookup outcomes used as the "outcome" metric attribute
const (
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeLogin    = "login_failed"
	OutcomeTimeout  = "timeout"
	OutcomeError    = "error"
)

// BusinessMetrics holds the application metrics
type BusinessMetrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	PortalLookupsTotal   metric.Int64Counter
	PortalLookupDuration metric.Float64Histogram
	PortalActiveSessions metric.Int64UpDownCounter

	ServicePackResolutions metric.Int64Counter
}

// CreateBusinessMetrics creates the application instruments on meter
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	var m BusinessMetrics
	var err error

	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, err
	}
	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.HTTPActiveRequests, err = meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.PortalLookupsTotal, err = meter.Int64Counter(
		"portal_lookups_total",
		metric.WithDescription("Total number of license portal lookups by outcome"),
	); err != nil {
		return nil, err
	}
	if m.PortalLookupDuration, err = meter.Float64Histogram(
		"portal_lookup_duration_seconds",
		metric.WithDescription("License portal lookup duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.PortalActiveSessions, err = meter.Int64UpDownCounter(
		"portal_active_sessions",
		metric.WithDescription("Number of browser sessions currently open against the portal"),
	); err != nil {
		return nil, err
	}

	if m.ServicePackResolutions, err = meter.Int64Counter(
		"servicepack_resolutions_total",
		metric.WithDescription("Total number of service pack resolutions by result kind"),
	); err != nil {
		return nil, err
	}

	return &m, nil
}

// RecordPortalLookup records one finished portal lookup
func (m *BusinessMetrics) RecordPortalLookup(ctx context.Context, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.PortalLookupsTotal.Add(ctx, 1, attrs)
	m.PortalLookupDuration.Record(ctx, duration.Seconds(), attrs)
}

// SessionOpened and SessionClosed track open browser sessions
func (m *BusinessMetrics) SessionOpened(ctx context.Context) {
	if m != nil {
		m.PortalActiveSessions.Add(ctx, 1)
	}
}

func (m *BusinessMetrics) SessionClosed(ctx context.Context) {
	if m != nil {
		m.PortalActiveSessions.Add(ctx, -1)
	}
}

// RecordResolution counts a service pack resolution by result kind
func (m *BusinessMetrics) RecordResolution(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.ServicePackResolutions.Add(ctx, 1, metric.WithAttributes(attribute.String("result", kind)))
}
