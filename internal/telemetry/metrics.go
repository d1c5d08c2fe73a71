package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/multicloud"
)

// Metrics holds the OpenTelemetry instruments for security events.
// It satisfies auth.Recorder.
type Metrics struct {
	// Session issuer metrics
	LoginsTotal           metric.Int64Counter
	RefreshRotationsTotal metric.Int64Counter
	RefreshReplaysTotal   metric.Int64Counter

	// Gate metrics
	DenialsTotal metric.Int64Counter

	// Secret envelope metrics
	EnvelopeFailuresTotal metric.Int64Counter

	// Session sweeper metrics
	SessionsExpiredTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance bound to the global meter provider.
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = NewMetrics(otel.GetMeterProvider().Meter(meterName))
	})
	return metrics
}

// NewMetrics creates all metric instruments from meter.
func NewMetrics(meter metric.Meter) *Metrics {
	m := &Metrics{}

	m.LoginsTotal, _ = meter.Int64Counter(
		"multicloud.auth.logins.total",
		metric.WithDescription("Total number of login attempts by outcome"),
		metric.WithUnit("{attempt}"),
	)

	m.RefreshRotationsTotal, _ = meter.Int64Counter(
		"multicloud.auth.refresh.rotations.total",
		metric.WithDescription("Total number of successful refresh token rotations"),
		metric.WithUnit("{rotation}"),
	)

	m.RefreshReplaysTotal, _ = meter.Int64Counter(
		"multicloud.auth.refresh.replays.total",
		metric.WithDescription("Total number of refresh tokens presented after they were rotated"),
		metric.WithUnit("{replay}"),
	)

	m.DenialsTotal, _ = meter.Int64Counter(
		"multicloud.auth.denials.total",
		metric.WithDescription("Total number of requests denied by the access, tenant or role gates"),
		metric.WithUnit("{request}"),
	)

	m.EnvelopeFailuresTotal, _ = meter.Int64Counter(
		"multicloud.secrets.decrypt.failures.total",
		metric.WithDescription("Total number of credential envelopes that failed to decrypt"),
		metric.WithUnit("{failure}"),
	)

	m.SessionsExpiredTotal, _ = meter.Int64Counter(
		"multicloud.sessions.expired.total",
		metric.WithDescription("Total number of expired sessions removed by the sweeper"),
		metric.WithUnit("{session}"),
	)

	return m
}

func (m *Metrics) LoginSucceeded(ctx context.Context) {
	m.LoginsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "success")))
}

func (m *Metrics) LoginFailed(ctx context.Context, reason string) {
	m.LoginsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", "failure"),
		attribute.String("reason", reason),
	))
}

func (m *Metrics) RefreshRotated(ctx context.Context) {
	m.RefreshRotationsTotal.Add(ctx, 1)
}

func (m *Metrics) RefreshReplayed(ctx context.Context) {
	m.RefreshReplaysTotal.Add(ctx, 1)
}

func (m *Metrics) Denied(ctx context.Context, gate, reason string) {
	m.DenialsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("gate", gate),
		attribute.String("reason", reason),
	))
}

// EnvelopeFailed counts a credential envelope that could not be opened.
func (m *Metrics) EnvelopeFailed(ctx context.Context) {
	m.EnvelopeFailuresTotal.Add(ctx, 1)
}

// SessionsExpired counts sessions removed by the sweeper.
func (m *Metrics) SessionsExpired(ctx context.Context, n int) {
	if n > 0 {
		m.SessionsExpiredTotal.Add(ctx, int64(n))
	}
}
