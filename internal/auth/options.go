package auth

import (
	"context"
	"time"
)

// Recorder receives security events, typically to count them.
type Recorder interface {
	LoginSucceeded(ctx context.Context)
	LoginFailed(ctx context.Context, reason string)
	RefreshRotated(ctx context.Context)
	RefreshReplayed(ctx context.Context)
	Denied(ctx context.Context, gate, reason string)
}

type nopRecorder struct{}

func (nopRecorder) LoginSucceeded(context.Context)         {}
func (nopRecorder) LoginFailed(context.Context, string)    {}
func (nopRecorder) RefreshRotated(context.Context)         {}
func (nopRecorder) RefreshReplayed(context.Context)        {}
func (nopRecorder) Denied(context.Context, string, string) {}

type options struct {
	now        func() time.Time
	refreshTTL time.Duration
	recorder   Recorder
}

// Option configures the Issuer, Gate and TenantResolver.
type Option func(*options)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithRefreshTTL sets how long a refresh token stays valid.
func WithRefreshTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.refreshTTL = ttl
	}
}

// WithRecorder sets the security event recorder.
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}

func newOptions(opts []Option) options {
	o := options{
		now:        time.Now,
		refreshTTL: DefaultRefreshTTL,
		recorder:   nopRecorder{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
