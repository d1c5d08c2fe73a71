package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/multicloud/internal/auth"
	"github.com/wolfeidau/multicloud/internal/cloud"
	"github.com/wolfeidau/multicloud/internal/directory"
	mchttp "github.com/wolfeidau/multicloud/internal/http"
	"github.com/wolfeidau/multicloud/internal/logger"
	"github.com/wolfeidau/multicloud/internal/password"
	"github.com/wolfeidau/multicloud/internal/secrets"
	"github.com/wolfeidau/multicloud/internal/server"
	"github.com/wolfeidau/multicloud/internal/store"
	"github.com/wolfeidau/multicloud/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const serviceName = "multicloud-api"

type ServeCmd struct {
	// Server configuration
	Listen     string `help:"HTTP server listen address" default:"0.0.0.0:8080" env:"MULTICLOUD_LISTEN"`
	Cert       string `help:"path to TLS cert file, plain HTTP when empty" default:"" env:"MULTICLOUD_TLS_CERT"`
	Key        string `help:"path to TLS key file, plain HTTP when empty" default:"" env:"MULTICLOUD_TLS_KEY"`
	TrustProxy bool   `help:"trust X-Forwarded-For and X-Real-IP for the client address" default:"false" env:"MULTICLOUD_TRUST_PROXY"`

	// CORS configuration
	CORSOrigins []string `help:"allowed CORS origins for API requests" default:"http://localhost:3000" env:"MULTICLOUD_CORS_ORIGINS"`

	// Token configuration
	JWTSecret   string        `help:"HMAC secret for access tokens, at least 32 bytes" env:"MULTICLOUD_JWT_SECRET"`
	JWTIssuer   string        `help:"access token issuer" default:"multicloud" env:"MULTICLOUD_JWT_ISSUER"`
	JWTAudience string        `help:"access token audience, not checked when empty" default:"" env:"MULTICLOUD_JWT_AUDIENCE"`
	AccessTTL   time.Duration `help:"access token TTL" default:"15m" env:"MULTICLOUD_ACCESS_TTL"`
	RefreshTTL  time.Duration `help:"refresh token TTL" default:"168h" env:"MULTICLOUD_REFRESH_TTL"`
	BcryptCost  int           `help:"bcrypt cost for password hashes" default:"12" env:"MULTICLOUD_BCRYPT_COST"`

	// Secret envelope
	EncryptionKey string `help:"64 hex character AES-256 key for cloud credentials" env:"MULTICLOUD_ENCRYPTION_KEY"`

	// Store configuration
	StoreType   string        `help:"store type (memory or postgres)" default:"memory" env:"MULTICLOUD_STORE_TYPE" enum:"memory,postgres"`
	Postgres    PostgresFlags `embed:"" prefix:"postgres-"`
	AutoMigrate bool          `help:"run database migrations on startup" default:"false" env:"MULTICLOUD_AUTO_MIGRATE"`

	// Membership cache
	RedisAddr          string        `help:"redis address for the membership cache, disabled when empty" default:"" env:"MULTICLOUD_REDIS_ADDR"`
	MembershipCacheTTL time.Duration `help:"membership cache TTL" default:"30s" env:"MULTICLOUD_MEMBERSHIP_CACHE_TTL"`

	// Rate limiting and housekeeping
	AuthRateLimit float64       `help:"requests per second per client IP on public auth routes" default:"5" env:"MULTICLOUD_AUTH_RATE_LIMIT"`
	AuthRateBurst int           `help:"burst size on public auth routes" default:"10" env:"MULTICLOUD_AUTH_RATE_BURST"`
	SweepInterval time.Duration `help:"interval between expired session sweeps" default:"10m" env:"MULTICLOUD_SWEEP_INTERVAL"`

	// Telemetry
	Tracing          bool    `help:"enable tracing" default:"false" env:"MULTICLOUD_TRACING"`
	TraceSampleRatio float64 `help:"fraction of root traces sampled" default:"1.0" env:"MULTICLOUD_TRACE_SAMPLE_RATIO"`
}

func (c *ServeCmd) Validate() error {
	if len(c.JWTSecret) < auth.MinSecretLength {
		return fmt.Errorf("JWT secret must be at least %d bytes (--jwt-secret or MULTICLOUD_JWT_SECRET)", auth.MinSecretLength)
	}
	if _, err := secrets.ParseKey(c.EncryptionKey); err != nil {
		return fmt.Errorf("%w (--encryption-key or MULTICLOUD_ENCRYPTION_KEY)", err)
	}
	if (c.Cert == "") != (c.Key == "") {
		return errors.New("TLS certificate and key must be set together (--cert and --key)")
	}
	if c.SweepInterval <= 0 {
		return errors.New("session sweep interval must be positive (--sweep-interval or MULTICLOUD_SWEEP_INTERVAL)")
	}
	return nil
}

func (c *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx = log.WithContext(ctx)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	// Setup telemetry if enabled
	if c.Tracing {
		log.Info().Msg("Tracing is enabled")
		shutdown, err := telemetry.InitTelemetry(ctx, telemetry.Config{
			ServiceName: serviceName,
			Version:     globals.Version,
			SampleRatio: c.TraceSampleRatio,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
			shutdown = func(ctx context.Context) error { return nil }
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
	}
	metrics := telemetry.GetMetrics()

	// Create stores based on type
	var (
		stores *backends
		err    error
	)
	switch c.StoreType {
	case "postgres":
		stores, err = postgresBackends(ctx, &c.Postgres, c.AutoMigrate)
		if err != nil {
			return err
		}
	default:
		log.Warn().Msg("Using in-memory store, data is lost on restart")
		stores = memoryBackends()
	}
	defer stores.close()

	if c.RedisAddr != "" {
		if err := stores.withMembershipCache(ctx, c.RedisAddr, c.MembershipCacheTTL); err != nil {
			return fmt.Errorf("failed to enable membership cache: %w", err)
		}
	}

	handler, limiter, err := c.buildHandler(log, stores, metrics, globals.Version)
	if err != nil {
		return err
	}

	go limiter.Run(ctx, time.Minute)
	go sweepSessions(ctx, stores.sessions, c.SweepInterval, metrics)

	srv := configureHTTPServer(c.Listen, handler)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", c.Listen).Bool("tls", c.Cert != "").Msg("Listening")
		if c.Cert != "" {
			errCh <- srv.ListenAndServeTLS(c.Cert, c.Key)
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	log.Info().Msg("Stopped")
	return nil
}

func (c *ServeCmd) buildHandler(log zerolog.Logger, stores *backends, metrics *telemetry.Metrics, version string) (http.Handler, *mchttp.RateLimiter, error) {
	key, err := secrets.ParseKey(c.EncryptionKey)
	if err != nil {
		return nil, nil, err
	}
	envelope, err := secrets.NewEnvelope(key)
	if err != nil {
		return nil, nil, err
	}

	codec, err := auth.NewTokenCodec(auth.TokenConfig{
		Secret:   []byte(c.JWTSecret),
		Issuer:   c.JWTIssuer,
		Audience: c.JWTAudience,
		TTL:      c.AccessTTL,
	})
	if err != nil {
		return nil, nil, err
	}

	hasher, err := password.NewHasher(c.BcryptCost)
	if err != nil {
		return nil, nil, err
	}

	opts := []auth.Option{auth.WithRefreshTTL(c.RefreshTTL), auth.WithRecorder(metrics)}
	gate := auth.NewGate(codec, stores.sessions, stores.accounts, opts...)
	resolver := auth.NewTenantResolver(stores.memberships, stores.organizations, opts...)
	limiter := mchttp.NewRateLimiter(c.AuthRateLimit, c.AuthRateBurst)

	srv := server.NewServer(server.Config{
		Issuer:        auth.NewIssuer(stores.accounts, stores.sessions, hasher, codec, opts...),
		Chain:         auth.NewChain(gate, resolver, opts...),
		Users:         directory.NewUsers(stores.accounts, nil),
		Organizations: directory.NewOrganizations(stores.organizations, stores.memberships, stores.accounts, nil),
		Cloud:         cloud.NewService(stores.cloudAccounts, envelope, metrics),
		Metrics:       telemetry.NewHTTPMetrics(version),
		AuthLimiter:   limiter,
		Health:        stores.health,
		TrustProxy:    c.TrustProxy,
	})

	var handler http.Handler = srv.Handler(log)
	handler = gzhttp.GzipHandler(handler)
	handler = withCORS(c.CORSOrigins, handler)
	if c.Tracing {
		handler = otelhttp.NewHandler(handler, serviceName)
	}

	return handler, limiter, nil
}

// sweepSessions deletes expired sessions every interval until ctx is done.
func sweepSessions(ctx context.Context, sessions store.SessionStore, interval time.Duration, metrics *telemetry.Metrics) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.DeleteExpired(ctx)
			if err != nil {
				zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to sweep expired sessions")
				continue
			}
			if n > 0 {
				metrics.SessionsExpired(ctx, n)
				zerolog.Ctx(ctx).Info().Int("count", n).Msg("Swept expired sessions")
			}
		}
	}
}

// withCORS adds CORS headers to the API handler
func withCORS(allowedOrigins []string, h http.Handler) http.Handler {
	middleware := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", auth.OrganizationHeader},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         600,
	})
	return middleware.Handler(h)
}
