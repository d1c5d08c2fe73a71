package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/multicloud/internal/apierr"
	"github.com/wolfeidau/multicloud/internal/auth"
	"github.com/wolfeidau/multicloud/internal/cloud"
	"github.com/wolfeidau/multicloud/internal/directory"
	mchttp "github.com/wolfeidau/multicloud/internal/http"
	"github.com/wolfeidau/multicloud/internal/logger"
	"github.com/wolfeidau/multicloud/internal/models"
	"github.com/wolfeidau/multicloud/internal/telemetry"
)

const defaultMaxBodyBytes = 1 << 20 // 1MiB

// Config holds the services and settings the HTTP surface is built from.
type Config struct {
	Issuer        *auth.Issuer
	Chain         *auth.Chain
	Users         *directory.Users
	Organizations *directory.Organizations
	Cloud         *cloud.Service

	// Metrics instruments every route when set.
	Metrics *telemetry.HTTPMetrics
	// AuthLimiter rate limits the public auth routes when set.
	AuthLimiter *mchttp.RateLimiter
	// Health reports whether the backing store is reachable.
	Health func(ctx context.Context) error

	TrustProxy   bool
	MaxBodyBytes int64
}

// Server is the JSON API under /api.
type Server struct {
	cfg Config
}

// NewServer creates a new server.
func NewServer(cfg Config) *Server {
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &Server{cfg: cfg}
}

var (
	public       = auth.Operation{Public: true}
	tenantExempt = auth.Operation{TenantExempt: true}
	anyMember    = auth.Operation{}
	adminOnly    = auth.Operation{MinRoles: []models.Role{models.RoleAdmin}}
	ownerOnly    = auth.Operation{MinRoles: []models.Role{models.RoleOwner}}
)

// Handler returns the HTTP handler for the server.
func (s *Server) Handler(log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	s.route(mux, "GET /api", public, s.handleRoot)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.cfg.Metrics != nil {
		mux.Handle("GET /metrics", s.cfg.Metrics.Handler())
	}

	// auth
	s.route(mux, "POST /api/auth/register", public, s.limit(s.handleRegister))
	s.route(mux, "POST /api/auth/login", public, s.limit(s.handleLogin))
	s.route(mux, "POST /api/auth/refresh", public, s.limit(s.handleRefresh))
	s.route(mux, "POST /api/auth/logout", tenantExempt, s.handleLogout)
	s.route(mux, "GET /api/auth/me", tenantExempt, s.handleMe)

	// users
	s.route(mux, "GET /api/users", tenantExempt, s.handleListUsers)
	s.route(mux, "GET /api/users/{id}", tenantExempt, s.handleGetUser)
	s.route(mux, "PATCH /api/users/{id}", tenantExempt, s.handleUpdateUser)
	s.route(mux, "DELETE /api/users/{id}", tenantExempt, s.handleDeleteUser)

	// organizations
	s.route(mux, "POST /api/organization", tenantExempt, s.handleCreateOrganization)
	s.route(mux, "GET /api/organization", tenantExempt, s.handleListOrganizations)
	s.route(mux, "GET /api/organization/{id}", tenantExempt, s.handleGetOrganization)
	s.route(mux, "PATCH /api/organization/{id}", tenantExempt, s.handleUpdateOrganization)
	s.route(mux, "DELETE /api/organization/{id}", tenantExempt, s.handleDeleteOrganization)
	s.route(mux, "POST /api/organization/{id}/members", tenantExempt, s.handleAddMember)
	s.route(mux, "DELETE /api/organization/{id}/members/{userId}", tenantExempt, s.handleRemoveMember)

	// cloud, scoped to the organization in the x-organization-id header
	s.route(mux, "POST /api/cloud/accounts", adminOnly, s.handleCreateCloudAccount)
	s.route(mux, "GET /api/cloud/accounts", anyMember, s.handleListCloudAccounts)
	s.route(mux, "GET /api/cloud/accounts/{id}/credentials", ownerOnly, s.handleCloudCredentials)
	s.route(mux, "GET /api/cloud/settings", adminOnly, s.handleCloudNotice("Admin-only cloud settings"))
	s.route(mux, "GET /api/cloud/credentials", ownerOnly, s.handleCloudNotice("Owner-only credentials management"))
	s.route(mux, "GET /api/cloud/context", anyMember, s.handleCloudContext)

	mux.HandleFunc("/", s.handleNotFound)

	var h http.Handler = mux
	h = mchttp.MaxBodyBytes(s.cfg.MaxBodyBytes)(h)
	h = logger.RequestLogger(log)(h)
	h = mchttp.ClientIPMiddleware(s.cfg.TrustProxy)(h)
	return h
}

// route registers h behind the gates op requires, instrumented under its pattern.
func (s *Server) route(mux *http.ServeMux, pattern string, op auth.Operation, h http.HandlerFunc) {
	var handler http.Handler = h
	if !op.Public {
		handler = s.cfg.Chain.Wrap(op, handler)
	}
	if s.cfg.Metrics != nil {
		handler = s.cfg.Metrics.Instrument(pattern, handler)
	}
	mux.Handle(pattern, handler)
}

func (s *Server) limit(h http.HandlerFunc) http.HandlerFunc {
	if s.cfg.AuthLimiter == nil {
		return h
	}
	return s.cfg.AuthLimiter.Middleware(h).ServeHTTP
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok", "service": "multicloud"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Health != nil {
		if err := s.cfg.Health(r.Context()); err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("Health check failed")
			writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	apierr.Write(w, r, apierr.NotFound(fmt.Sprintf("Cannot %s %s", r.Method, r.URL.Path)))
}
