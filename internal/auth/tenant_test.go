package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/multicloud/internal/models"
)

func TestTenantResolver(t *testing.T) {
	env := newTestEnv(t)
	alice, pair := env.registerAndLogin(t, "a@x.com", "11144477735")
	orgA := env.createOrganization(t, "Org A")
	orgB := env.createOrganization(t, "Org B")
	env.addMember(t, alice.ID, orgA.ID, models.RoleMember)

	var (
		seenOrg        *models.Organization
		seenMembership *models.Membership
	)
	handler := env.gate.Middleware(env.resolver.Middleware(RequireTenantContext(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenOrg = OrganizationFromContext(r.Context())
		seenMembership = MembershipFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))))

	t.Run("member", func(t *testing.T) {
		rec := serve(handler, pair.AccessToken, map[string]string{OrganizationHeader: orgA.ID.String()})
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, orgA.ID, seenOrg.ID)
		require.Equal(t, models.RoleMember, seenMembership.Role)
	})

	t.Run("uppercase id", func(t *testing.T) {
		rec := serve(handler, pair.AccessToken, map[string]string{OrganizationHeader: strings.ToUpper(orgA.ID.String())})
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing header", func(t *testing.T) {
		requireEnvelope(t, serve(handler, pair.AccessToken, nil), http.StatusForbidden, MsgMissingOrganization)
	})

	for name, value := range map[string]string{
		"not a uuid": "not-a-uuid",
		"braces":     "{" + orgA.ID.String() + "}",
		"urn":        "urn:uuid:" + orgA.ID.String(),
		"no dashes":  strings.ReplaceAll(orgA.ID.String(), "-", ""),
	} {
		t.Run(name, func(t *testing.T) {
			rec := serve(handler, pair.AccessToken, map[string]string{OrganizationHeader: value})
			requireEnvelope(t, rec, http.StatusForbidden, MsgInvalidOrganization)
		})
	}

	t.Run("repeated header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		req.Header.Add(OrganizationHeader, orgA.ID.String())
		req.Header.Add(OrganizationHeader, orgB.ID.String())
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		requireEnvelope(t, rec, http.StatusForbidden, MsgInvalidOrganization)
	})

	t.Run("not a member and unknown organization look the same", func(t *testing.T) {
		rec := serve(handler, pair.AccessToken, map[string]string{OrganizationHeader: orgB.ID.String()})
		requireEnvelope(t, rec, http.StatusForbidden, MsgNoOrganizationAccess)

		rec = serve(handler, pair.AccessToken, map[string]string{OrganizationHeader: uuid.Must(uuid.NewV7()).String()})
		requireEnvelope(t, rec, http.StatusForbidden, MsgNoOrganizationAccess)
	})
}

func TestRequireTenantContext(t *testing.T) {
	env := newTestEnv(t)
	_, pair := env.registerAndLogin(t, "a@x.com", "11144477735")

	// authenticated but the resolver was never applied
	handler := env.gate.Middleware(RequireTenantContext(okHandler))
	requireEnvelope(t, serve(handler, pair.AccessToken, nil), http.StatusForbidden, MsgMissingOrganization)
}
