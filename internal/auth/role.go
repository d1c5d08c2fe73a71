package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/wolfeidau/multicloud/internal/apierr"
	"github.com/wolfeidau/multicloud/internal/models"
)

const MsgNoMembership = "no membership in context"

// Authorize allows membership when no roles are required, or when its level is at
// least the lowest level among minRoles.
func Authorize(membership *models.Membership, minRoles ...models.Role) error {
	if len(minRoles) == 0 {
		return nil
	}
	if membership == nil {
		return apierr.Forbidden(MsgNoMembership)
	}

	// unknown roles never lower the bar
	required := 0
	for _, r := range minRoles {
		if !r.Valid() {
			continue
		}
		if required == 0 || r.Level() < required {
			required = r.Level()
		}
	}

	if required == 0 || membership.Role.Level() < required {
		names := make([]string, len(minRoles))
		for i, r := range minRoles {
			names[i] = string(r)
		}
		return apierr.Forbidden(fmt.Sprintf("insufficient permissions: requires %s, your role is %s",
			strings.Join(names, " or "), membership.Role))
	}

	return nil
}

// RequireRole returns middleware enforcing Authorize against the membership
// attached by the TenantResolver.
func RequireRole(recorder Recorder, minRoles ...models.Role) func(http.Handler) http.Handler {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := Authorize(MembershipFromContext(r.Context()), minRoles...); err != nil {
				recorder.Denied(r.Context(), "role", "insufficient_role")
				apierr.Write(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
