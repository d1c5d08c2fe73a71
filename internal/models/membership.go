package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role is a privilege level inside an organization.
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
	RoleViewer Role = "VIEWER"
)

// roleLevels orders roles so they can be compared numerically.
var roleLevels = map[Role]int{
	RoleOwner:  4,
	RoleAdmin:  3,
	RoleMember: 2,
	RoleViewer: 1,
}

// Level returns the numeric privilege level of the role, or 0 for an unknown role.
func (r Role) Level() int {
	return roleLevels[r]
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleLevels[r]
	return ok
}

// ParseRole converts a string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Membership binds one account to one organization with a role.
// At most one membership exists per (account, organization) pair.
type Membership struct {
	ID             uuid.UUID `json:"id"`
	AccountID      uuid.UUID `json:"userId"`
	OrganizationID uuid.UUID `json:"organizationId"`
	Role           Role      `json:"role"`
	JoinedAt       time.Time `json:"joinedAt"`
}
