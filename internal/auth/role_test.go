package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/multicloud/internal/apierr"
	"github.com/wolfeidau/multicloud/internal/models"
)

func TestAuthorize(t *testing.T) {
	member := func(role models.Role) *models.Membership {
		return &models.Membership{Role: role}
	}

	tests := []struct {
		name       string
		membership *models.Membership
		minRoles   []models.Role
		wantMsg    string
	}{
		{name: "no roles required", membership: member(models.RoleViewer)},
		{name: "no roles required without membership", membership: nil},
		{name: "owner passes admin", membership: member(models.RoleOwner), minRoles: []models.Role{models.RoleAdmin}},
		{name: "admin passes admin", membership: member(models.RoleAdmin), minRoles: []models.Role{models.RoleAdmin}},
		{
			name:       "member denied admin",
			membership: member(models.RoleMember),
			minRoles:   []models.Role{models.RoleAdmin},
			wantMsg:    "insufficient permissions: requires ADMIN, your role is MEMBER",
		},
		{name: "lowest alternative wins", membership: member(models.RoleMember), minRoles: []models.Role{models.RoleOwner, models.RoleViewer}},
		{
			name:       "below every alternative",
			membership: member(models.RoleViewer),
			minRoles:   []models.Role{models.RoleAdmin, models.RoleMember},
			wantMsg:    "insufficient permissions: requires ADMIN or MEMBER, your role is VIEWER",
		},
		{
			name:       "missing membership",
			membership: nil,
			minRoles:   []models.Role{models.RoleViewer},
			wantMsg:    MsgNoMembership,
		},
		{
			name:       "unknown required role fails closed",
			membership: member(models.RoleOwner),
			minRoles:   []models.Role{"SUPERUSER"},
			wantMsg:    "insufficient permissions: requires SUPERUSER, your role is OWNER",
		},
		{
			name:       "unknown membership role",
			membership: member("GUEST"),
			minRoles:   []models.Role{models.RoleViewer},
			wantMsg:    "insufficient permissions: requires VIEWER, your role is GUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.membership, tt.minRoles...)
			if tt.wantMsg == "" {
				require.NoError(t, err)
				return
			}
			requireAPIError(t, err, apierr.KindForbidden, tt.wantMsg)
		})
	}
}
