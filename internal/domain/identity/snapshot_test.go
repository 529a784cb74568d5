package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func snapshotWith(roles ...Role) Snapshot {
	primary := RoleClient
	if len(roles) > 0 {
		primary = roles[0]
	}
	return Snapshot{
		Primary:    Identity{ID: "u-1", Role: primary, Primary: true},
		ActiveRole: primary,
		AllRoles:   roles,
	}
}

func TestSnapshotHasRole(t *testing.T) {
	snap := snapshotWith(RoleClient, RoleStaff)
	assert.True(t, snap.HasRole(RoleClient))
	assert.True(t, snap.HasRole(RoleStaff))
	assert.False(t, snap.HasRole(RoleFirm))
}

func TestSnapshotAvailableRolesToAdd(t *testing.T) {
	tests := []struct {
		name string
		held []Role
		want []Role
	}{
		{
			name: "client only",
			held: []Role{RoleClient},
			want: []Role{RoleStaff, RoleFirm},
		},
		{
			name: "client and staff",
			held: []Role{RoleClient, RoleStaff},
			want: []Role{RoleFirm},
		},
		{
			name: "tax preparer suppresses staff",
			held: []Role{RoleTaxPreparer},
			want: []Role{RoleClient, RoleFirm},
		},
		{
			name: "everything held",
			held: []Role{RoleClient, RoleStaff, RoleFirm},
			want: nil,
		},
		{
			name: "custom role does not shadow fixed candidates",
			held: []Role{RoleClient, "custom_role_7"},
			want: []Role{RoleStaff, RoleFirm},
		},
		{
			name: "super admin gets nothing",
			held: []Role{RoleSuperAdmin},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := snapshotWith(tt.held...)
			assert.Equal(t, tt.want, snap.AvailableRolesToAdd())
		})
	}
}

func TestSnapshotSuperAdmin(t *testing.T) {
	admin := snapshotWith(RoleSuperAdmin)
	assert.True(t, admin.IsSuperAdmin())
	assert.False(t, admin.CanManageRoles())

	regular := snapshotWith(RoleClient, RoleStaff)
	assert.False(t, regular.IsSuperAdmin())
	assert.True(t, regular.CanManageRoles())
}

func TestSnapshotValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		snap := snapshotWith(RoleClient, RoleStaff)
		snap.Linked = []Identity{{ID: "u-2", Role: RoleStaff}}
		assert.NoError(t, snap.Validate())
	})

	t.Run("missing primary", func(t *testing.T) {
		snap := snapshotWith(RoleClient)
		snap.Primary = Identity{}
		assert.ErrorIs(t, snap.Validate(), ErrNoPrimaryIdentity)
	})

	t.Run("second primary in linked list", func(t *testing.T) {
		snap := snapshotWith(RoleClient)
		snap.Linked = []Identity{{ID: "u-2", Role: RoleStaff, Primary: true}}
		assert.ErrorIs(t, snap.Validate(), ErrNoPrimaryIdentity)
	})

	t.Run("active role not held", func(t *testing.T) {
		snap := snapshotWith(RoleClient)
		snap.ActiveRole = RoleFirm
		assert.Error(t, snap.Validate())
	})

	t.Run("super admin with extra roles", func(t *testing.T) {
		snap := snapshotWith(RoleSuperAdmin, RoleClient)
		assert.Error(t, snap.Validate())
	})
}
