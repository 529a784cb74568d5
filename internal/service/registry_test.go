package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/prepflow/prepflow-go/internal/apperrors"
	"github.com/prepflow/prepflow-go/internal/domain/identity"
	"github.com/prepflow/prepflow-go/internal/ports"
)

func TestNewRegistryValidatesOptions(t *testing.T) {
	_, err := NewRegistry(RegistryOptions{})
	assert.Error(t, err)
}

func TestRegistryLoad(t *testing.T) {
	f := newServiceFixture(t)
	f.login(t)

	f.gw.EXPECT().
		Do(gomock.Any(), matchReq(http.MethodGet, "roles")).
		Return(jsonResponse(rolesBody), nil)

	snap, err := f.registry.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "1", snap.Primary.ID)
	assert.Equal(t, identity.RoleClient, snap.Primary.Role)
	assert.True(t, snap.Primary.Primary)
	require.Len(t, snap.Linked, 1)
	assert.Equal(t, identity.RoleStaff, snap.Linked[0].Role)
	assert.Equal(t, identity.RoleClient, snap.ActiveRole)
	assert.Equal(t, []identity.Role{identity.RoleClient, identity.RoleStaff}, snap.AllRoles)

	// The identity record is cached alongside the tokens.
	user, active, err := f.store.Identity(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, user)
	assert.Equal(t, identity.RoleClient, active)

	cached, ok := f.registry.Snapshot()
	require.True(t, ok)
	assert.Equal(t, snap, cached)
}

func TestRegistryLoadFallbacks(t *testing.T) {
	f := newServiceFixture(t)
	f.login(t)

	// Older backends omit active_role and all_roles; the primary role fills in.
	f.gw.EXPECT().
		Do(gomock.Any(), matchReq(http.MethodGet, "roles")).
		Return(jsonResponse(`{
			"success": true,
			"data": {"primary_user": {"id": 1, "role": "firm", "display_name": "Acme"}}
		}`), nil)

	snap, err := f.registry.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, identity.RoleFirm, snap.ActiveRole)
	assert.Equal(t, []identity.Role{identity.RoleFirm}, snap.AllRoles)
}

func TestRegistryLoadRejectsInvalidGraph(t *testing.T) {
	f := newServiceFixture(t)

	// Active role not in the held set violates the snapshot invariants.
	f.gw.EXPECT().
		Do(gomock.Any(), matchReq(http.MethodGet, "roles")).
		Return(jsonResponse(`{
			"success": true,
			"data": {
				"primary_user": {"id": 1, "role": "client", "display_name": "Dana"},
				"active_role": "firm",
				"all_roles": ["client"]
			}
		}`), nil)

	_, err := f.registry.Load(context.Background())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeParse), "got %v", err)

	_, ok := f.registry.Snapshot()
	assert.False(t, ok, "invalid snapshot must not be cached")
}

func TestRegistrySnapshotBeforeLoad(t *testing.T) {
	f := newServiceFixture(t)
	_, ok := f.registry.Snapshot()
	assert.False(t, ok)
	assert.Nil(t, f.registry.AvailableRolesToAdd())
}

func TestRegistryAvailableRolesToAdd(t *testing.T) {
	f := newServiceFixture(t)
	f.login(t)
	f.loadSnapshot(t)

	// client and staff held, so firm remains.
	assert.Equal(t, []identity.Role{identity.RoleFirm}, f.registry.AvailableRolesToAdd())
}

func TestRegistryAvailableRoles(t *testing.T) {
	f := newServiceFixture(t)

	f.gw.EXPECT().
		Do(gomock.Any(), matchReq(http.MethodGet, "available-roles")).
		Return(jsonResponse(`{
			"success": true,
			"data": {
				"current_roles": ["client"],
				"available_roles": [
					{"role": "firm", "display_name": "Firm", "requires_firm_name": true},
					{"role": "staff", "display_name": "Staff", "has_pending_request": true}
				]
			}
		}`), nil)

	candidates, err := f.registry.AvailableRoles(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, identity.RoleFirm, candidates[0].Role)
	assert.True(t, candidates[0].RequiresFirmName)
	assert.True(t, candidates[1].HasPendingRequest)
}

func TestRegistryRemoveRoleGuards(t *testing.T) {
	tests := []struct {
		name string
		role identity.Role
	}{
		{name: "role not held", role: identity.RoleFirm},
		{name: "primary role", role: identity.RoleClient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(t)
			f.login(t)
			f.loadSnapshot(t)

			// No further gateway expectations: guards fail before any call.
			_, err := f.registry.RemoveRole(context.Background(), tt.role)
			assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation), "got %v", err)
		})
	}
}

func TestRegistryRemoveRoleRejectsActiveRole(t *testing.T) {
	f := newServiceFixture(t)
	f.login(t)

	// Active role staff, primary client: staff is removable by neither rule.
	f.gw.EXPECT().
		Do(gomock.Any(), matchReq(http.MethodGet, "roles")).
		Return(jsonResponse(`{
			"success": true,
			"data": {
				"primary_user": {"id": 1, "role": "client", "display_name": "Dana"},
				"active_role": "staff",
				"all_roles": ["client", "staff"]
			}
		}`), nil)
	_, err := f.registry.Load(context.Background())
	require.NoError(t, err)

	_, err = f.registry.RemoveRole(context.Background(), identity.RoleStaff)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation), "got %v", err)
}

func TestRegistryRemoveRole(t *testing.T) {
	f := newServiceFixture(t)
	f.login(t)
	f.loadSnapshot(t)

	events, cancel := f.bus.Subscribe()
	defer cancel()

	gomock.InOrder(
		f.gw.EXPECT().
			Do(gomock.Any(), matchReq(http.MethodDelete, "roles/remove")).
			Return(jsonResponse(`{"success": true, "message": "role removed"}`), nil),
		f.gw.EXPECT().
			Do(gomock.Any(), matchReq(http.MethodGet, "roles")).
			Return(jsonResponse(`{
				"success": true,
				"data": {
					"primary_user": {"id": 1, "role": "client", "display_name": "Dana"},
					"active_role": "client",
					"all_roles": ["client"]
				}
			}`), nil),
	)

	snap, err := f.registry.RemoveRole(context.Background(), identity.RoleStaff)
	require.NoError(t, err)
	assert.Equal(t, []identity.Role{identity.RoleClient}, snap.AllRoles)

	ev := <-events
	assert.Equal(t, ports.EventIdentityChanged, ev.Kind)
	assert.Equal(t, identity.RoleClient, ev.ActiveRole)
}

func TestRegistryRemoveRoleForSuperAdmin(t *testing.T) {
	f := newServiceFixture(t)
	f.login(t)

	f.gw.EXPECT().
		Do(gomock.Any(), matchReq(http.MethodGet, "roles")).
		Return(jsonResponse(`{
			"success": true,
			"data": {
				"primary_user": {"id": 1, "role": "super_admin", "display_name": "Root"},
				"active_role": "super_admin",
				"all_roles": ["super_admin"]
			}
		}`), nil)
	_, err := f.registry.Load(context.Background())
	require.NoError(t, err)

	_, err = f.registry.RemoveRole(context.Background(), identity.RoleSuperAdmin)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation), "got %v", err)
}
