package identity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomRoleToken(t *testing.T) {
	assert.Equal(t, Role("custom_role_42"), CustomRoleToken(42))
	assert.Equal(t, Role("custom_role_0"), CustomRoleToken(0))
}

func TestRoleCustomRoleID(t *testing.T) {
	tests := []struct {
		name   string
		role   Role
		wantID int64
		wantOK bool
	}{
		{name: "custom token", role: "custom_role_42", wantID: 42, wantOK: true},
		{name: "fixed role", role: RoleStaff, wantOK: false},
		{name: "prefix without id", role: "custom_role_", wantOK: false},
		{name: "prefix with junk", role: "custom_role_abc", wantOK: false},
		{name: "empty", role: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := tt.role.CustomRoleID()
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantID, id)
			}
		})
	}
}

func TestRoleValid(t *testing.T) {
	for _, role := range []Role{RoleSuperAdmin, RoleFirm, RoleStaff, RoleTaxPreparer, RoleClient} {
		assert.True(t, role.Valid(), "fixed role %s", role)
		assert.True(t, role.IsFixed(), "fixed role %s", role)
		assert.False(t, role.IsCustom(), "fixed role %s", role)
	}

	assert.True(t, Role("custom_role_7").Valid())
	assert.True(t, Role("custom_role_7").IsCustom())
	assert.False(t, Role("custom_role_7").IsFixed())

	assert.False(t, Role("admin").Valid())
	assert.False(t, Role("").Valid())
}

func TestRequestStatusTransitions(t *testing.T) {
	terminal := []RequestStatus{StatusApproved, StatusRejected, StatusCancelled}

	for _, next := range terminal {
		assert.True(t, StatusPending.CanTransition(next), "pending -> %s", next)
	}

	// Terminal states absorb: no transition out, not even to themselves.
	for _, from := range terminal {
		assert.True(t, from.IsTerminal())
		for _, next := range append(terminal, StatusPending) {
			assert.False(t, from.CanTransition(next), "%s -> %s", from, next)
		}
	}

	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusPending.CanTransition(StatusPending))
}

func TestRoleRefUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		json string
		want RoleRef
	}{
		{name: "role string", json: `"staff"`, want: "staff"},
		{name: "custom token string", json: `"custom_role_42"`, want: "custom_role_42"},
		{name: "bare numeric id", json: `42`, want: "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ref RoleRef
			require.NoError(t, json.Unmarshal([]byte(tt.json), &ref))
			assert.Equal(t, tt.want, ref)
		})
	}

	var ref RoleRef
	assert.Error(t, json.Unmarshal([]byte(`{"id": 1}`), &ref))
}

func TestRoleRequestDecode(t *testing.T) {
	payload := `{
		"id": "req-1",
		"requester_id": "u-9",
		"requested_role": 42,
		"custom_role": {"id": 42, "name": "Reviewer", "is_active": true},
		"status": "pending",
		"created_at": "2026-01-05T10:00:00Z"
	}`

	var req RoleRequest
	require.NoError(t, json.Unmarshal([]byte(payload), &req))
	assert.Equal(t, "req-1", req.ID)
	assert.Equal(t, RoleRef("42"), req.RequestedRole)
	require.NotNil(t, req.CustomRole)
	assert.Equal(t, int64(42), req.CustomRole.ID)
	assert.Equal(t, Role("custom_role_42"), req.CustomRole.Token())
	assert.Equal(t, StatusPending, req.Status)
	assert.Nil(t, req.ReviewedAt)
}
