package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchesPendingCustomRoleShapes(t *testing.T) {
	// A pending request for custom role 42 must match regardless of which
	// shape the backend used for the requested-role field.
	target := CustomRoleToken(42)

	tests := []struct {
		name string
		req  RoleRequest
		want bool
	}{
		{
			name: "embedded custom role object",
			req: RoleRequest{
				Status:        StatusPending,
				RequestedRole: "reviewer",
				CustomRole:    &CustomRole{ID: 42, Name: "Reviewer"},
			},
			want: true,
		},
		{
			name: "bare numeric id",
			req:  RoleRequest{Status: StatusPending, RequestedRole: "42"},
			want: true,
		},
		{
			name: "synthetic token",
			req:  RoleRequest{Status: StatusPending, RequestedRole: "custom_role_42"},
			want: true,
		},
		{
			name: "different custom role",
			req: RoleRequest{
				Status:        StatusPending,
				RequestedRole: "7",
				CustomRole:    &CustomRole{ID: 7},
			},
			want: false,
		},
		{
			name: "matching shape but not pending",
			req:  RoleRequest{Status: StatusApproved, RequestedRole: "custom_role_42"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesPending(tt.req, target))
		})
	}
}

func TestMatchesPendingFixedRole(t *testing.T) {
	tests := []struct {
		name   string
		req    RoleRequest
		target Role
		want   bool
	}{
		{
			name:   "literal match",
			req:    RoleRequest{Status: StatusPending, RequestedRole: "staff"},
			target: RoleStaff,
			want:   true,
		},
		{
			name:   "different role",
			req:    RoleRequest{Status: StatusPending, RequestedRole: "firm"},
			target: RoleStaff,
			want:   false,
		},
		{
			name:   "rejected request never matches",
			req:    RoleRequest{Status: StatusRejected, RequestedRole: "staff"},
			target: RoleStaff,
			want:   false,
		},
		{
			name: "cancelled request never matches",
			req: RoleRequest{
				Status:        StatusCancelled,
				RequestedRole: "custom_role_42",
				CustomRole:    &CustomRole{ID: 42},
			},
			target: CustomRoleToken(42),
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesPending(tt.req, tt.target))
		})
	}
}

func TestHasPending(t *testing.T) {
	list := []RoleRequest{
		{Status: StatusRejected, RequestedRole: "firm"},
		{Status: StatusPending, RequestedRole: "42", CustomRole: &CustomRole{ID: 42}},
		{Status: StatusPending, RequestedRole: "staff"},
	}

	assert.True(t, HasPending(list, RoleStaff))
	assert.True(t, HasPending(list, CustomRoleToken(42)))
	assert.False(t, HasPending(list, RoleFirm))
	assert.False(t, HasPending(nil, RoleStaff))
}
