package service

// Wire shapes for the platform session/role endpoints. Numeric-or-string
// scalars reflect envelope drift across backend versions.

import (
	"encoding/json"

	"github.com/prepflow/prepflow-go/internal/domain/identity"
)

// userWire is a user as returned by the roles, login, and switch endpoints.
type userWire struct {
	ID          json.Number   `json:"id"`
	Role        identity.Role `json:"role"`
	DisplayName string        `json:"display_name"`
	Email       string        `json:"email,omitempty"`
}

func (u userWire) toIdentity(primary bool) identity.Identity {
	return identity.Identity{
		ID:          u.ID.String(),
		Role:        u.Role,
		DisplayName: u.DisplayName,
		Primary:     primary,
	}
}

// rolesEnvelope is the GET roles response.
type rolesEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		PrimaryUser userWire        `json:"primary_user"`
		LinkedUsers []userWire      `json:"linked_users"`
		ActiveRole  identity.Role   `json:"active_role"`
		AllRoles    []identity.Role `json:"all_roles"`
	} `json:"data"`
}

// switchEnvelope is the POST switch-role response.
type switchEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		ActiveRole identity.Role `json:"active_role"`
	} `json:"data"`
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	User         json.RawMessage `json:"user"`
}

// loginEnvelope is the POST auth/login response.
type loginEnvelope struct {
	Success      bool            `json:"success"`
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	User         json.RawMessage `json:"user"`
}

// messageEnvelope is the generic {success, message} response.
type messageEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CandidateRole is one entry of the GET available-roles response.
type CandidateRole struct {
	Role                       identity.Role `json:"role"`
	DisplayName                string        `json:"display_name"`
	RequiresFirmName           bool          `json:"requires_firm_name"`
	RequiresSuperadminApproval bool          `json:"requires_superadmin_approval"`
	HasPendingRequest          bool          `json:"has_pending_request"`
}

// availableRolesEnvelope is the GET available-roles response.
type availableRolesEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		CurrentRoles   []identity.Role `json:"current_roles"`
		AvailableRoles []CandidateRole `json:"available_roles"`
	} `json:"data"`
}

// customRolesEnvelope is the GET custom-roles response.
type customRolesEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		CustomRoles []identity.CustomRole `json:"custom_roles"`
	} `json:"data"`
}

// reviewEnvelope is the approve/reject/cancel response; the request echo is
// optional on older backends.
type reviewEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		Request *identity.RoleRequest `json:"request"`
	} `json:"data"`
}
