// Package identity contains domain-level types for the session and role model.
// It is pure and free of transport/adapter concerns.
package identity

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Role is a platform role. The fixed enum values are defined below; firm-defined
// custom roles travel as a synthetic token of the form "custom_role_<id>".
type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleFirm        Role = "firm"
	RoleStaff       Role = "staff"
	RoleTaxPreparer Role = "tax_preparer"
	RoleClient      Role = "client"
)

// customRolePrefix is the synthetic token prefix for firm-defined roles.
const customRolePrefix = "custom_role_"

// CustomRoleToken builds the synthetic role token for a custom role id.
func CustomRoleToken(id int64) Role {
	return Role(customRolePrefix + strconv.FormatInt(id, 10))
}

// CustomRoleID extracts the numeric id from a custom-role token.
// The second return is false when the role is not a custom-role token.
func (r Role) CustomRoleID() (int64, bool) {
	s := string(r)
	if !strings.HasPrefix(s, customRolePrefix) {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(s, customRolePrefix), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// IsCustom reports whether the role is a custom-role token.
func (r Role) IsCustom() bool {
	_, ok := r.CustomRoleID()
	return ok
}

// IsFixed reports whether the role is one of the fixed enum values.
func (r Role) IsFixed() bool {
	switch r {
	case RoleSuperAdmin, RoleFirm, RoleStaff, RoleTaxPreparer, RoleClient:
		return true
	default:
		return false
	}
}

// Valid reports whether the role is a fixed enum value or a custom-role token.
func (r Role) Valid() bool {
	return r.IsFixed() || r.IsCustom()
}

// Identity is one of a principal's linked identities.
type Identity struct {
	ID          string `json:"id"`
	Role        Role   `json:"role"`
	DisplayName string `json:"display_name"`
	Primary     bool   `json:"primary"`
}

// TokenPair is the access/refresh bearer-credential pair, tagged with the
// persistence mode chosen at login time. The mode is sticky: renewals and
// role switches must preserve it until a new login chooses otherwise.
type TokenPair struct {
	Access     string `json:"access"`
	Refresh    string `json:"refresh"`
	Persistent bool   `json:"persistent"`
}

// CustomRole is a firm-defined role outside the fixed enum.
type CustomRole struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
	Active      bool     `json:"is_active"`
}

// Token returns the synthetic role token referencing this custom role.
func (c CustomRole) Token() Role {
	return CustomRoleToken(c.ID)
}

// RequestStatus is the lifecycle state of a role request.
type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusApproved  RequestStatus = "approved"
	StatusRejected  RequestStatus = "rejected"
	StatusCancelled RequestStatus = "cancelled"
)

// IsTerminal reports whether the status admits no further transitions.
func (s RequestStatus) IsTerminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransition reports whether a request may move from s to next.
// The only defined transitions are pending -> {approved, rejected, cancelled}.
func (s RequestStatus) CanTransition(next RequestStatus) bool {
	return s == StatusPending && next.IsTerminal()
}

// RoleRef carries the requested-role field of a role request. Across server
// versions the field has been returned as a role string, a custom-role token,
// or a bare numeric custom-role id, so it decodes from either a JSON string
// or a JSON number and keeps the literal text.
type RoleRef string

// UnmarshalJSON accepts both string and numeric encodings.
func (r *RoleRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = RoleRef(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*r = RoleRef(n.String())
		return nil
	}
	return fmt.Errorf("requested_role: unsupported JSON shape: %s", string(data))
}

// RoleRequest is an ask for an additional role awaiting review.
// Requests are never deleted; they only transition to a terminal status.
type RoleRequest struct {
	ID            string        `json:"id"`
	RequesterID   string        `json:"requester_id"`
	RequestedRole RoleRef       `json:"requested_role"`
	CustomRole    *CustomRole   `json:"custom_role,omitempty"`
	FirmName      string        `json:"firm_name,omitempty"`
	Message       string        `json:"message,omitempty"`
	Status        RequestStatus `json:"status"`
	ReviewNotes   string        `json:"review_notes,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	ReviewedAt    *time.Time    `json:"reviewed_at,omitempty"`
}
