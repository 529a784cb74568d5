package identity

import "errors"

// ErrNoPrimaryIdentity indicates a snapshot without exactly one primary identity.
var ErrNoPrimaryIdentity = errors.New("snapshot requires exactly one primary identity")

// Snapshot is the assembled view of a principal's identity graph: the primary
// registered identity, any linked identities, the role currently in effect,
// and the full set of held roles.
type Snapshot struct {
	Primary    Identity   `json:"primary"`
	Linked     []Identity `json:"linked"`
	ActiveRole Role       `json:"active_role"`
	AllRoles   []Role     `json:"all_roles"`
}

// addableRoles is the candidate set offered in "add a role" views.
// tax_preparer is the legacy alias of staff and is never offered separately;
// super_admin can never be requested.
var addableRoles = []Role{RoleClient, RoleStaff, RoleFirm}

// HasRole reports whether the principal holds the given role.
func (s Snapshot) HasRole(role Role) bool {
	for _, r := range s.AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// IsSuperAdmin reports whether any held role is super_admin. A super_admin
// principal holds no other roles and is offered no switch/add/remove capability.
func (s Snapshot) IsSuperAdmin() bool {
	return s.HasRole(RoleSuperAdmin)
}

// CanManageRoles reports whether role switch/add/remove may be offered at all.
func (s Snapshot) CanManageRoles() bool {
	return !s.IsSuperAdmin()
}

// AvailableRolesToAdd derives the fixed roles the principal may still request:
// the addable set minus roles already held. Holding tax_preparer counts as
// holding staff, so staff is suppressed whenever tax_preparer appears in the
// held list even if staff itself is not held.
func (s Snapshot) AvailableRolesToAdd() []Role {
	if s.IsSuperAdmin() {
		return nil
	}

	held := make(map[Role]bool, len(s.AllRoles))
	for _, r := range s.AllRoles {
		held[r] = true
	}
	if held[RoleTaxPreparer] {
		held[RoleStaff] = true
	}

	var out []Role
	for _, r := range addableRoles {
		if !held[r] {
			out = append(out, r)
		}
	}
	return out
}

// Validate checks the structural invariants of the snapshot.
func (s Snapshot) Validate() error {
	if s.Primary.ID == "" || !s.Primary.Primary {
		return ErrNoPrimaryIdentity
	}
	for _, l := range s.Linked {
		if l.Primary {
			return ErrNoPrimaryIdentity
		}
	}
	if !s.HasRole(s.ActiveRole) {
		return errors.New("active role is not among held roles")
	}
	if s.IsSuperAdmin() && len(s.AllRoles) > 1 {
		return errors.New("super_admin cannot coexist with other roles")
	}
	return nil
}
