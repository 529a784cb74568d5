package identity

import "strconv"

// MatchesPending reports whether req is a non-terminal request for target.
//
// The matching deliberately accepts every shape the backend has used for the
// requested-role field across versions. For a custom-role target the reference
// may arrive as an embedded custom-role object, as a bare numeric id, or as the
// synthetic "custom_role_<id>" token; all three are checked. For a plain role
// the literal value is compared, with a fallback against the embedded
// custom-role id to guard the endpoint variant that returns bare ids.
// Do not simplify: dropping a branch silently breaks duplicate detection for
// one of the live response versions.
func MatchesPending(req RoleRequest, target Role) bool {
	if req.Status != StatusPending {
		return false
	}

	got := string(req.RequestedRole)

	if id, ok := target.CustomRoleID(); ok {
		if req.CustomRole != nil && req.CustomRole.ID == id {
			return true
		}
		if got == strconv.FormatInt(id, 10) {
			return true
		}
		return got == string(target)
	}

	if got == string(target) {
		return true
	}
	return req.CustomRole != nil && strconv.FormatInt(req.CustomRole.ID, 10) == string(target)
}

// HasPending reports whether any request in the list is a pending request
// for target, per MatchesPending.
func HasPending(requests []RoleRequest, target Role) bool {
	for _, req := range requests {
		if MatchesPending(req, target) {
			return true
		}
	}
	return false
}
