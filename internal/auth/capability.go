package auth

// Denial reasons are for server-side audit logs only. Callers must not echo
// them to the client.
const (
	ReasonUnknownRole        = "unknown role"
	ReasonInsufficientRole   = "insufficient role"
	ReasonTenantIsolation    = "tenant isolation violation"
	ReasonMissingFirm        = "identity has no firm"
	ReasonEditorRequired     = "editor role required"
	ReasonAdminRequired      = "admin role required"
	ReasonForeignFirmPermits = "permit belongs to another firm"
)

// Decision is the result of a capability check.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// CanActAs decides whether id may act in the required approver role on a
// permit owned by targetFirm.
//
// Admin may act as any approver role. Anyone else must hold the role
// itself. When the acting role is literally entreprenor the firm must match
// the permit's firm; admins acting as admin never hit the firm check.
func CanActAs(id Identity, required Role, targetFirm string) Decision {
	if !required.IsApprover() {
		return deny(ReasonUnknownRole)
	}
	if id.Role != RoleAdmin && id.Role != required {
		return deny(ReasonInsufficientRole)
	}
	if id.Role == RoleEntreprenor {
		if id.Firma == "" {
			return deny(ReasonMissingFirm)
		}
		if id.Firma != targetFirm {
			return deny(ReasonTenantIsolation)
		}
	}
	return allow()
}

// CanOperateWork decides who may flip a permit between working and paused:
// the contractor that owns it, or an admin.
func CanOperateWork(id Identity, targetFirm string) Decision {
	return CanActAs(id, RoleEntreprenor, targetFirm)
}

// CanView restricts entreprenor identities to their own firm's permits.
func CanView(id Identity, targetFirm string) Decision {
	if _, ok := ParseRole(string(id.Role)); !ok {
		return deny(ReasonUnknownRole)
	}
	if id.Role != RoleEntreprenor {
		return allow()
	}
	if id.Firma == "" {
		return deny(ReasonMissingFirm)
	}
	if id.Firma != targetFirm {
		return deny(ReasonForeignFirmPermits)
	}
	return allow()
}

func CanEdit(id Identity) Decision {
	if !id.Role.IsEditor() {
		return deny(ReasonEditorRequired)
	}
	return allow()
}

func CanAdminister(id Identity) Decision {
	if id.Role != RoleAdmin {
		return deny(ReasonAdminRequired)
	}
	return allow()
}
