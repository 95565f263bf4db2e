package auth

import (
	"context"
	"strings"
)

// Role is the closed set of site roles. The three approver roles each hold
// one daily sign-off slot on a permit; admin may act in any of them.
type Role string

const (
	RoleAdmin           Role = "admin"
	RoleOpgaveansvarlig Role = "opgaveansvarlig"
	RoleDrift           Role = "drift"
	RoleEntreprenor     Role = "entreprenor"
)

// ApproverRoles lists the sign-off slots in display order.
var ApproverRoles = [3]Role{RoleOpgaveansvarlig, RoleDrift, RoleEntreprenor}

// ParseRole matches case-insensitively against every known role.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleOpgaveansvarlig:
		return RoleOpgaveansvarlig, true
	case RoleDrift:
		return RoleDrift, true
	case RoleEntreprenor:
		return RoleEntreprenor, true
	}
	return "", false
}

// ParseApproverRole is ParseRole restricted to the three approval slots.
func ParseApproverRole(s string) (Role, bool) {
	r, ok := ParseRole(s)
	if !ok || !r.IsApprover() {
		return "", false
	}
	return r, true
}

func (r Role) IsApprover() bool {
	switch r {
	case RoleOpgaveansvarlig, RoleDrift, RoleEntreprenor:
		return true
	case RoleAdmin:
		return false
	}
	return false
}

// IsEditor reports whether the role may create permits and change their
// lifecycle status.
func (r Role) IsEditor() bool {
	switch r {
	case RoleAdmin, RoleOpgaveansvarlig, RoleDrift:
		return true
	case RoleEntreprenor:
		return false
	}
	return false
}

func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Administrator"
	case RoleOpgaveansvarlig:
		return "Opgaveansvarlig"
	case RoleDrift:
		return "Drift"
	case RoleEntreprenor:
		return "Entreprenør"
	}
	return string(r)
}

func (r Role) String() string {
	return string(r)
}

// Identity is who is acting on a request. Firma is only meaningful for
// entreprenor identities.
type Identity struct {
	UserID int64  `json:"user_id"`
	Role   Role   `json:"role"`
	Firma  string `json:"firma,omitempty"`
}

// User is the authenticated principal placed in the request context.
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
	Firma string `json:"firma,omitempty"`
}

func (u *User) Identity() Identity {
	id := Identity{UserID: u.ID, Role: u.Role}
	if u.Role == RoleEntreprenor {
		id.Firma = u.Firma
	}
	return id
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type ctxKey string

const ContextUserKey ctxKey = "user"

func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ContextUserKey).(*User)
	return u, ok
}

func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ContextUserKey, u)
}
