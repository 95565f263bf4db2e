package permit

import (
	"time"

	"github.com/frahmantamala/permit-to-work/internal/auth"
	"github.com/frahmantamala/permit-to-work/internal/clock"
)

type RoleApproval struct {
	Role           auth.Role  `json:"role"`
	Label          string     `json:"label"`
	ApprovedToday  bool       `json:"approved_today"`
	TimestampToday *time.Time `json:"timestamp_today"`
	CanApprove     bool       `json:"can_approve"`
}

// ApprovalView is the read model for one permit on one day, as seen by one
// viewer.
type ApprovalView struct {
	Date          string         `json:"date"`
	Roles         []RoleApproval `json:"roles"`
	ApprovedCount int            `json:"approved_count"`
	FullyApproved bool           `json:"fully_approved"`
}

// NewApprovalView is pure: it reads p and never touches storage. History
// timestamps are bucketed into days using loc.
func NewApprovalView(p *Permit, today string, loc *time.Location, viewer auth.Identity) ApprovalView {
	view := ApprovalView{
		Date:  today,
		Roles: make([]RoleApproval, 0, len(auth.ApproverRoles)),
	}
	for _, role := range auth.ApproverRoles {
		approved := p.ApprovedOn(role, today)
		view.Roles = append(view.Roles, RoleApproval{
			Role:           role,
			Label:          role.Label(),
			ApprovedToday:  approved,
			TimestampToday: latestOn(p.History, role, today, loc),
			CanApprove:     !approved && auth.CanActAs(viewer, role, p.EntreprenorFirma).Allowed,
		})
		if approved {
			view.ApprovedCount++
		}
	}
	view.FullyApproved = view.ApprovedCount == len(auth.ApproverRoles)
	return view
}

// CanApprove is the per-role check behind the approve button.
func CanApprove(p *Permit, role auth.Role, viewer auth.Identity, today string) bool {
	return !p.ApprovedOn(role, today) && auth.CanActAs(viewer, role, p.EntreprenorFirma).Allowed
}

func latestOn(history []HistoryEntry, role auth.Role, day string, loc *time.Location) *time.Time {
	var latest *time.Time
	for i := range history {
		h := history[i]
		if h.Role != role || clock.DateOf(h.Timestamp, loc) != day {
			continue
		}
		if latest == nil || h.Timestamp.After(*latest) {
			ts := h.Timestamp
			latest = &ts
		}
	}
	return latest
}
