package permit

import (
	"context"
	"errors"

	"github.com/frahmantamala/permit-to-work/internal/auth"
	"github.com/frahmantamala/permit-to-work/internal/core/events"
)

// SetWorkStatus moves an active, fully approved permit between working and
// paused. Checks run in order: existence, a known status value,
// authorization (admin or the owning firm's contractor), active status, then
// today's full approval set.
// The UPDATE re-checks the last two so a reset landing in between wins.
func (s *Service) SetWorkStatus(ctx context.Context, permitID int64, id auth.Identity, status string) (*Permit, error) {
	now, today := s.instant()

	p, err := s.load(ctx, permitID)
	if err != nil {
		return nil, err
	}
	ws, ok := ParseWorkStatus(status)
	if !ok {
		return nil, ErrInvalidWorkStatus
	}
	if d := auth.CanOperateWork(id, p.EntreprenorFirma); !d.Allowed {
		return nil, s.deny(ctx, "set_work_status", id, p, auth.RoleEntreprenor, d)
	}
	if p.Status != StatusActive {
		return nil, ErrPermitNotActive
	}
	if !p.FullyApprovedOn(today) {
		return nil, ErrApprovalsMissing
	}

	change := DayStatusChange{
		PermitID:  p.ID,
		Day:       today,
		StatusDag: ws.DayStatus(),
		Ikon:      ws.Icon(),
	}
	if ws == WorkStatusPaused {
		change.Sluttid = &now
	}

	applied, err := s.repo.SetDayStatus(ctx, change)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to set work status", "error", err, "permit_id", p.ID)
		return nil, persistenceError(err)
	}

	updated, err := s.load(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if !applied {
		if updated.Status != StatusActive {
			return nil, ErrPermitNotActive
		}
		return nil, ErrApprovalsMissing
	}

	s.metrics.WorkStatusChanged(string(change.StatusDag))
	s.logger.InfoContext(ctx, "work status changed",
		"permit_id", p.ID,
		"user_id", id.UserID,
		"from", p.StatusDag,
		"to", change.StatusDag)
	s.publish(ctx, events.NewWorkStatusChangedEvent(p.ID, id.UserID, string(change.StatusDag), now))
	return updated, nil
}

// IsNotReady reports whether err is one of the work-status gating errors.
func IsNotReady(err error) bool {
	return errors.Is(err, ErrApprovalsMissing) || errors.Is(err, ErrPermitNotActive)
}
