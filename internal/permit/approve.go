package permit

import (
	"context"
	"errors"

	"github.com/frahmantamala/permit-to-work/internal/auth"
	"github.com/frahmantamala/permit-to-work/internal/core/events"
	"github.com/frahmantamala/permit-to-work/internal/core/metrics"
)

// Approve records today's sign-off for roleName on the permit.
//
// Checks run in order and the first failure wins: the permit must exist,
// roleName must name an approver role, the identity must hold it (or be
// admin), a contractor must belong to the permit's firm, and the slot must
// not already be dated today. The write is
// a conditional update on the role's slot, so a concurrent duplicate comes
// back as ErrAlreadyApproved without a second history row.
func (s *Service) Approve(ctx context.Context, permitID int64, roleName string, id auth.Identity) (*ApproveResult, error) {
	now, today := s.instant()

	p, err := s.load(ctx, permitID)
	if err != nil {
		s.metrics.ApprovalAttempt(roleLabel(roleName), outcomeOf(err))
		return nil, err
	}

	role, ok := auth.ParseApproverRole(roleName)
	if !ok {
		return nil, ErrInvalidRole
	}

	if d := auth.CanActAs(id, role, p.EntreprenorFirma); !d.Allowed {
		s.metrics.ApprovalAttempt(string(role), metrics.OutcomeForbidden)
		return nil, s.deny(ctx, "approve", id, p, role, d)
	}

	if p.ApprovedOn(role, today) {
		return nil, s.alreadyApproved(ctx, p.ID, role, id)
	}

	rec, err := s.repo.RecordApproval(ctx, ApprovalRequest{
		PermitID: p.ID,
		Role:     role,
		UserID:   id.UserID,
		Day:      today,
		At:       now,
	})
	if err != nil {
		if errors.Is(err, ErrPermitNotFound) {
			s.metrics.ApprovalAttempt(string(role), metrics.OutcomeNotFound)
			return nil, ErrPermitNotFound
		}
		s.metrics.ApprovalAttempt(string(role), metrics.OutcomeError)
		s.logger.ErrorContext(ctx, "failed to record approval",
			"error", err,
			"permit_id", p.ID,
			"role", role,
			"user_id", id.UserID)
		return nil, persistenceError(err)
	}
	if !rec.Recorded {
		return nil, s.alreadyApproved(ctx, p.ID, role, id)
	}

	s.metrics.ApprovalAttempt(string(role), metrics.OutcomeApproved)
	result := &ApproveResult{
		PermitID:      p.ID,
		Role:          string(role),
		ApprovedOn:    today,
		ApprovedCount: rec.ApprovedCount,
		FullyApproved: rec.ApprovedCount == len(auth.ApproverRoles),
	}

	s.logger.InfoContext(ctx, "permit approved",
		"permit_id", p.ID,
		"role", role,
		"user_id", id.UserID,
		"approved_count", result.ApprovedCount)

	s.publish(ctx, events.NewPermitApprovedEvent(p.ID, string(role), id.UserID, today, result.ApprovedCount, now))
	if result.FullyApproved {
		s.publish(ctx, events.NewPermitFullyApprovedEvent(p.ID, p.EntreprenorFirma, today, now))
	}
	return result, nil
}

func (s *Service) alreadyApproved(ctx context.Context, permitID int64, role auth.Role, id auth.Identity) error {
	s.metrics.ApprovalAttempt(string(role), metrics.OutcomeAlreadyApproved)
	s.logger.InfoContext(ctx, "approval skipped: already approved today",
		"permit_id", permitID,
		"role", role,
		"user_id", id.UserID)
	return ErrAlreadyApproved
}

// roleLabel keeps free-form role strings out of metric labels.
func roleLabel(roleName string) string {
	if role, ok := auth.ParseApproverRole(roleName); ok {
		return string(role)
	}
	return "unknown"
}

func outcomeOf(err error) string {
	if errors.Is(err, ErrPermitNotFound) {
		return metrics.OutcomeNotFound
	}
	return metrics.OutcomeError
}
