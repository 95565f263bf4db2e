package permit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/frahmantamala/permit-to-work/internal/auth"
	"github.com/frahmantamala/permit-to-work/internal/clock"
	"github.com/frahmantamala/permit-to-work/internal/core/events"
)

// ApprovalRequest is one role's sign-off for one day.
type ApprovalRequest struct {
	PermitID int64
	Role     auth.Role
	UserID   int64
	Day      string
	At       time.Time
}

// ApprovalRecord reports what RecordApproval did. Recorded is false when the
// slot already held Day, in which case nothing was written.
type ApprovalRecord struct {
	Recorded      bool
	ApprovedCount int
}

// DayStatusChange is applied only while the permit is active and fully
// approved for Day.
type DayStatusChange struct {
	PermitID  int64
	Day       string
	StatusDag DayStatus
	Ikon      Icon
	Sluttid   *time.Time
}

// RepositoryAPI is the permit store. Lookups of a missing permit return
// ErrPermitNotFound; every other error is treated as a persistence failure.
type RepositoryAPI interface {
	Create(ctx context.Context, p *Permit) error
	GetByID(ctx context.Context, id int64) (*Permit, error)
	ListAll(ctx context.Context) ([]*Permit, error)
	ListByFirm(ctx context.Context, firm string) ([]*Permit, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	DeleteCascade(ctx context.Context, id int64) error

	// RecordApproval sets the role's slot to Day and appends history in one
	// transaction, guarded so a slot already dated Day is left untouched.
	RecordApproval(ctx context.Context, req ApprovalRequest) (ApprovalRecord, error)
	// ListStaleWorking returns ids of active permits that are working or
	// paused without a full approval set for day.
	ListStaleWorking(ctx context.Context, day string) ([]int64, error)
	// ResetDayStatus re-checks the stale predicate in the UPDATE and reports
	// whether the row changed.
	ResetDayStatus(ctx context.Context, id int64, day string) (bool, error)
	SetDayStatus(ctx context.Context, change DayStatusChange) (bool, error)
}

// MarkerRepositoryAPI persists the last day a named job completed.
type MarkerRepositoryAPI interface {
	GetMarker(ctx context.Context, name string) (string, error)
	SaveMarker(ctx context.Context, name, day string) error
}

// MetricsRecorder is satisfied by *metrics.Metrics.
type MetricsRecorder interface {
	ApprovalAttempt(role, outcome string)
	AuthorizationDenied(action, reason string)
	WorkStatusChanged(statusDag string)
	ResetCompleted(source string, reset, failed int, took time.Duration)
	ResetFailed(source string)
}

type nopMetrics struct{}

func (nopMetrics) ApprovalAttempt(string, string)                 {}
func (nopMetrics) AuthorizationDenied(string, string)             {}
func (nopMetrics) WorkStatusChanged(string)                       {}
func (nopMetrics) ResetCompleted(string, int, int, time.Duration) {}
func (nopMetrics) ResetFailed(string)                             {}

type Service struct {
	repo      RepositoryAPI
	markers   MarkerRepositoryAPI
	clock     clock.Clock
	publisher events.Publisher
	metrics   MetricsRecorder
	logger    *slog.Logger

	resetMu sync.Mutex
}

type ServiceDeps struct {
	Repo      RepositoryAPI
	Markers   MarkerRepositoryAPI
	Clock     clock.Clock
	Publisher events.Publisher
	Metrics   MetricsRecorder
	Logger    *slog.Logger
}

func NewService(deps ServiceDeps) *Service {
	s := &Service{
		repo:      deps.Repo,
		markers:   deps.Markers,
		clock:     deps.Clock,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
	}
	if s.clock == nil {
		s.clock = clock.New(time.UTC)
	}
	if s.publisher == nil {
		s.publisher = events.NopPublisher{}
	}
	if s.metrics == nil {
		s.metrics = nopMetrics{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func (s *Service) Clock() clock.Clock {
	return s.clock
}

// instant reads the clock once. The day is derived from the same reading so
// a slot date and its history timestamp always name the same day.
func (s *Service) instant() (time.Time, string) {
	now := s.clock.Now()
	return now, clock.DateOf(now, s.clock.Location())
}

// CreatePermit is restricted to editors. New permits always start awaiting
// the day's approvals.
func (s *Service) CreatePermit(ctx context.Context, id auth.Identity, dto CreatePermitDTO) (*Permit, error) {
	if d := auth.CanEdit(id); !d.Allowed {
		return nil, s.deny(ctx, "create_permit", id, nil, "", d)
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	p := NewPermit(id.UserID, dto)
	if err := s.repo.Create(ctx, p); err != nil {
		s.logger.ErrorContext(ctx, "failed to create permit", "error", err, "user_id", id.UserID)
		return nil, persistenceError(err)
	}

	s.logger.InfoContext(ctx, "permit created",
		"permit_id", p.ID,
		"user_id", id.UserID,
		"entreprenor_firma", p.EntreprenorFirma,
		"status", p.Status)
	return p, nil
}

// ListPermits scopes contractors to their own firm.
func (s *Service) ListPermits(ctx context.Context, id auth.Identity) ([]PermitSummary, error) {
	var (
		permits []*Permit
		err     error
	)
	switch id.Role {
	case auth.RoleEntreprenor:
		if id.Firma == "" {
			return nil, s.deny(ctx, "list_permits", id, nil, "", auth.Decision{Reason: auth.ReasonMissingFirm})
		}
		permits, err = s.repo.ListByFirm(ctx, id.Firma)
	case auth.RoleAdmin, auth.RoleOpgaveansvarlig, auth.RoleDrift:
		permits, err = s.repo.ListAll(ctx)
	default:
		return nil, s.deny(ctx, "list_permits", id, nil, "", auth.Decision{Reason: auth.ReasonUnknownRole})
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list permits", "error", err, "user_id", id.UserID)
		return nil, persistenceError(err)
	}

	today := s.clock.Today()
	out := make([]PermitSummary, 0, len(permits))
	for _, p := range permits {
		n := p.ApprovedCountOn(today)
		out = append(out, PermitSummary{Permit: p, ApprovedCount: n, FullyApproved: n == len(auth.ApproverRoles)})
	}
	return out, nil
}

// GetPermit hides foreign-firm permits behind NotFound so ids cannot be
// probed.
func (s *Service) GetPermit(ctx context.Context, id auth.Identity, permitID int64) (*PermitDetail, error) {
	p, err := s.loadVisible(ctx, id, permitID)
	if err != nil {
		return nil, err
	}
	return &PermitDetail{
		Permit:       p,
		ApprovalView: NewApprovalView(p, s.clock.Today(), s.clock.Location(), id),
	}, nil
}

// CheckViewable lets collaborators such as time tracking reuse the tenant
// rule without loading the approval view.
func (s *Service) CheckViewable(ctx context.Context, id auth.Identity, permitID int64) error {
	_, err := s.loadVisible(ctx, id, permitID)
	return err
}

func (s *Service) loadVisible(ctx context.Context, id auth.Identity, permitID int64) (*Permit, error) {
	p, err := s.load(ctx, permitID)
	if err != nil {
		return nil, err
	}
	if d := auth.CanView(id, p.EntreprenorFirma); !d.Allowed {
		s.logDenial(ctx, "view_permit", id, p, "", d)
		return nil, ErrPermitNotFound
	}
	return p, nil
}

// UpdatePermitStatus changes the lifecycle status. Any change resets the day
// status so an activated permit starts awaiting approval and a completed one
// is left frozen outside the working states.
func (s *Service) UpdatePermitStatus(ctx context.Context, id auth.Identity, permitID int64, dto UpdateStatusDTO) (*Permit, error) {
	if d := auth.CanEdit(id); !d.Allowed {
		return nil, s.deny(ctx, "update_permit_status", id, nil, "", d)
	}
	status, ok := ParseStatus(dto.Status)
	if !ok {
		return nil, ErrInvalidPermitStatus
	}

	p, err := s.load(ctx, permitID)
	if err != nil {
		return nil, err
	}
	if p.Status == status {
		return p, nil
	}

	fields := map[string]interface{}{
		"status":     string(status),
		"status_dag": string(DayStatusAwaitingApproval),
		"ikon":       string(IconDefault),
	}
	switch {
	case status == StatusActive:
		fields["sluttid"] = nil
	case p.StatusDag == DayStatusWorking:
		fields["sluttid"] = s.clock.Now()
	}

	if err := s.repo.UpdateFields(ctx, permitID, fields); err != nil {
		if errors.Is(err, ErrPermitNotFound) {
			return nil, ErrPermitNotFound
		}
		s.logger.ErrorContext(ctx, "failed to update permit status", "error", err, "permit_id", permitID)
		return nil, persistenceError(err)
	}

	s.logger.InfoContext(ctx, "permit status changed",
		"permit_id", permitID,
		"user_id", id.UserID,
		"from", p.Status,
		"to", status)
	return s.load(ctx, permitID)
}

// DeletePermit is admin-only and removes time entries, approvals and
// history with the permit.
func (s *Service) DeletePermit(ctx context.Context, id auth.Identity, permitID int64) error {
	if d := auth.CanAdminister(id); !d.Allowed {
		return s.deny(ctx, "delete_permit", id, nil, "", d)
	}
	if err := s.repo.DeleteCascade(ctx, permitID); err != nil {
		if errors.Is(err, ErrPermitNotFound) {
			return ErrPermitNotFound
		}
		s.logger.ErrorContext(ctx, "failed to delete permit", "error", err, "permit_id", permitID)
		return persistenceError(err)
	}
	s.logger.InfoContext(ctx, "permit deleted", "permit_id", permitID, "user_id", id.UserID)
	return nil
}

func (s *Service) load(ctx context.Context, permitID int64) (*Permit, error) {
	p, err := s.repo.GetByID(ctx, permitID)
	if err != nil {
		if errors.Is(err, ErrPermitNotFound) {
			return nil, ErrPermitNotFound
		}
		s.logger.ErrorContext(ctx, "failed to load permit", "error", err, "permit_id", permitID)
		return nil, persistenceError(err)
	}
	return p, nil
}

// deny logs the refusal with everything needed to reconstruct it and returns
// the generic Forbidden error. The reason travels as the cause for the
// boundary log only.
func (s *Service) deny(ctx context.Context, action string, id auth.Identity, p *Permit, required auth.Role, d auth.Decision) error {
	s.logDenial(ctx, action, id, p, required, d)
	return ErrNotAuthorized.WithCause(errors.New(d.Reason))
}

func (s *Service) logDenial(ctx context.Context, action string, id auth.Identity, p *Permit, required auth.Role, d auth.Decision) {
	s.metrics.AuthorizationDenied(action, d.Reason)

	attrs := []any{
		"action", action,
		"user_id", id.UserID,
		"role", id.Role,
		"firma", id.Firma,
		"reason", d.Reason,
	}
	if required != "" {
		attrs = append(attrs, "required_role", required)
	}
	if p != nil {
		attrs = append(attrs, "permit_id", p.ID, "permit_firma", p.EntreprenorFirma)
	}
	s.logger.WarnContext(ctx, "authorization denied", attrs...)
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event", "event_type", event.EventType(), "error", err)
	}
}
