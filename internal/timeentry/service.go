package timeentry

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/permit-to-work/internal"
	"github.com/frahmantamala/permit-to-work/internal/auth"
	"github.com/frahmantamala/permit-to-work/internal/clock"
)

type RepositoryAPI interface {
	Create(ctx context.Context, e *TimeEntry) error
	ListByPermit(ctx context.Context, permitID int64) ([]*TimeEntry, error)
}

// PermitAccess applies the permit viewing rule. *permit.Service satisfies it.
type PermitAccess interface {
	CheckViewable(ctx context.Context, id auth.Identity, permitID int64) error
}

type Service struct {
	repo    RepositoryAPI
	permits PermitAccess
	clock   clock.Clock
	logger  *slog.Logger
}

func NewService(repo RepositoryAPI, permits PermitAccess, clk clock.Clock, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		permits: permits,
		clock:   clk,
		logger:  logger,
	}
}

// LogTime records hours against a permit the caller can see. An empty
// work_date means today in the service timezone.
func (s *Service) LogTime(ctx context.Context, id auth.Identity, permitID int64, dto LogTimeDTO) (*TimeEntry, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.permits.CheckViewable(ctx, id, permitID); err != nil {
		return nil, err
	}

	workDate := dto.WorkDate
	if workDate == "" {
		workDate = s.clock.Today()
	}

	e := &TimeEntry{
		PermitID:    permitID,
		UserID:      id.UserID,
		WorkDate:    workDate,
		Hours:       dto.Hours,
		Description: dto.Description,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		s.logger.ErrorContext(ctx, "failed to log time", "error", err, "permit_id", permitID, "user_id", id.UserID)
		return nil, internal.NewPersistenceError("please try again later", err)
	}

	s.logger.InfoContext(ctx, "time logged",
		"permit_id", permitID,
		"user_id", id.UserID,
		"work_date", workDate,
		"hours", dto.Hours)
	return e, nil
}

func (s *Service) ListTime(ctx context.Context, id auth.Identity, permitID int64) (*TimeSheet, error) {
	if err := s.permits.CheckViewable(ctx, id, permitID); err != nil {
		return nil, err
	}

	entries, err := s.repo.ListByPermit(ctx, permitID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list time entries", "error", err, "permit_id", permitID)
		return nil, internal.NewPersistenceError("please try again later", err)
	}

	sheet := &TimeSheet{PermitID: permitID, Entries: entries}
	for _, e := range entries {
		sheet.TotalHours += e.Hours
	}
	return sheet, nil
}
