package permit

import (
	"context"
	"time"

	"github.com/frahmantamala/permit-to-work/internal"
	"github.com/frahmantamala/permit-to-work/internal/core/events"
)

// MarkerDailyReset names the persisted last-run marker of the sweep.
const MarkerDailyReset = "daily_reset"

// ResetStaleWork sends every active permit that is working or paused without
// all three approvals dated today back to awaiting approval. It is
// idempotent. A failed write is logged and counted, never retried here; the
// next trigger selects the permit again.
func (s *Service) ResetStaleWork(ctx context.Context, today string) (ResetReport, error) {
	source := internal.RequestSourceFromContext(ctx)
	start := time.Now()
	report := ResetReport{Date: today}

	ids, err := s.repo.ListStaleWorking(ctx, today)
	if err != nil {
		s.metrics.ResetFailed(source)
		s.logger.ErrorContext(ctx, "daily reset: failed to select stale permits", "error", err, "date", today)
		return report, persistenceError(err)
	}
	report.Checked = len(ids)

	for _, id := range ids {
		changed, err := s.repo.ResetDayStatus(ctx, id, today)
		if err != nil {
			report.Failed++
			s.logger.ErrorContext(ctx, "daily reset: failed to reset permit", "error", err, "permit_id", id, "date", today)
			continue
		}
		if changed {
			report.Reset++
		}
	}

	s.metrics.ResetCompleted(source, report.Reset, report.Failed, time.Since(start))
	s.logger.InfoContext(ctx, "daily reset completed",
		"date", today,
		"source", source,
		"checked", report.Checked,
		"reset", report.Reset,
		"failed", report.Failed)
	s.publish(ctx, events.NewDailyResetEvent(today, source, report.Checked, report.Reset, report.Failed, s.clock.Now()))
	return report, nil
}

// RunDailyReset is the authoritative sweep behind the scheduler, the CLI and
// the admin endpoint. It always runs and then records the marker, so the
// lazy trigger stays quiet for the rest of the day.
func (s *Service) RunDailyReset(ctx context.Context) (ResetReport, error) {
	today := s.clock.Today()
	report, err := s.ResetStaleWork(ctx, today)
	if err != nil {
		return report, err
	}
	s.saveMarker(ctx, today)
	return report, nil
}

// EnsureDailyReset is the best-effort lazy trigger. It runs the sweep only
// when the marker is not today, and records the marker only after a sweep
// with no failed writes. Concurrent callers in this process skip while one
// sweep is in flight.
func (s *Service) EnsureDailyReset(ctx context.Context) (bool, error) {
	if s.markers == nil {
		return false, nil
	}
	today := s.clock.Today()

	last, err := s.markers.GetMarker(ctx, MarkerDailyReset)
	if err != nil {
		return false, persistenceError(err)
	}
	if last == today {
		return false, nil
	}

	if !s.resetMu.TryLock() {
		return false, nil
	}
	defer s.resetMu.Unlock()

	report, err := s.ResetStaleWork(ctx, today)
	if err != nil {
		return true, err
	}
	if report.Failed == 0 {
		s.saveMarker(ctx, today)
	}
	return true, nil
}

func (s *Service) saveMarker(ctx context.Context, day string) {
	if s.markers == nil {
		return
	}
	if err := s.markers.SaveMarker(ctx, MarkerDailyReset, day); err != nil {
		s.logger.ErrorContext(ctx, "daily reset: failed to record marker", "error", err, "date", day)
	}
}

// LastResetDay returns the persisted marker, empty when the sweep never ran.
func (s *Service) LastResetDay(ctx context.Context) (string, error) {
	if s.markers == nil {
		return "", nil
	}
	day, err := s.markers.GetMarker(ctx, MarkerDailyReset)
	if err != nil {
		return "", persistenceError(err)
	}
	return day, nil
}
