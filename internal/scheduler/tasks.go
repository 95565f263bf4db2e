package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/frahmantamala/permit-to-work/internal"
	"github.com/frahmantamala/permit-to-work/internal/permit"
)

const (
	// QueueDefault is the only queue the worker serves.
	QueueDefault = "default"
	// TaskTypeDailyReset runs the authoritative daily work-status reset.
	TaskTypeDailyReset = "permit:daily_reset"
)

// DailyResetPayload records what enqueued the task, for the log line only.
type DailyResetPayload struct {
	Trigger string `json:"trigger"`
}

func NewDailyResetTask(trigger string) (*asynq.Task, error) {
	data, err := json.Marshal(DailyResetPayload{Trigger: trigger})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeDailyReset, data), nil
}

// Resetter is satisfied by *permit.Service.
type Resetter interface {
	RunDailyReset(ctx context.Context) (permit.ResetReport, error)
}

// DailyResetJob handles TaskTypeDailyReset tasks.
type DailyResetJob struct {
	Resetter Resetter
	Logger   *slog.Logger
}

func NewDailyResetJob(resetter Resetter, logger *slog.Logger) *DailyResetJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &DailyResetJob{Resetter: resetter, Logger: logger}
}

// Handle runs the sweep. Failed writes on single permits are not task
// failures; the next run selects them again. Only a failed selection is
// returned so asynq retries.
func (j *DailyResetJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Resetter == nil {
		return errors.New("daily reset: handler not configured")
	}
	var payload DailyResetPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("daily reset: decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	if payload.Trigger == "" {
		payload.Trigger = "cron"
	}

	ctx = internal.ContextWithRequestSource(ctx, internal.SourceScheduler)
	logger := j.Logger.With(slog.String("task", TaskTypeDailyReset), slog.String("trigger", payload.Trigger))

	report, err := j.Resetter.RunDailyReset(ctx)
	if err != nil {
		logger.Error("daily reset failed", slog.Any("error", err))
		return err
	}

	if report.Failed > 0 {
		logger.Warn("daily reset finished with failed writes",
			slog.String("date", report.Date),
			slog.Int("checked", report.Checked),
			slog.Int("reset", report.Reset),
			slog.Int("failed", report.Failed))
		return nil
	}
	logger.Info("daily reset finished",
		slog.String("date", report.Date),
		slog.Int("checked", report.Checked),
		slog.Int("reset", report.Reset))
	return nil
}
