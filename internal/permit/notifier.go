package permit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/permit-to-work/internal/core/events"
)

// Notifier turns workflow events into notifications for site staff. Message
// delivery is left to the log sink; the texts are what an SMS or mail
// gateway would send.
type Notifier struct {
	logger *slog.Logger
}

func NewNotifier(logger *slog.Logger) *Notifier {
	return &Notifier{logger: logger}
}

func (n *Notifier) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventTypePermitFullyApproved, n.HandleFullyApproved)
	bus.Subscribe(events.EventTypePermitWorkStatusChanged, n.HandleWorkStatusChanged)
	bus.Subscribe(events.EventTypePermitDailyReset, n.HandleDailyReset)
}

func (n *Notifier) HandleFullyApproved(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.PermitFullyApprovedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload %T", event)
	}
	n.logger.InfoContext(ctx, "notify contractor",
		"event_id", e.EventID(),
		"permit_id", e.PermitID,
		"firma", e.EntreprenorFirma,
		"message", fmt.Sprintf("Permit %d is approved for %s. Work may start.", e.PermitID, e.ApprovedOn))
	return nil
}

func (n *Notifier) HandleWorkStatusChanged(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.WorkStatusChangedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload %T", event)
	}
	n.logger.InfoContext(ctx, "notify operations",
		"event_id", e.EventID(),
		"permit_id", e.PermitID,
		"status_dag", e.StatusDag,
		"user_id", e.UserID)
	return nil
}

func (n *Notifier) HandleDailyReset(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.DailyResetEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload %T", event)
	}
	if e.Reset == 0 && e.Failed == 0 {
		return nil
	}
	n.logger.InfoContext(ctx, "notify operations",
		"event_id", e.EventID(),
		"date", e.Date,
		"message", fmt.Sprintf("%d permits returned to awaiting approval, %d failed.", e.Reset, e.Failed))
	return nil
}
