package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/permit-to-work/internal"
	"github.com/frahmantamala/permit-to-work/internal/clock"
	"github.com/frahmantamala/permit-to-work/internal/core/events"
	"github.com/frahmantamala/permit-to-work/internal/permit"
	"github.com/frahmantamala/permit-to-work/pkg/logger"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event bus commands",
	Long:  `Publish permit events to an in-process bus with the notifier attached, to check notification output.`,
}

var publishEventCmd = &cobra.Command{
	Use:       "publish [event-type]",
	Short:     "Publish a sample permit event",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{events.EventTypePermitFullyApproved, events.EventTypePermitWorkStatusChanged, events.EventTypePermitDailyReset},
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishSampleEvent(cmd.Context(), args[0])
	},
}

var (
	eventPermitID int64
	eventFirma    string
)

func publishSampleEvent(ctx context.Context, eventType string) error {
	lg := logger.LoggerWrapper()
	clk, err := clock.NewFromName(internal.DefaultTimezone)
	if err != nil {
		return err
	}
	now := clk.Now()

	bus := events.NewEventBus(lg)
	permit.NewNotifier(lg).Register(bus)

	var event events.Event
	switch eventType {
	case events.EventTypePermitFullyApproved:
		event = events.NewPermitFullyApprovedEvent(eventPermitID, eventFirma, clk.Today(), now)
	case events.EventTypePermitWorkStatusChanged:
		event = events.NewWorkStatusChangedEvent(eventPermitID, 0, string(permit.DayStatusWorking), now)
	case events.EventTypePermitDailyReset:
		event = events.NewDailyResetEvent(clk.Today(), internal.SourceCLI, 1, 1, 0, now)
	default:
		return fmt.Errorf("unknown event type %q", eventType)
	}

	lg.Info("publishing event", "event_type", event.EventType(), "event_id", event.EventID())
	if err := bus.PublishSync(ctx, event); err != nil {
		return err
	}
	lg.Info("event handled")
	return nil
}

func init() {
	publishEventCmd.Flags().Int64Var(&eventPermitID, "permit-id", 1, "permit id carried by the event")
	publishEventCmd.Flags().StringVar(&eventFirma, "firma", "Acme A/S", "contractor firm carried by the event")

	eventCmd.AddCommand(publishEventCmd)
}
