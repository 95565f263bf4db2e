package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/permit-to-work/internal"
	"github.com/frahmantamala/permit-to-work/internal/scheduler"
)

var resetEnqueue bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Run the daily work-status reset",
	Long: `Return every active permit that is working or paused without today's three
approvals to awaiting approval, then record today as the last reset day.
With --enqueue the sweep is handed to the worker instead of run here.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		ctx := internal.ContextWithRequestSource(cmd.Context(), internal.SourceCLI)
		if resetEnqueue {
			return enqueueReset(ctx, cfg)
		}
		return runResetNow(ctx, cfg)
	},
}

func runResetNow(ctx context.Context, cfg *internal.Config) error {
	app, err := newApplication(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	report, err := app.Permits.RunDailyReset(ctx)
	if err != nil {
		return fmt.Errorf("daily reset: %w", err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func enqueueReset(ctx context.Context, cfg *internal.Config) error {
	client := scheduler.NewClient(redisClientOpt(cfg.Redis))
	defer client.Close()

	info, err := client.EnqueueDailyReset(ctx, internal.SourceCLI)
	if err != nil {
		return fmt.Errorf("enqueue daily reset: %w", err)
	}
	fmt.Printf("enqueued %s as %s on queue %s\n", info.Type, info.ID, info.Queue)
	return nil
}

func init() {
	resetCmd.Flags().BoolVar(&resetEnqueue, "enqueue", false, "hand the sweep to the worker through redis")
}
