package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/permit-to-work/internal/scheduler"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background workers backed by redis (asynq).`,
}

var resetWorkerCmd = &cobra.Command{
	Use:   "reset",
	Short: "Start the daily reset worker and its cron schedule",
	Long: `Consume daily reset tasks and enqueue one on the configured cron schedule,
evaluated in the service timezone.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startResetWorker()
	},
}

var workerConcurrency int

func startResetWorker() error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app, err := newApplication(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := newRedisClient(cfg.Redis)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		app.Logger.Warn("redis ping failed; asynq will keep retrying", "addr", cfg.Redis.Addr, "error", err)
	}
	cancel()
	_ = rdb.Close()

	var cron []scheduler.CronRegistration
	if cfg.Reset.Cron != "" {
		task, err := scheduler.NewDailyResetTask("cron")
		if err != nil {
			return err
		}
		cron = append(cron, scheduler.CronRegistration{
			Spec:    cfg.Reset.Cron,
			Task:    task,
			Options: []asynq.Option{asynq.Queue(scheduler.QueueDefault), asynq.MaxRetry(3)},
		})
	}

	job := scheduler.NewDailyResetJob(app.Permits, app.Logger)
	worker, err := scheduler.NewWorker(scheduler.WorkerConfig{
		RedisOpts:   redisClientOpt(cfg.Redis),
		Location:    app.Clock.Location(),
		Concurrency: workerConcurrency,
		Logger:      app.Logger,
		Handlers: []scheduler.TaskHandler{
			{Type: scheduler.TaskTypeDailyReset, Handler: job.Handle},
		},
		Cron: cron,
	})
	if err != nil {
		return fmt.Errorf("build worker: %w", err)
	}

	app.Logger.Info("daily reset worker running", "redis", cfg.Redis.Addr, "cron", cfg.Reset.Cron)
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "worker stopped: %v\n", err)
		return err
	}
	app.Logger.Info("daily reset worker stopped")
	return nil
}

func init() {
	resetWorkerCmd.Flags().IntVar(&workerConcurrency, "concurrency", 2, "number of tasks processed in parallel")

	workerCmd.AddCommand(resetWorkerCmd)
}
