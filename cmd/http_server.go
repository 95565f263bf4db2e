package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/permit-to-work/internal/auth"
	"github.com/frahmantamala/permit-to-work/internal/permit"
	"github.com/frahmantamala/permit-to-work/internal/timeentry"
	"github.com/frahmantamala/permit-to-work/internal/transport/rest"
	"github.com/frahmantamala/permit-to-work/internal/transport/swagger"
	"github.com/frahmantamala/permit-to-work/internal/user"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := startHTTPServer(); err != nil {
			fmt.Fprintf(os.Stderr, "server: %v\n", err)
			os.Exit(1)
		}
	},
}

func startHTTPServer() error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app, err := newApplication(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	router, err := buildRouter(app)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	app.Logger.Info("starting HTTP server",
		"address", addr,
		"base_url", cfg.Server.BaseURL,
		"timezone", app.Clock.Location().String(),
		"lazy_reset", cfg.Reset.LazyTrigger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		app.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			app.Logger.Error("server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	app.Logger.Info("server stopped")
	return nil
}

func buildRouter(app *application) (*chi.Mux, error) {
	cfg := app.Config

	specPath := cfg.Server.OpenAPIPath
	if specPath == "" {
		specPath = swagger.DefaultSpecPath
	}
	doc, err := swagger.Load(context.Background(), specPath)
	if err != nil {
		return nil, err
	}

	health := rest.NewHealthHandler(app.DB.DB)
	if cfg.Redis.Addr != "" {
		rdb := newRedisClient(cfg.Redis)
		health.WithCheck("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}

	deps := rest.RouteDeps{
		Health:           health,
		Logger:           app.Logger,
		AuthHandler:      auth.NewHandler(app.Auth),
		UserHandler:      user.NewHandler(app.Users),
		PermitHandler:    permit.NewHandler(app.Permits),
		TimeEntryHandler: timeentry.NewHandler(app.TimeEntries),
		RBAC:             auth.NewRBACAuthorization(app.Logger, app.Metrics),
		Metrics:          app.Metrics,
		MetricsPath:      cfg.Observability.Metrics.Path,
		OpenAPI:          doc,
		AllowedOrigins:   cfg.Server.AllowedOrigins,
	}
	if cfg.Reset.LazyTrigger {
		deps.ResetEnsurer = app.Permits
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, deps)
	return router, nil
}
