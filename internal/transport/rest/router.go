package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/permit-to-work/internal"
	"github.com/frahmantamala/permit-to-work/internal/auth"
	"github.com/frahmantamala/permit-to-work/internal/core/metrics"
	"github.com/frahmantamala/permit-to-work/internal/permit"
	"github.com/frahmantamala/permit-to-work/internal/timeentry"
	"github.com/frahmantamala/permit-to-work/internal/transport"
	"github.com/frahmantamala/permit-to-work/internal/transport/middleware"
	"github.com/frahmantamala/permit-to-work/internal/transport/swagger"
	"github.com/frahmantamala/permit-to-work/internal/user"
)

// APIPrefix matches the server URL in api/openapi.yml.
const APIPrefix = "/api/v1"

type RouteDeps struct {
	Health *HealthHandler
	Logger *slog.Logger

	AuthHandler      *auth.Handler
	UserHandler      *user.Handler
	PermitHandler    *permit.Handler
	TimeEntryHandler *timeentry.Handler
	RBAC             *auth.RBACAuthorization

	// ResetEnsurer enables the lazy first-request daily reset. Nil disables it.
	ResetEnsurer middleware.ResetEnsurer
	// Metrics exposes /metrics and instruments routes. Nil disables both.
	Metrics     *metrics.Metrics
	MetricsPath string
	// OpenAPI is served at /openapi.yml with the Swagger UI next to it.
	OpenAPI        *swagger.Document
	AllowedOrigins string
}

func RegisterAllRoutes(router chi.Router, deps RouteDeps) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rbac := deps.RBAC
	if rbac == nil {
		rbac = auth.NewRBACAuthorization(logger, deps.Metrics)
	}

	router.Use(middleware.CORS(deps.AllowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	if deps.Metrics != nil {
		metricsPath := deps.MetricsPath
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		router.Use(deps.Metrics.Middleware)
		router.Handle(metricsPath, deps.Metrics.Handler())
	}

	if deps.OpenAPI != nil {
		router.Handle("/openapi.yml", deps.OpenAPI)
		router.Handle("/swagger/*", swagger.Handler("/openapi.yml"))
	}

	router.Route(APIPrefix, func(r chi.Router) {
		if deps.Health != nil {
			r.Get("/health", deps.Health.healthCheckHandler)
			r.Get("/ping", deps.Health.pingHandler)
		}

		if deps.AuthHandler == nil {
			return
		}

		r.Post("/auth/login", deps.AuthHandler.Login)
		r.Post("/auth/refresh", deps.AuthHandler.RefreshToken)

		r.Group(func(pr chi.Router) {
			pr.Use(deps.AuthHandler.AuthMiddleware)
			pr.Use(middleware.DailyReset(deps.ResetEnsurer, logger))

			if deps.UserHandler != nil {
				pr.Get("/users/me", deps.UserHandler.GetCurrentUser)
			}

			if ph := deps.PermitHandler; ph != nil {
				pr.Get("/permits", ph.ListPermits)
				pr.Get("/permits/{id}", ph.GetPermit)
				pr.Post("/permits/{id}/approvals/{role}", ph.Approve)
				pr.Put("/permits/{id}/work-status", ph.SetWorkStatus)

				pr.Group(func(er chi.Router) {
					er.Use(rbac.RequireEditor())
					er.Post("/permits", ph.CreatePermit)
					er.Patch("/permits/{id}/status", ph.UpdatePermitStatus)
				})

				pr.Group(func(ar chi.Router) {
					ar.Use(rbac.RequireAdmin())
					ar.Delete("/permits/{id}", ph.DeletePermit)
					ar.Post("/admin/daily-reset", ph.RunDailyReset)
				})
			}

			if th := deps.TimeEntryHandler; th != nil {
				pr.Get("/permits/{id}/time-entries", th.ListTime)
				pr.Post("/permits/{id}/time-entries", th.LogTime)
			}
		})
	})

	base := transport.NewBaseHandler(logger)
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		base.WriteAppError(w, internal.NewNotFoundError("Not found", internal.ErrCodeRouteNotFound))
	})
}
