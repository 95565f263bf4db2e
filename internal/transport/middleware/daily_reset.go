package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/permit-to-work/internal"
)

// ResetEnsurer is satisfied by *permit.Service.
type ResetEnsurer interface {
	EnsureDailyReset(ctx context.Context) (bool, error)
}

// DailyReset runs the stale-work sweep at most once per local day, before the
// first request that reaches it. A failed sweep is logged and the request
// continues; the sweep is retried on a later request.
func DailyReset(ensurer ResetEnsurer, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ensurer != nil {
				ctx := internal.ContextWithRequestSource(r.Context(), internal.SourceHTTP)
				ran, err := ensurer.EnsureDailyReset(ctx)
				if err != nil {
					logger.WarnContext(r.Context(), "lazy daily reset failed", "error", err, "path", r.URL.Path)
				} else if ran {
					logger.InfoContext(r.Context(), "lazy daily reset ran", "path", r.URL.Path)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
