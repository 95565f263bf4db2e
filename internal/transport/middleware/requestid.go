package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/frahmantamala/permit-to-work/pkg/logger"
)

const TraceHeader = "X-Trace-ID"

// RequestID takes the caller's trace id or mints one, echoes it back and
// attaches it to the request logger.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(TraceHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		ctx := logger.With(r.Context(), "trace_id", traceID)
		w.Header().Set(TraceHeader, traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
