package internal

import (
	"context"
	"time"
)

type ctxKey string

const ContextRequestSourceKey ctxKey = "request_source"

const (
	SourceHTTP      = "http"
	SourceAdmin     = "admin"
	SourceScheduler = "scheduler"
	SourceCLI       = "cli"
	SourceUnknown   = "unknown"
)

// RequestSourceFromContext reports what triggered the current unit of work
// (http, admin, scheduler, cli). SourceUnknown when unset.
func RequestSourceFromContext(ctx context.Context) string {
	if ctx == nil {
		return SourceUnknown
	}
	if source, ok := ctx.Value(ContextRequestSourceKey).(string); ok && source != "" {
		return source
	}
	return SourceUnknown
}

func ContextWithRequestSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, ContextRequestSourceKey, source)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
