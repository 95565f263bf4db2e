package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/permit-to-work/internal"
	"github.com/frahmantamala/permit-to-work/pkg/logger"
)

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes an error response
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	if status >= http.StatusInternalServerError {
		h.Logger.Error("http error", "status", status, "message", message)
	} else {
		h.Logger.Debug("http error", "status", status, "message", message)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errorResp := map[string]interface{}{
		"code":    status,
		"message": message,
	}

	if err := json.NewEncoder(w).Encode(errorResp); err != nil {
		h.Logger.Error("failed to encode error response", "error", err)
	}
}

// WriteAppError renders an AppError in the {"error": {...}} envelope.
func (h *BaseHandler) WriteAppError(w http.ResponseWriter, appErr *internal.AppError) {
	status, body := appErr.ToHTTPResponse()
	h.WriteJSON(w, status, body)
}

// HandleServiceError maps a service error onto an HTTP response. Forbidden
// responses carry a generic message; the full detail only goes to the log.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	lg := h.Logger
	if _, scoped := logger.FromContext(r.Context()); scoped {
		lg = logger.From(r.Context())
	}

	appErr, ok := internal.IsAppError(err)
	if !ok {
		lg.ErrorContext(r.Context(), "unhandled service error", "error", err, "path", r.URL.Path)
		h.WriteAppError(w, internal.NewInternalError("Internal server error", nil))
		return
	}

	switch appErr.Type {
	case internal.ErrorTypeForbidden:
		lg.WarnContext(r.Context(), "request denied",
			"path", r.URL.Path,
			"code", appErr.Code,
			"reason", appErr.Error(),
			"details", appErr.Details)
		h.WriteAppError(w, internal.NewForbiddenError("Not authorized", appErr.Code))
		return
	case internal.ErrorTypePersistence, internal.ErrorTypeInternal:
		lg.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		h.WriteAppError(w, appErr.WithCause(nil))
		return
	}

	lg.DebugContext(r.Context(), "request rejected", "path", r.URL.Path, "type", appErr.Type, "code", appErr.Code)
	h.WriteAppError(w, appErr)
}

// DecodeJSON decodes the request body into dst, rejecting unknown fields.
func (h *BaseHandler) DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// ExtractTokenFromHeader extracts Bearer token from Authorization header
func (h *BaseHandler) ExtractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ""
	}

	return authHeader[7:]
}
