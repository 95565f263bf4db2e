package timeentry

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/permit-to-work/internal"
	"github.com/frahmantamala/permit-to-work/internal/auth"
	"github.com/frahmantamala/permit-to-work/internal/transport"
	"github.com/frahmantamala/permit-to-work/pkg/logger"
)

type ServiceAPI interface {
	LogTime(ctx context.Context, id auth.Identity, permitID int64, dto LogTimeDTO) (*TimeEntry, error)
	ListTime(ctx context.Context, id auth.Identity, permitID int64) (*TimeSheet, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// ListTime handles GET /permits/{id}/time-entries
func (h *Handler) ListTime(w http.ResponseWriter, r *http.Request) {
	user, permitID, ok := h.request(w, r)
	if !ok {
		return
	}

	sheet, err := h.Service.ListTime(r.Context(), user.Identity(), permitID)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, sheet)
}

// LogTime handles POST /permits/{id}/time-entries
func (h *Handler) LogTime(w http.ResponseWriter, r *http.Request) {
	user, permitID, ok := h.request(w, r)
	if !ok {
		return
	}

	var dto LogTimeDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}

	entry, err := h.Service.LogTime(r.Context(), user.Identity(), permitID, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, entry)
}

func (h *Handler) request(w http.ResponseWriter, r *http.Request) (*auth.User, int64, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteAppError(w, internal.NewUnauthorizedError("unauthorized", internal.ErrCodeInvalidToken))
		return nil, 0, false
	}
	permitID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || permitID <= 0 {
		h.WriteAppError(w, internal.NewValidationFieldError("id", "invalid permit id", internal.ErrCodeValidationFailed))
		return nil, 0, false
	}
	return user, permitID, true
}
