package permit

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
	CreatePermit(ctx context.Context, id auth.Identity, dto CreatePermitDTO) (*Permit, error)
	ListPermits(ctx context.Context, id auth.Identity) ([]PermitSummary, error)
	GetPermit(ctx context.Context, id auth.Identity, permitID int64) (*PermitDetail, error)
	UpdatePermitStatus(ctx context.Context, id auth.Identity, permitID int64, dto UpdateStatusDTO) (*Permit, error)
	DeletePermit(ctx context.Context, id auth.Identity, permitID int64) error
	Approve(ctx context.Context, permitID int64, roleName string, id auth.Identity) (*ApproveResult, error)
	SetWorkStatus(ctx context.Context, permitID int64, id auth.Identity, status string) (*Permit, error)
	RunDailyReset(ctx context.Context) (ResetReport, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) ListPermits(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	permits, err := h.Service.ListPermits(r.Context(), user.Identity())
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"permits": permits,
		"count":   len(permits),
	})
}

func (h *Handler) CreatePermit(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	var dto CreatePermitDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}

	p, err := h.Service.CreatePermit(r.Context(), user.Identity(), dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) GetPermit(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	permitID, ok := h.permitID(w, r)
	if !ok {
		return
	}

	detail, err := h.Service.GetPermit(r.Context(), user.Identity(), permitID)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, detail)
}

func (h *Handler) UpdatePermitStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	permitID, ok := h.permitID(w, r)
	if !ok {
		return
	}

	var dto UpdateStatusDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}
	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	p, err := h.Service.UpdatePermitStatus(r.Context(), user.Identity(), permitID, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) DeletePermit(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	permitID, ok := h.permitID(w, r)
	if !ok {
		return
	}

	if err := h.Service.DeletePermit(r.Context(), user.Identity(), permitID); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Approve handles POST /permits/{id}/approvals/{role}.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	permitID, ok := h.permitID(w, r)
	if !ok {
		return
	}

	result, err := h.Service.Approve(r.Context(), permitID, chi.URLParam(r, "role"), user.Identity())
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

// SetWorkStatus handles PUT /permits/{id}/work-status.
func (h *Handler) SetWorkStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	permitID, ok := h.permitID(w, r)
	if !ok {
		return
	}

	var dto WorkStatusDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}

	p, err := h.Service.SetWorkStatus(r.Context(), permitID, user.Identity(), dto.Status)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, p)
}

// RunDailyReset handles POST /admin/daily-reset. The route is admin-only.
func (h *Handler) RunDailyReset(w http.ResponseWriter, r *http.Request) {
	ctx := internal.ContextWithRequestSource(r.Context(), internal.SourceAdmin)
	report, err := h.Service.RunDailyReset(ctx)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) user(w http.ResponseWriter, r *http.Request) (*auth.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteAppError(w, internal.NewUnauthorizedError("unauthorized", internal.ErrCodeInvalidToken))
		return nil, false
	}
	return user, true
}

func (h *Handler) permitID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.WriteAppError(w, internal.NewValidationFieldError("id", "invalid permit id", internal.ErrCodeValidationFailed))
		return 0, false
	}
	return id, true
}
