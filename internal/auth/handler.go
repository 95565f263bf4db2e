package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/permit-to-work/internal"
	"github.com/frahmantamala/permit-to-work/internal/transport"
	"github.com/frahmantamala/permit-to-work/pkg/logger"
)

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

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}

	tokens, err := h.Service.Authenticate(r.Context(), dto)
	if err != nil {
		h.Logger.Warn("authentication failed", "email", dto.Email, "error", err)
		h.HandleServiceError(w, r, toAppError(err))
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}

	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, r, toAppError(err))
		return
	}

	tokens, err := h.Service.RefreshTokens(r.Context(), dto.RefreshToken)
	if err != nil {
		h.Logger.Warn("token refresh failed", "error", err)
		h.HandleServiceError(w, r, toAppError(err))
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

// AuthMiddleware validates the bearer token and reloads the user so a
// deactivated account or a changed role takes effect on the next request.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.WriteAppError(w, internal.NewUnauthorizedError("missing authorization token", internal.ErrCodeInvalidToken))
			return
		}

		claims, err := h.Service.ValidateAccessToken(token)
		if err != nil {
			h.Logger.Debug("token validation failed", "error", err)
			h.HandleServiceError(w, r, toAppError(err))
			return
		}

		user, err := h.Service.GetUser(r.Context(), claims.UserID)
		if errors.Is(err, ErrUserNotFound) {
			h.Logger.Warn("auth middleware: user not found or inactive", "user_id", claims.UserID)
			h.WriteAppError(w, internal.NewUnauthorizedError("user not found", internal.ErrCodeInvalidToken))
			return
		}
		if err != nil {
			h.HandleServiceError(w, r, toAppError(err))
			return
		}

		ctx := ContextWithUser(r.Context(), user)
		ctx = logger.With(ctx, "user_id", user.ID, "role", user.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func toAppError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return internal.ErrInvalidCredentials
	case errors.Is(err, ErrUserInactive):
		return internal.NewUnauthorizedError("User account is inactive", internal.ErrCodeUserInactive)
	case errors.Is(err, ErrTokenExpired):
		return internal.ErrTokenExpired
	case errors.Is(err, ErrInvalidToken):
		return internal.ErrInvalidToken
	}
	return err
}
