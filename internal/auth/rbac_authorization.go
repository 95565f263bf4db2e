package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/permit-to-work/internal"
	"github.com/frahmantamala/permit-to-work/internal/transport"
)

// DenialRecorder receives a label for each refused request. The metrics
// package satisfies it.
type DenialRecorder interface {
	AuthorizationDenied(action, reason string)
}

type RBACAuthorization struct {
	*transport.BaseHandler
	denials DenialRecorder
}

func NewRBACAuthorization(logger *slog.Logger, denials DenialRecorder) *RBACAuthorization {
	return &RBACAuthorization{
		BaseHandler: transport.NewBaseHandler(logger),
		denials:     denials,
	}
}

func (ra *RBACAuthorization) check(action string, decide func(Identity) Decision) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok || user == nil {
				ra.Logger.Warn("authorization check failed: user not found in context")
				ra.WriteAppError(w, internal.NewUnauthorizedError("Unauthorized", internal.ErrCodeInvalidToken))
				return
			}

			d := decide(user.Identity())
			if !d.Allowed {
				if ra.denials != nil {
					ra.denials.AuthorizationDenied(action, d.Reason)
				}
				ra.HandleServiceError(w, r, internal.NewForbiddenError(d.Reason, internal.ErrCodeNotAuthorized).
					WithDetails(map[string]interface{}{"user_id": user.ID, "role": user.Role, "action": action}))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireEditor admits admin, opgaveansvarlig and drift.
func (ra *RBACAuthorization) RequireEditor() func(http.Handler) http.Handler {
	return ra.check("edit", CanEdit)
}

func (ra *RBACAuthorization) RequireAdmin() func(http.Handler) http.Handler {
	return ra.check("administer", CanAdminister)
}
