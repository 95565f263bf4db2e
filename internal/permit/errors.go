package permit

import (
	"github.com/frahmantamala/permit-to-work/internal"
)

var (
	ErrPermitNotFound      = internal.NewNotFoundError("permit not found", internal.ErrCodePermitNotFound)
	ErrNotAuthorized       = internal.NewForbiddenError("not authorized", internal.ErrCodeNotAuthorized)
	ErrAlreadyApproved     = internal.NewAlreadyApprovedError("already approved today", internal.ErrCodeAlreadyApproved)
	ErrApprovalsMissing    = internal.NewNotReadyError("all three approvals required first", internal.ErrCodeApprovalsMissing)
	ErrPermitNotActive     = internal.NewNotReadyError("permit is not active", internal.ErrCodePermitNotActive)
	ErrInvalidRole         = internal.NewValidationError("unknown approver role", internal.ErrCodeInvalidRole)
	ErrInvalidWorkStatus   = internal.NewValidationError("work status must be working or paused", internal.ErrCodeInvalidWorkStatus)
	ErrInvalidPermitStatus = internal.NewValidationError("status must be planning, active or completed", internal.ErrCodeInvalidPermitStatus)
)

func persistenceError(cause error) error {
	return internal.NewPersistenceError("please try again later", cause)
}
