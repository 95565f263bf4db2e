package user

import (
	"strings"

	"github.com/frahmantamala/permit-to-work/internal/auth"
	"github.com/frahmantamala/permit-to-work/internal/core/common/validation"
)

// CreateUserDTO is used by the seeder and admin tooling.
type CreateUserDTO struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Name     string `json:"name" validate:"required,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,oneof=admin opgaveansvarlig drift entreprenor"`
	Firma    string `json:"firma" validate:"max=255"`
}

// Validate also enforces that contractors carry a firm, since every tenant
// check keys on it.
func (dto CreateUserDTO) Validate() error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	if auth.Role(dto.Role) == auth.RoleEntreprenor && strings.TrimSpace(dto.Firma) == "" {
		return ErrFirmaRequired
	}
	return nil
}
