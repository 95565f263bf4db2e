package user

import (
	"time"

	"github.com/frahmantamala/permit-to-work/internal"
	"github.com/frahmantamala/permit-to-work/internal/auth"
	userDatamodel "github.com/frahmantamala/permit-to-work/internal/core/datamodel/user"
)

// User is an account as shown to its owner and to admins.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         auth.Role `json:"role"`
	Firma        string    `json:"firma,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) IsContractor() bool {
	return u.Role == auth.RoleEntreprenor
}

var (
	ErrNotFound      = internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
	ErrEmailTaken    = internal.NewConflictError("email is already registered", internal.ErrCodeEmailTaken)
	ErrFirmaRequired = internal.NewValidationError("firma is required for entreprenor accounts", internal.ErrCodeFirmaRequired)
)

func ToDataModel(u *User) *userDatamodel.User {
	m := &userDatamodel.User{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	if u.Firma != "" {
		firma := u.Firma
		m.Firma = &firma
	}
	return m
}

func FromDataModel(m *userDatamodel.User) *User {
	u := &User{
		ID:           m.ID,
		Email:        m.Email,
		Name:         m.Name,
		PasswordHash: m.PasswordHash,
		Role:         auth.Role(m.Role),
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if m.Firma != nil {
		u.Firma = *m.Firma
	}
	return u
}
