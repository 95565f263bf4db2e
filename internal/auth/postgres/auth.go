package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/permit-to-work/internal/auth"
	userDatamodel "github.com/frahmantamala/permit-to-work/internal/core/datamodel/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

var _ auth.RepositoryAPI = (*Repository)(nil)

// GetCredentialsByEmail returns inactive users too, so the service can tell
// a disabled account from a wrong password.
func (r *Repository) GetCredentialsByEmail(ctx context.Context, email string) (*auth.Credentials, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).
		Select("id", "password_hash", "is_active").
		Where("email = ?", email).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}
	return &auth.Credentials{
		UserID:       row.ID,
		PasswordHash: row.PasswordHash,
		IsActive:     row.IsActive,
	}, nil
}

// GetActiveUser loads the principal with its current role and firm. Unknown
// roles are rejected rather than passed on.
func (r *Repository) GetActiveUser(ctx context.Context, userID int64) (*auth.User, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", userID, true).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}
	return toUser(&row)
}

func toUser(row *userDatamodel.User) (*auth.User, error) {
	role, ok := auth.ParseRole(row.Role)
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	u := &auth.User{
		ID:    row.ID,
		Email: row.Email,
		Name:  row.Name,
		Role:  role,
	}
	if row.Firma != nil {
		u.Firma = *row.Firma
	}
	return u, nil
}
