package user

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/frahmantamala/permit-to-work/internal"
	"github.com/frahmantamala/permit-to-work/internal/auth"
)

type Repository interface {
	GetByID(ctx context.Context, userID int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, u *User) error
}

type Service struct {
	repo       Repository
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo Repository, bcryptCost int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:       repo,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (s *Service) GetByID(ctx context.Context, userID int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		s.logger.ErrorContext(ctx, "failed to get user by id", "user_id", userID, "error", err)
		return nil, internal.NewPersistenceError("please try again later", err)
	}
	return u, nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, internal.NewPersistenceError("please try again later", err)
	}
	return u, nil
}

// Create registers an active account. Firma is dropped for roles other than
// entreprenor.
func (s *Service) Create(ctx context.Context, dto CreateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(dto.Email))
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, internal.NewPersistenceError("please try again later", err)
	}

	hash, err := auth.HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	u := &User{
		Email:        email,
		Name:         dto.Name,
		PasswordHash: hash,
		Role:         auth.Role(dto.Role),
		IsActive:     true,
	}
	if u.IsContractor() {
		u.Firma = strings.TrimSpace(dto.Firma)
	}

	if err := s.repo.Create(ctx, u); err != nil {
		s.logger.ErrorContext(ctx, "failed to create user", "email", email, "error", err)
		return nil, internal.NewPersistenceError("please try again later", err)
	}

	s.logger.InfoContext(ctx, "user created", "user_id", u.ID, "role", u.Role, "firma", u.Firma)
	return u, nil
}
