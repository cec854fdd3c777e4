package service

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// ProfileService manages customer and manager profiles.
type ProfileService struct {
	profiles   repository.ProfileRepository
	bcryptCost int
}

// ProfileInput carries profile fields. Password is hashed before storage
// and left unchanged on edit when empty.
type ProfileInput struct {
	Email    string
	Name     string
	Surname  string
	Password string
	Role     domain.Role
}

// NewProfileService builds the service.
func NewProfileService(profiles repository.ProfileRepository, bcryptCost int) *ProfileService {
	return &ProfileService{profiles: profiles, bcryptCost: bcryptCost}
}

// List returns a page of profiles.
func (s *ProfileService) List(ctx context.Context, page PageRequest) (Paged[domain.Profile], error) {
	profiles, total, err := s.profiles.List(ctx, page.repo())
	if err != nil {
		return Paged[domain.Profile]{}, err
	}
	return Paged[domain.Profile]{Items: profiles, Total: total}, nil
}

// Get returns the profile stored under email.
func (s *ProfileService) Get(ctx context.Context, email string) (*domain.Profile, error) {
	profile, err := s.profiles.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, notFound(err, domain.ErrProfileNotFound)
	}
	return profile, nil
}

// Insert stores a new profile. Role defaults to customer.
func (s *ProfileService) Insert(ctx context.Context, input ProfileInput) (*domain.Profile, error) {
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, apperrors.NewValidationError("email is required", nil)
	}
	exists, err := s.profiles.Exists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateProfile.WithMessage("profile %s exists", email)
	}

	role := input.Role
	if role == "" {
		role = domain.RoleCustomer
	}
	if role != domain.RoleCustomer && role != domain.RoleManager {
		return nil, apperrors.NewValidationError("invalid profile role", map[string]any{"role": role})
	}

	profile := &domain.Profile{
		Email:   email,
		Name:    strings.TrimSpace(input.Name),
		Surname: strings.TrimSpace(input.Surname),
		Role:    role,
	}
	if input.Password != "" {
		hash, err := auth.HashPassword(input.Password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		profile.PasswordHash = hash
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.ErrDuplicateProfile.WithMessage("profile %s exists", email)
		}
		return nil, err
	}
	return profile, nil
}

// Edit updates name, surname and optionally the password of the profile at
// email. The email itself can't change.
func (s *ProfileService) Edit(ctx context.Context, email string, input ProfileInput) (*domain.Profile, error) {
	email = normalizeEmail(email)
	if input.Email != "" && normalizeEmail(input.Email) != email {
		return nil, domain.ErrProfileEmailChangeNotAllowed
	}
	profile, err := s.Get(ctx, email)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		profile.Name = name
	}
	if surname := strings.TrimSpace(input.Surname); surname != "" {
		profile.Surname = surname
	}
	if input.Password != "" {
		hash, err := auth.HashPassword(input.Password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		profile.PasswordHash = hash
	}
	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, notFound(err, domain.ErrProfileNotFound)
	}
	return profile, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
