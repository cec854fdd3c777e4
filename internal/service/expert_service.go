package service

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/pkg/id"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// ExpertService manages experts and the expertises they cover.
type ExpertService struct {
	experts    repository.ExpertRepository
	expertises repository.ExpertiseRepository
	bcryptCost int
}

// ExpertInput describes a new expert.
type ExpertInput struct {
	Email      string
	Name       string
	Surname    string
	Password   string
	Expertises []string
}

// NewExpertService builds the service.
func NewExpertService(experts repository.ExpertRepository, expertises repository.ExpertiseRepository, bcryptCost int) *ExpertService {
	return &ExpertService{experts: experts, expertises: expertises, bcryptCost: bcryptCost}
}

// List returns a page of experts.
func (s *ExpertService) List(ctx context.Context, page PageRequest) (Paged[domain.Expert], error) {
	experts, total, err := s.experts.List(ctx, page.repo())
	if err != nil {
		return Paged[domain.Expert]{}, err
	}
	return Paged[domain.Expert]{Items: experts, Total: total}, nil
}

// Get returns an expert by id.
func (s *ExpertService) Get(ctx context.Context, expertID int64) (*domain.Expert, error) {
	expert, err := s.experts.GetByID(ctx, expertID)
	if err != nil {
		return nil, notFound(err, domain.ErrExpertNotFound)
	}
	return expert, nil
}

// GetByEmail returns an expert by email.
func (s *ExpertService) GetByEmail(ctx context.Context, email string) (*domain.Expert, error) {
	expert, err := s.experts.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, notFound(err, domain.ErrExpertNotFound)
	}
	return expert, nil
}

// Insert creates an expert covering the named expertises. Every field must
// already exist.
func (s *ExpertService) Insert(ctx context.Context, input ExpertInput) (*domain.Expert, error) {
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, apperrors.NewValidationError("email is required", nil)
	}
	if input.Password == "" {
		return nil, apperrors.NewValidationError("password is required", nil)
	}

	expertiseIDs := make([]int64, 0, len(input.Expertises))
	fields := make([]string, 0, len(input.Expertises))
	for _, field := range input.Expertises {
		expertise, err := s.expertises.GetByField(ctx, field)
		if err != nil {
			return nil, notFound(err, domain.ErrExpertiseNotFound.WithMessage("expertise %s not found", field))
		}
		expertiseIDs = append(expertiseIDs, expertise.ID)
		fields = append(fields, expertise.Field)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	expert := &domain.Expert{
		ID:           id.New(),
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		Surname:      strings.TrimSpace(input.Surname),
		PasswordHash: hash,
		Expertises:   fields,
	}
	if err := s.experts.Create(ctx, expert, expertiseIDs); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.ErrDuplicateExpert.WithMessage("expert %s exists", email)
		}
		return nil, err
	}
	return expert, nil
}

// AddExpertise links an existing expertise to the expert.
func (s *ExpertService) AddExpertise(ctx context.Context, expertID int64, field string) (*domain.Expert, error) {
	expert, expertise, err := s.resolvePair(ctx, expertID, field)
	if err != nil {
		return nil, err
	}
	if err := s.experts.AddExpertise(ctx, expert.ID, expertise.ID); err != nil {
		return nil, err
	}
	return s.Get(ctx, expertID)
}

// RemoveExpertise unlinks an expertise from the expert.
func (s *ExpertService) RemoveExpertise(ctx context.Context, expertID int64, field string) (*domain.Expert, error) {
	expert, expertise, err := s.resolvePair(ctx, expertID, field)
	if err != nil {
		return nil, err
	}
	if err := s.experts.RemoveExpertise(ctx, expert.ID, expertise.ID); err != nil {
		return nil, notFound(err, domain.ErrExpertiseNotFound.WithMessage("expert %d does not cover %s", expertID, field))
	}
	return s.Get(ctx, expertID)
}

// ListByExpertise lists experts covering field.
func (s *ExpertService) ListByExpertise(ctx context.Context, field string, page PageRequest) (Paged[domain.Expert], error) {
	if _, err := s.expertises.GetByField(ctx, field); err != nil {
		return Paged[domain.Expert]{}, notFound(err, domain.ErrExpertiseNotFound)
	}
	experts, total, err := s.experts.ListByExpertise(ctx, field, page.repo())
	if err != nil {
		return Paged[domain.Expert]{}, err
	}
	return Paged[domain.Expert]{Items: experts, Total: total}, nil
}

func (s *ExpertService) resolvePair(ctx context.Context, expertID int64, field string) (*domain.Expert, *domain.Expertise, error) {
	expert, err := s.Get(ctx, expertID)
	if err != nil {
		return nil, nil, err
	}
	expertise, err := s.expertises.GetByField(ctx, field)
	if err != nil {
		return nil, nil, notFound(err, domain.ErrExpertiseNotFound)
	}
	return expert, expertise, nil
}
