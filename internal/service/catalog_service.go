package service

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/pkg/id"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// ExpertiseService manages the expertise catalogue.
type ExpertiseService struct {
	expertises repository.ExpertiseRepository
}

// NewExpertiseService builds the service.
func NewExpertiseService(expertises repository.ExpertiseRepository) *ExpertiseService {
	return &ExpertiseService{expertises: expertises}
}

func (s *ExpertiseService) List(ctx context.Context, page PageRequest) (Paged[domain.Expertise], error) {
	items, total, err := s.expertises.List(ctx, page.repo())
	if err != nil {
		return Paged[domain.Expertise]{}, err
	}
	return Paged[domain.Expertise]{Items: items, Total: total}, nil
}

func (s *ExpertiseService) Get(ctx context.Context, field string) (*domain.Expertise, error) {
	expertise, err := s.expertises.GetByField(ctx, field)
	if err != nil {
		return nil, notFound(err, domain.ErrExpertiseNotFound)
	}
	return expertise, nil
}

// Search matches expertise fields containing name, case-insensitively.
func (s *ExpertiseService) Search(ctx context.Context, name string, page PageRequest) (Paged[domain.Expertise], error) {
	items, total, err := s.expertises.Search(ctx, name, page.repo())
	if err != nil {
		return Paged[domain.Expertise]{}, err
	}
	return Paged[domain.Expertise]{Items: items, Total: total}, nil
}

// Create adds a field. Fields are stored upper-case.
func (s *ExpertiseService) Create(ctx context.Context, field string) (*domain.Expertise, error) {
	field = strings.ToUpper(strings.TrimSpace(field))
	if field == "" {
		return nil, apperrors.NewValidationError("field is required", nil)
	}
	expertise := &domain.Expertise{ID: id.New(), Field: field}
	if err := s.expertises.Create(ctx, expertise); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.ErrDuplicateExpertise.WithMessage("expertise %s exists", field)
		}
		return nil, err
	}
	return expertise, nil
}

func (s *ExpertiseService) Delete(ctx context.Context, field string) error {
	return notFound(s.expertises.Delete(ctx, field), domain.ErrExpertiseNotFound)
}

// ProductService exposes the product catalogue.
type ProductService struct {
	products repository.ProductRepository
}

// NewProductService builds the service.
func NewProductService(products repository.ProductRepository) *ProductService {
	return &ProductService{products: products}
}

func (s *ProductService) List(ctx context.Context, page PageRequest) (Paged[domain.Product], error) {
	items, total, err := s.products.List(ctx, page.repo())
	if err != nil {
		return Paged[domain.Product]{}, err
	}
	return Paged[domain.Product]{Items: items, Total: total}, nil
}

func (s *ProductService) Get(ctx context.Context, productID string) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, notFound(err, domain.ErrProductNotFound)
	}
	return product, nil
}

func (s *ProductService) Search(ctx context.Context, name string, page PageRequest) (Paged[domain.Product], error) {
	items, total, err := s.products.Search(ctx, name, page.repo())
	if err != nil {
		return Paged[domain.Product]{}, err
	}
	return Paged[domain.Product]{Items: items, Total: total}, nil
}

// Save creates or replaces the product stored under its EAN.
func (s *ProductService) Save(ctx context.Context, product domain.Product) (*domain.Product, error) {
	product.ID = strings.TrimSpace(product.ID)
	product.Name = strings.TrimSpace(product.Name)
	if product.ID == "" || product.Name == "" {
		return nil, apperrors.NewValidationError("product id and name are required", nil)
	}
	if err := s.products.Upsert(ctx, &product); err != nil {
		return nil, err
	}
	return &product, nil
}
