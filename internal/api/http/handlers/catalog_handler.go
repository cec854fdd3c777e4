package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/service"
)

// CatalogHandler serves the expertise and product catalogues.
type CatalogHandler struct {
	expertises *service.ExpertiseService
	products   *service.ProductService
	paging     Paging
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(expertises *service.ExpertiseService, products *service.ProductService, paging Paging) *CatalogHandler {
	return &CatalogHandler{expertises: expertises, products: products, paging: paging}
}

func expertiseResponse(e *domain.Expertise) dto.ExpertiseResponse {
	return dto.ExpertiseResponse{ID: e.ID, Field: e.Field}
}

func productResponse(p *domain.Product) dto.ProductResponse {
	return dto.ProductResponse{ID: p.ID, Name: p.Name, Brand: p.Brand}
}

// ListExpertises GET /expertises.
func (h *CatalogHandler) ListExpertises(c *fiber.Ctx) error {
	page := h.paging.request(c)
	res, err := h.expertises.List(c.UserContext(), page)
	if err != nil {
		return err
	}
	return ok(c, pageOf(page, res, expertiseResponse))
}

// SearchExpertises GET /expertises/search/:name.
func (h *CatalogHandler) SearchExpertises(c *fiber.Ctx) error {
	page := h.paging.request(c)
	res, err := h.expertises.Search(c.UserContext(), c.Params("name"), page)
	if err != nil {
		return err
	}
	return ok(c, pageOf(page, res, expertiseResponse))
}

// CreateExpertise POST /expertises.
func (h *CatalogHandler) CreateExpertise(c *fiber.Ctx) error {
	var req dto.ExpertiseRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	expertise, err := h.expertises.Create(c.UserContext(), req.Field)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, expertiseResponse(expertise))
}

// DeleteExpertise DELETE /expertises/:field.
func (h *CatalogHandler) DeleteExpertise(c *fiber.Ctx) error {
	if err := h.expertises.Delete(c.UserContext(), c.Params("field")); err != nil {
		return err
	}
	return ok(c, fiber.Map{"deleted": c.Params("field")})
}

// ListProducts GET /products.
func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	page := h.paging.request(c)
	res, err := h.products.List(c.UserContext(), page)
	if err != nil {
		return err
	}
	return ok(c, pageOf(page, res, productResponse))
}

// SearchProducts GET /products/search/:name.
func (h *CatalogHandler) SearchProducts(c *fiber.Ctx) error {
	page := h.paging.request(c)
	res, err := h.products.Search(c.UserContext(), c.Params("name"), page)
	if err != nil {
		return err
	}
	return ok(c, pageOf(page, res, productResponse))
}

// GetProduct GET /products/:id.
func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	product, err := h.products.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, productResponse(product))
}

// SaveProduct PUT /products/:id.
func (h *CatalogHandler) SaveProduct(c *fiber.Ctx) error {
	var req dto.ProductRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	product, err := h.products.Save(c.UserContext(), domain.Product{ID: c.Params("id"), Name: req.Name, Brand: req.Brand})
	if err != nil {
		return err
	}
	return ok(c, productResponse(product))
}
