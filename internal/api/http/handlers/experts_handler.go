package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// ExpertsHandler serves expert endpoints.
type ExpertsHandler struct {
	experts *service.ExpertService
	paging  Paging
}

// NewExpertsHandler constructs handler.
func NewExpertsHandler(experts *service.ExpertService, paging Paging) *ExpertsHandler {
	return &ExpertsHandler{experts: experts, paging: paging}
}

// List GET /experts.
func (h *ExpertsHandler) List(c *fiber.Ctx) error {
	page := h.paging.request(c)
	res, err := h.experts.List(c.UserContext(), page)
	if err != nil {
		return err
	}
	return ok(c, pageOf(page, res, dto.NewExpertResponse))
}

// Get GET /expert/:id.
func (h *ExpertsHandler) Get(c *fiber.Ctx) error {
	expertID, err := int64Param(c, "id")
	if err != nil {
		return err
	}
	expert, err := h.experts.Get(c.UserContext(), expertID)
	if err != nil {
		return err
	}
	return ok(c, dto.NewExpertResponse(expert))
}

// AddExpertise PUT /experts/:id/expertise.
func (h *ExpertsHandler) AddExpertise(c *fiber.Ctx) error {
	return h.changeExpertise(c, h.experts.AddExpertise)
}

// RemoveExpertise DELETE /experts/:id/expertise.
func (h *ExpertsHandler) RemoveExpertise(c *fiber.Ctx) error {
	return h.changeExpertise(c, h.experts.RemoveExpertise)
}

// ListByExpertise GET /expertises/:field/experts.
func (h *ExpertsHandler) ListByExpertise(c *fiber.Ctx) error {
	page := h.paging.request(c)
	res, err := h.experts.ListByExpertise(c.UserContext(), c.Params("field"), page)
	if err != nil {
		return err
	}
	return ok(c, pageOf(page, res, dto.NewExpertResponse))
}

func (h *ExpertsHandler) changeExpertise(c *fiber.Ctx, change func(ctx context.Context, expertID int64, field string) (*domain.Expert, error)) error {
	expertID, err := int64Param(c, "id")
	if err != nil {
		return err
	}
	var req dto.ExpertiseRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Field == "" {
		return apperrors.NewValidationError("field is required", nil)
	}
	expert, err := change(c.UserContext(), expertID, req.Field)
	if err != nil {
		return err
	}
	return ok(c, dto.NewExpertResponse(expert))
}
