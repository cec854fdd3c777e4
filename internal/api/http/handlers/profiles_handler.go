package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// ProfilesHandler serves profile endpoints.
type ProfilesHandler struct {
	profiles *service.ProfileService
	tickets  *service.TicketService
	paging   Paging
}

// NewProfilesHandler constructs handler.
func NewProfilesHandler(profiles *service.ProfileService, tickets *service.TicketService, paging Paging) *ProfilesHandler {
	return &ProfilesHandler{profiles: profiles, tickets: tickets, paging: paging}
}

// List GET /profiles.
func (h *ProfilesHandler) List(c *fiber.Ctx) error {
	page := h.paging.request(c)
	res, err := h.profiles.List(c.UserContext(), page)
	if err != nil {
		return err
	}
	return ok(c, pageOf(page, res, dto.NewProfileResponse))
}

// Get GET /profiles/:email. Customers may only read themselves.
func (h *ProfilesHandler) Get(c *fiber.Ctx) error {
	email := c.Params("email")
	if err := requireSelfOrStaff(c, email); err != nil {
		return err
	}
	profile, err := h.profiles.Get(c.UserContext(), email)
	if err != nil {
		return err
	}
	return ok(c, dto.NewProfileResponse(profile))
}

// Tickets GET /profiles/:email/tickets.
func (h *ProfilesHandler) Tickets(c *fiber.Ctx) error {
	page := h.paging.request(c)
	res, err := h.tickets.ListTicketsByProfile(c.UserContext(), callerFrom(c), c.Params("email"), page)
	if err != nil {
		return err
	}
	return ok(c, pageOf(page, res, func(t *domain.Ticket) dto.TicketResponse { return dto.NewTicketResponse(t, false) }))
}

// EditSelf PUT /profiles/edit.
func (h *ProfilesHandler) EditSelf(c *fiber.Ctx) error {
	p, found := auth.PrincipalFromContext(c)
	if !found || p.Kind != domain.SubjectTypeProfile {
		return apperrors.NewForbidden("profile login required")
	}
	return h.edit(c, p.Email)
}

// Edit PUT /profiles/:email.
func (h *ProfilesHandler) Edit(c *fiber.Ctx) error {
	return h.edit(c, c.Params("email"))
}

func (h *ProfilesHandler) edit(c *fiber.Ctx, email string) error {
	var req dto.ProfileRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	profile, err := h.profiles.Edit(c.UserContext(), email, service.ProfileInput{
		Email:    req.Email,
		Name:     req.Name,
		Surname:  req.Surname,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return ok(c, dto.NewProfileResponse(profile))
}

func requireSelfOrStaff(c *fiber.Ctx, email string) error {
	p, found := auth.PrincipalFromContext(c)
	if found && p.Role == domain.RoleCustomer && !equalEmail(p.Email, email) {
		return apperrors.NewForbidden("profile not accessible")
	}
	return nil
}
