package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// TicketsHandler serves ticket lifecycle endpoints.
type TicketsHandler struct {
	service *service.TicketService
	paging  Paging
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, paging Paging) *TicketsHandler {
	return &TicketsHandler{service: ticketService, paging: paging}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	req.Normalize()

	caller := callerFrom(c)
	// customers always open tickets for themselves
	if caller.Role == domain.RoleCustomer {
		req.Profile = caller.Email
	}
	if req.Profile == "" || req.Product == "" || req.Expertise == "" || req.Obj == "" {
		return apperrors.NewValidationError("obj, profile, product and expertise are required", nil)
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), caller, service.TicketCreateInput{
		ProfileEmail:   strings.ToLower(req.Profile),
		ProductID:      req.Product,
		ExpertiseField: req.Expertise,
		Obj:            req.Obj,
		Arg:            req.Arg,
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, dto.IDResponse{ID: ticket.ID})
}

// ListTickets GET /tickets?status=&priority=&profile=&expert=&product=&expertise=.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	page := h.paging.request(c)
	filter := service.TicketListFilter{Page: page}
	if v := c.Query("profile"); v != "" {
		filter.ProfileEmail = &v
	}
	if v := c.Query("product"); v != "" {
		filter.ProductID = &v
	}
	if v := c.Query("expertise"); v != "" {
		filter.ExpertiseField = &v
	}
	if v := c.QueryInt("expert", 0); v > 0 {
		expertID := int64(v)
		filter.ExpertID = &expertID
	}
	for _, s := range splitQuery(c.Query("status")) {
		status := domain.Status(strings.ToUpper(s))
		if !status.Valid() {
			return apperrors.NewValidationError("unknown status", map[string]any{"status": s})
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	for _, p := range splitQuery(c.Query("priority")) {
		priority := domain.Priority(strings.ToUpper(p))
		if !priority.Valid() {
			return domain.ErrIllegalPriority.WithMessage("unknown priority %q", p)
		}
		filter.Priorities = append(filter.Priorities, priority)
	}

	res, err := h.service.ListTickets(c.UserContext(), callerFrom(c), filter)
	if err != nil {
		return err
	}
	return ok(c, pageOf(page, res, func(t *domain.Ticket) dto.TicketResponse { return dto.NewTicketResponse(t, false) }))
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticketID, err := int64Param(c, "id")
	if err != nil {
		return err
	}
	ticket, err := h.service.GetTicket(c.UserContext(), callerFrom(c), ticketID)
	if err != nil {
		return err
	}
	return ok(c, dto.NewTicketResponse(ticket, true))
}

// History GET /tickets/:id/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	ticketID, err := int64Param(c, "id")
	if err != nil {
		return err
	}
	history, err := h.service.History(c.UserContext(), callerFrom(c), ticketID)
	if err != nil {
		return err
	}
	return ok(c, dto.NewTicketStatusResponses(history))
}

// Transition returns the handler for PUT /tickets/:id/{open,reopen,close,resolved}.
func (h *TicketsHandler) Transition(target domain.Status) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return h.setStatus(c, service.StatusChangeInput{Target: target})
	}
}

// InProgress PUT /tickets/:id/inprogress.
func (h *TicketsHandler) InProgress(c *fiber.Ctx) error {
	var req dto.InProgressRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}
	if req.Priority != nil {
		normalized := domain.Priority(strings.ToUpper(string(*req.Priority)))
		req.Priority = &normalized
	}
	return h.setStatus(c, service.StatusChangeInput{
		Target:   domain.StatusInProgress,
		ExpertID: req.ExpertID,
		Priority: req.Priority,
	})
}

// SetPriority PUT /tickets/:id/priority/:priority.
func (h *TicketsHandler) SetPriority(c *fiber.Ctx) error {
	ticketID, err := int64Param(c, "id")
	if err != nil {
		return err
	}
	priority := domain.Priority(strings.ToUpper(c.Params("priority")))
	ticket, err := h.service.SetPriority(c.UserContext(), callerFrom(c), ticketID, priority)
	if err != nil {
		return err
	}
	return ok(c, dto.NewTicketResponse(ticket, false))
}

func (h *TicketsHandler) setStatus(c *fiber.Ctx, input service.StatusChangeInput) error {
	ticketID, err := int64Param(c, "id")
	if err != nil {
		return err
	}
	ticket, err := h.service.SetTicketStatus(c.UserContext(), callerFrom(c), ticketID, input)
	if err != nil {
		return err
	}
	return ok(c, dto.NewTicketResponse(ticket, true))
}

func splitQuery(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
