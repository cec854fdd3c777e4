package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// MessagesHandler serves ticket thread endpoints.
type MessagesHandler struct {
	service *service.MessageService
	paging  Paging
}

// NewMessagesHandler constructs handler.
func NewMessagesHandler(messageService *service.MessageService, paging Paging) *MessagesHandler {
	return &MessagesHandler{service: messageService, paging: paging}
}

// List GET /tickets/:id/messages.
func (h *MessagesHandler) List(c *fiber.Ctx) error {
	ticketID, err := int64Param(c, "id")
	if err != nil {
		return err
	}
	page := h.paging.request(c)
	res, err := h.service.ListByTicket(c.UserContext(), callerFrom(c), ticketID, page)
	if err != nil {
		return err
	}
	return ok(c, pageOf(page, res, dto.NewMessageResponse))
}

// Add POST /tickets/:id/message.
func (h *MessagesHandler) Add(c *fiber.Ctx) error {
	ticketID, err := int64Param(c, "id")
	if err != nil {
		return err
	}
	var req dto.CreateMessageRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	attachments := make([]service.AttachmentInput, 0, len(req.Attachments))
	for _, att := range req.Attachments {
		attachments = append(attachments, service.AttachmentInput{
			FileName:    att.FileName,
			ContentType: att.ContentType,
			SizeBytes:   att.SizeBytes,
			StorageKey:  att.StorageKey,
		})
	}
	msg, err := h.service.Add(c.UserContext(), callerFrom(c), ticketID, req.Body, attachments)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, dto.NewMessageResponse(msg))
}

// Ack PUT /tickets/:id/messages/:index/ack.
func (h *MessagesHandler) Ack(c *fiber.Ctx) error {
	ticketID, err := int64Param(c, "id")
	if err != nil {
		return err
	}
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil || index < 0 {
		return apperrors.NewValidationError("invalid index", map[string]any{"index": c.Params("index")})
	}
	if err := h.service.Ack(c.UserContext(), callerFrom(c), ticketID, index); err != nil {
		return err
	}
	return ok(c, fiber.Map{"ticketId": ticketID, "index": index, "acked": true})
}

// Unread GET /messages/unread.
func (h *MessagesHandler) Unread(c *fiber.Ctx) error {
	page := h.paging.request(c)
	res, err := h.service.Unread(c.UserContext(), callerFrom(c), page)
	if err != nil {
		return err
	}
	return ok(c, pageOf(page, res, func(u *domain.UnreadCount) dto.UnreadResponse {
		return dto.UnreadResponse{TicketID: u.TicketID, Unread: u.Unread}
	}))
}
