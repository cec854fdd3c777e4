package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/pkg/id"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// MessageService handles ticket thread messages.
type MessageService struct {
	tickets    repository.TicketRepository
	messages   repository.MessageRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// AttachmentInput defines attachment metadata. The content itself lives in
// external storage under StorageKey.
type AttachmentInput struct {
	FileName    string
	ContentType string
	SizeBytes   int64
	StorageKey  string
}

// NewMessageService builds the service.
func NewMessageService(tickets repository.TicketRepository, messages repository.MessageRepository, dispatcher events.Dispatcher, logger *zap.Logger) *MessageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageService{tickets: tickets, messages: messages, dispatcher: dispatcher, logger: logger, now: time.Now}
}

// Add appends a message to the ticket thread.
func (s *MessageService) Add(ctx context.Context, caller Caller, ticketID int64, body string, attachments []AttachmentInput) (*domain.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" && len(attachments) == 0 {
		return nil, apperrors.NewValidationError("message body is required", nil)
	}
	if _, err := s.visibleTicket(ctx, caller, ticketID); err != nil {
		return nil, err
	}

	now := s.now()
	msg := &domain.Message{
		ID:          id.New(),
		TicketID:    ticketID,
		AuthorEmail: caller.Email,
		ExpertID:    caller.ExpertID,
		Body:        body,
		CreatedAt:   now,
	}
	for _, att := range attachments {
		msg.Attachments = append(msg.Attachments, domain.Attachment{
			ID:          id.New(),
			MessageID:   msg.ID,
			FileName:    att.FileName,
			ContentType: att.ContentType,
			SizeBytes:   att.SizeBytes,
			StorageKey:  att.StorageKey,
			CreatedAt:   now,
		})
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, notFound(err, domain.ErrTicketNotFound)
	}

	if err := publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketMessageAdded,
		TicketID: ticketID,
		Actor:    caller.actor(),
		Payload: events.TicketMessageAddedPayload{
			MessageID:   msg.ID,
			Index:       msg.Index,
			AuthorEmail: msg.AuthorEmail,
			BodyPreview: stringPreview(msg.Body, 120),
		},
	}); err != nil {
		s.logger.Warn("event handlers failed", zap.Int64("ticket_id", ticketID), zap.Error(err))
	}
	return msg, nil
}

// ListByTicket returns the thread in index order.
func (s *MessageService) ListByTicket(ctx context.Context, caller Caller, ticketID int64, page PageRequest) (Paged[domain.Message], error) {
	if _, err := s.visibleTicket(ctx, caller, ticketID); err != nil {
		return Paged[domain.Message]{}, err
	}
	msgs, total, err := s.messages.ListByTicket(ctx, ticketID, page.repo())
	if err != nil {
		return Paged[domain.Message]{}, err
	}
	return Paged[domain.Message]{Items: msgs, Total: total}, nil
}

// Ack marks the message at index as read.
func (s *MessageService) Ack(ctx context.Context, caller Caller, ticketID int64, index int) error {
	if _, err := s.visibleTicket(ctx, caller, ticketID); err != nil {
		return err
	}
	return notFound(s.messages.Ack(ctx, ticketID, index), domain.ErrMessageNotFound)
}

// Unread counts unacknowledged messages written by others on the caller's
// tickets. Managers see every ticket.
func (s *MessageService) Unread(ctx context.Context, caller Caller, page PageRequest) (Paged[domain.UnreadCount], error) {
	filter := repository.UnreadFilter{ExcludeAuthor: caller.Email, Page: page.repo()}
	switch caller.Role {
	case domain.RoleCustomer:
		email := caller.Email
		filter.ProfileEmail = &email
	case domain.RoleExpert:
		if caller.ExpertID == nil {
			return Paged[domain.UnreadCount]{Items: []domain.UnreadCount{}}, nil
		}
		filter.ExpertID = caller.ExpertID
	}
	counts, total, err := s.messages.UnreadCounts(ctx, filter)
	if err != nil {
		return Paged[domain.UnreadCount]{}, err
	}
	return Paged[domain.UnreadCount]{Items: counts, Total: total}, nil
}

func (s *MessageService) visibleTicket(ctx context.Context, caller Caller, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, notFound(err, domain.ErrTicketNotFound)
	}
	if !caller.canSee(ticket) {
		return nil, apperrors.NewForbidden("ticket not accessible")
	}
	return ticket, nil
}
