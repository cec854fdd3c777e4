package events

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated         EventType = "ticket_created"
	EventTicketStatusChanged   EventType = "ticket_status_changed"
	EventTicketPriorityChanged EventType = "ticket_priority_changed"
	EventTicketAssigned        EventType = "ticket_assigned"
	EventTicketMessageAdded    EventType = "ticket_message_added"
)

// AllEventTypes lists every event the service emits.
var AllEventTypes = []EventType{
	EventTicketCreated,
	EventTicketStatusChanged,
	EventTicketPriorityChanged,
	EventTicketAssigned,
	EventTicketMessageAdded,
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Role  domain.Role `json:"role"`
	Email string      `json:"email,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  int64     `json:"ticket_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	ProfileEmail   string `json:"profile_email"`
	ProductID      string `json:"product_id"`
	ExpertiseField string `json:"expertise_field"`
	Obj            string `json:"obj"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.Status `json:"old_status"`
	NewStatus domain.Status `json:"new_status"`
}

// TicketPriorityChangedPayload payload.
type TicketPriorityChangedPayload struct {
	OldPriority domain.Priority `json:"old_priority"`
	NewPriority domain.Priority `json:"new_priority"`
	Override    bool            `json:"override"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	ExpertID int64 `json:"expert_id"`
}

// TicketMessageAddedPayload payload.
type TicketMessageAddedPayload struct {
	MessageID   int64  `json:"message_id"`
	Index       int    `json:"index"`
	AuthorEmail string `json:"author_email"`
	BodyPreview string `json:"body_preview"`
}
