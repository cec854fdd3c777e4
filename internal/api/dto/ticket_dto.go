package dto

import (
	"strings"
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// CreateTicketRequest accepts both the short and the long field names.
type CreateTicketRequest struct {
	Obj            string `json:"obj"`
	Subject        string `json:"subject"`
	Arg            string `json:"arg"`
	Description    string `json:"description"`
	Profile        string `json:"profile"`
	ProfileID      string `json:"profileId"`
	Product        string `json:"product"`
	ProductID      string `json:"productId"`
	Expertise      string `json:"expertise"`
	ExpertiseField string `json:"expertiseField"`
}

// Normalize folds the long names into the short ones.
func (r *CreateTicketRequest) Normalize() {
	r.Obj = firstNonEmpty(r.Obj, r.Subject)
	r.Arg = firstNonEmpty(r.Arg, r.Description)
	r.Profile = firstNonEmpty(r.Profile, r.ProfileID)
	r.Product = firstNonEmpty(r.Product, r.ProductID)
	r.Expertise = firstNonEmpty(r.Expertise, r.ExpertiseField)
}

// InProgressRequest is the body of PUT /tickets/:id/inprogress.
type InProgressRequest struct {
	ExpertID *int64           `json:"expertId"`
	Priority *domain.Priority `json:"priority"`
}

// TicketResponse is the public view of a ticket.
type TicketResponse struct {
	ID        int64                  `json:"id"`
	Obj       string                 `json:"obj"`
	Arg       string                 `json:"arg"`
	Profile   string                 `json:"profile"`
	Expert    *int64                 `json:"expert"`
	Product   string                 `json:"product"`
	Expertise string                 `json:"expertise"`
	Priority  domain.Priority        `json:"priority"`
	Status    domain.Status          `json:"status"`
	CreatedAt time.Time              `json:"createdAt"`
	History   []TicketStatusResponse `json:"history,omitempty"`
}

// TicketStatusResponse is one history entry.
type TicketStatusResponse struct {
	ID        int64         `json:"id"`
	Status    domain.Status `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Role      domain.Role   `json:"role"`
	Expert    *int64        `json:"expert,omitempty"`
}

// NewTicketResponse maps a ticket. History is included when withHistory is set.
func NewTicketResponse(t *domain.Ticket, withHistory bool) TicketResponse {
	current, _ := t.CurrentStatus()
	resp := TicketResponse{
		ID:        t.ID,
		Obj:       t.Obj,
		Arg:       t.Arg,
		Profile:   t.ProfileEmail,
		Expert:    t.ExpertID,
		Product:   t.ProductID,
		Expertise: t.ExpertiseField,
		Priority:  t.Priority,
		Status:    current.Status,
		CreatedAt: t.CreatedAt,
	}
	if withHistory {
		resp.History = NewTicketStatusResponses(t.History)
	}
	return resp
}

// NewTicketStatusResponses maps history entries, keeping their order.
func NewTicketStatusResponses(entries []domain.TicketStatus) []TicketStatusResponse {
	out := make([]TicketStatusResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, TicketStatusResponse{
			ID:        e.ID,
			Status:    e.Status,
			Timestamp: e.Timestamp,
			Role:      e.Role,
			Expert:    e.ExpertID,
		})
	}
	return out
}

// CreateMessageRequest payload.
type CreateMessageRequest struct {
	Body        string              `json:"body"`
	Attachments []AttachmentRequest `json:"attachments"`
}

// AttachmentRequest describes attachment input.
type AttachmentRequest struct {
	StorageKey  string `json:"storageKey"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
}

// MessageResponse represents a thread message.
type MessageResponse struct {
	ID          int64                `json:"id"`
	Index       int                  `json:"index"`
	Author      string               `json:"author"`
	Expert      *int64               `json:"expert,omitempty"`
	Body        string               `json:"body"`
	Acked       bool                 `json:"acked"`
	Attachments []AttachmentResponse `json:"attachments"`
	CreatedAt   time.Time            `json:"createdAt"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID          int64  `json:"id"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
	StorageKey  string `json:"storageKey"`
}

// UnreadResponse is the unread count of one ticket.
type UnreadResponse struct {
	TicketID int64 `json:"ticketId"`
	Unread   int   `json:"unread"`
}

// NewMessageResponse maps a message.
func NewMessageResponse(m *domain.Message) MessageResponse {
	resp := MessageResponse{
		ID:          m.ID,
		Index:       m.Index,
		Author:      m.AuthorEmail,
		Expert:      m.ExpertID,
		Body:        m.Body,
		Acked:       m.Acked,
		Attachments: make([]AttachmentResponse, 0, len(m.Attachments)),
		CreatedAt:   m.CreatedAt,
	}
	for _, a := range m.Attachments {
		resp.Attachments = append(resp.Attachments, AttachmentResponse{
			ID:          a.ID,
			FileName:    a.FileName,
			ContentType: a.ContentType,
			SizeBytes:   a.SizeBytes,
			StorageKey:  a.StorageKey,
		})
	}
	return resp
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
