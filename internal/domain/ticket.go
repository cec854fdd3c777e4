package domain

import (
	"time"

	"github.com/spec-kit/support-desk/pkg/id"
)

// Status enumerates lifecycle states for tickets.
type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusResolved   Status = "RESOLVED"
	StatusClosed     Status = "CLOSED"
	StatusReopened   Status = "REOPENED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusClosed, StatusReopened:
		return true
	}
	return false
}

// Priority enumerates ticket urgency.
type Priority string

const (
	PriorityToAssign Priority = "TOASSIGN"
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
)

// Valid reports whether p is a known priority, TOASSIGN included.
func (p Priority) Valid() bool {
	switch p {
	case PriorityToAssign, PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Assignable reports whether p may be set when a ticket enters IN_PROGRESS.
func (p Priority) Assignable() bool {
	return p.Valid() && p != PriorityToAssign
}

// Ticket is the aggregate for support requests. It owns its status history;
// profile, product and expert are referenced by key only.
type Ticket struct {
	ID             int64
	Obj            string
	Arg            string
	ProfileEmail   string
	ExpertID       *int64
	ProductID      string
	ExpertiseField string
	Priority       Priority
	History        []TicketStatus
	CreatedAt      time.Time
}

// NewTicket builds a ticket with priority TOASSIGN and an initial OPEN entry.
func NewTicket(profileEmail, productID, expertiseField, obj, arg string, role Role, now time.Time) *Ticket {
	if role == "" {
		role = RoleUnknown
	}
	ticketID := id.New()
	t := &Ticket{
		ID:             ticketID,
		Obj:            obj,
		Arg:            arg,
		ProfileEmail:   profileEmail,
		ProductID:      productID,
		ExpertiseField: expertiseField,
		Priority:       PriorityToAssign,
		CreatedAt:      now,
	}
	t.History = append(t.History, TicketStatus{
		ID:        id.New(),
		TicketID:  ticketID,
		Status:    StatusOpen,
		Timestamp: now,
		Role:      role,
	})
	return t
}

// CurrentStatus returns the history entry with the latest timestamp. Equal
// timestamps resolve to the entry appended last. ok is false only for a
// ticket with no history.
func (t *Ticket) CurrentStatus() (current TicketStatus, ok bool) {
	for i, entry := range t.History {
		if i == 0 || !entry.Timestamp.Before(current.Timestamp) {
			current = entry
		}
	}
	return current, len(t.History) > 0
}
