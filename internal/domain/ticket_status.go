package domain

import "time"

// TicketStatus is an immutable history entry. ExpertID is populated only
// for IN_PROGRESS entries.
type TicketStatus struct {
	ID        int64
	TicketID  int64
	Status    Status
	Timestamp time.Time
	Role      Role
	ExpertID  *int64
}
