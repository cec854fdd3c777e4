package domain

import "time"

// Message captures communications in a ticket thread.
type Message struct {
	ID          int64
	TicketID    int64
	Index       int
	AuthorEmail string
	// ExpertID is set only when the message was written by an expert.
	ExpertID    *int64
	Body        string
	Acked       bool
	Attachments []Attachment
	CreatedAt   time.Time
}

// Attachment stores metadata for message attachments.
type Attachment struct {
	ID          int64
	MessageID   int64
	FileName    string
	ContentType string
	SizeBytes   int64
	StorageKey  string
	CreatedAt   time.Time
}

// UnreadCount is the number of unacknowledged messages on a ticket.
type UnreadCount struct {
	TicketID int64
	Unread   int
}
