package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
)

// Caller identifies who drives a service call. The zero value is an
// internal call with role unknown and no access restrictions.
type Caller struct {
	Role     domain.Role
	Email    string
	ExpertID *int64
}

func (c Caller) role() domain.Role {
	if c.Role == "" {
		return domain.RoleUnknown
	}
	return c.Role
}

func (c Caller) actor() events.Actor {
	return events.Actor{Role: c.role(), Email: c.Email}
}

// canSee reports whether the caller may read or act on the ticket.
// Customers see their own tickets and experts the ones assigned to them.
func (c Caller) canSee(t *domain.Ticket) bool {
	switch c.Role {
	case domain.RoleCustomer:
		return t.ProfileEmail == c.Email
	case domain.RoleExpert:
		return c.ExpertID != nil && t.ExpertID != nil && *c.ExpertID == *t.ExpertID
	default:
		return true
	}
}

// PageRequest is a 0-based page number and a page size.
type PageRequest struct {
	Page int
	Size int
}

func (p PageRequest) repo() repository.Page {
	size := p.Size
	if size <= 0 {
		size = 20
	}
	page := p.Page
	if page < 0 {
		page = 0
	}
	return repository.Page{Limit: size, Offset: page * size}
}

// Paged is one page of a list result plus the total number of matches.
type Paged[T any] struct {
	Items []T
	Total int
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel
	}
	return err
}

func publish(ctx context.Context, dispatcher events.Dispatcher, event events.Event) error {
	if dispatcher == nil {
		return nil
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return dispatcher.Publish(ctx, event)
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
