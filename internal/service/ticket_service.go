package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	profiles   repository.ProfileRepository
	products   repository.ProductRepository
	experts    repository.ExpertRepository
	expertises repository.ExpertiseRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo    repository.TicketRepository
	ProfileRepo   repository.ProfileRepository
	ProductRepo   repository.ProductRepository
	ExpertRepo    repository.ExpertRepository
	ExpertiseRepo repository.ExpertiseRepository
	Dispatcher    events.Dispatcher
	Metrics       *observability.Metrics
	Logger        *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	ProfileEmail   string
	ProductID      string
	ExpertiseField string
	Obj            string
	Arg            string
}

// StatusChangeInput asks for a move to Target. ExpertID and Priority are
// read only when Target is IN_PROGRESS.
type StatusChangeInput struct {
	Target   domain.Status
	ExpertID *int64
	Priority *domain.Priority
}

// TicketListFilter describes list filters; nil fields do not filter.
type TicketListFilter struct {
	ProfileEmail   *string
	ExpertID       *int64
	ProductID      *string
	ExpertiseField *string
	Statuses       []domain.Status
	Priorities     []domain.Priority
	Page           PageRequest
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		profiles:   deps.ProfileRepo,
		products:   deps.ProductRepo,
		experts:    deps.ExpertRepo,
		expertises: deps.ExpertiseRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateTicket opens a ticket after checking that the profile, the product
// and the expertise all exist. Nothing is stored when one of them is missing.
func (s *TicketService) CreateTicket(ctx context.Context, caller Caller, input TicketCreateInput) (*domain.Ticket, error) {
	if _, err := s.profiles.GetByEmail(ctx, input.ProfileEmail); err != nil {
		return nil, notFound(err, domain.ErrProfileNotFound)
	}
	if _, err := s.products.GetByID(ctx, input.ProductID); err != nil {
		return nil, notFound(err, domain.ErrProductNotFound)
	}
	if _, err := s.expertises.GetByField(ctx, input.ExpertiseField); err != nil {
		return nil, notFound(err, domain.ErrExpertiseNotFound)
	}

	ticket := domain.NewTicket(
		input.ProfileEmail,
		input.ProductID,
		input.ExpertiseField,
		strings.TrimSpace(input.Obj),
		strings.TrimSpace(input.Arg),
		caller.role(),
		s.now(),
	)
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    caller.actor(),
		Payload: events.TicketCreatedPayload{
			ProfileEmail:   ticket.ProfileEmail,
			ProductID:      ticket.ProductID,
			ExpertiseField: ticket.ExpertiseField,
			Obj:            ticket.Obj,
		},
	})
	return ticket, nil
}

// SetTicketStatus runs one state machine transition under the ticket lock
// and persists the appended status entry with any priority and expert
// changes, or nothing at all.
func (s *TicketService) SetTicketStatus(ctx context.Context, caller Caller, ticketID int64, input StatusChangeInput) (*domain.Ticket, error) {
	var (
		from        domain.Status
		oldPriority domain.Priority
	)
	ticket, err := s.tickets.Update(ctx, ticketID, func(t *domain.Ticket) error {
		if !caller.canSee(t) {
			return apperrors.NewForbidden("ticket not accessible")
		}
		current, _ := t.CurrentStatus()
		from = current.Status
		oldPriority = t.Priority

		req := domain.TransitionRequest{
			Target:   input.Target,
			Priority: input.Priority,
			Role:     caller.role(),
			At:       s.now(),
		}
		if input.Target == domain.StatusInProgress && input.ExpertID != nil {
			expert, err := s.experts.GetByID(ctx, *input.ExpertID)
			if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return err
			}
			// a missing expert stays nil so the table check reports first
			req.Expert = expert
		}
		_, err := t.Transition(req)
		return err
	})
	if err != nil {
		return nil, notFound(err, domain.ErrTicketNotFound)
	}

	s.metrics.RecordTransition(string(from), string(input.Target))
	s.logger.Info("ticket status changed",
		zap.Int64("ticket_id", ticket.ID),
		zap.String("from", string(from)),
		zap.String("to", string(input.Target)),
		zap.String("role", string(caller.role())))

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    caller.actor(),
		Payload:  events.TicketStatusChangedPayload{OldStatus: from, NewStatus: input.Target},
	})
	if input.Target == domain.StatusInProgress && ticket.ExpertID != nil {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketAssigned,
			TicketID: ticket.ID,
			Actor:    caller.actor(),
			Payload:  events.TicketAssignedPayload{ExpertID: *ticket.ExpertID},
		})
		if oldPriority != ticket.Priority {
			s.publishEvent(ctx, events.Event{
				Type:     events.EventTicketPriorityChanged,
				TicketID: ticket.ID,
				Actor:    caller.actor(),
				Payload:  events.TicketPriorityChangedPayload{OldPriority: oldPriority, NewPriority: ticket.Priority},
			})
		}
	}
	return ticket, nil
}

// SetPriority overrides the ticket priority without consulting the
// transition table. History is left untouched.
func (s *TicketService) SetPriority(ctx context.Context, caller Caller, ticketID int64, priority domain.Priority) (*domain.Ticket, error) {
	if !priority.Valid() {
		return nil, domain.ErrIllegalPriority.WithMessage("unknown priority %q", priority)
	}
	var oldPriority domain.Priority
	ticket, err := s.tickets.Update(ctx, ticketID, func(t *domain.Ticket) error {
		oldPriority = t.Priority
		t.Priority = priority
		return nil
	})
	if err != nil {
		return nil, notFound(err, domain.ErrTicketNotFound)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketPriorityChanged,
		TicketID: ticket.ID,
		Actor:    caller.actor(),
		Payload: events.TicketPriorityChangedPayload{
			OldPriority: oldPriority,
			NewPriority: priority,
			Override:    true,
		},
	})
	return ticket, nil
}

// GetTicket returns a ticket with its full status history.
func (s *TicketService) GetTicket(ctx context.Context, caller Caller, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, notFound(err, domain.ErrTicketNotFound)
	}
	if !caller.canSee(ticket) {
		return nil, apperrors.NewForbidden("ticket not accessible")
	}
	return ticket, nil
}

// History returns the status entries of a ticket in insertion order.
func (s *TicketService) History(ctx context.Context, caller Caller, ticketID int64) ([]domain.TicketStatus, error) {
	ticket, err := s.GetTicket(ctx, caller, ticketID)
	if err != nil {
		return nil, err
	}
	return ticket.History, nil
}

// ListTickets lists tickets. Customers and experts are scoped to their own
// tickets regardless of the filter they send.
func (s *TicketService) ListTickets(ctx context.Context, caller Caller, filter TicketListFilter) (Paged[domain.Ticket], error) {
	repoFilter := repository.TicketFilter{
		ProfileEmail:   filter.ProfileEmail,
		ExpertID:       filter.ExpertID,
		ProductID:      filter.ProductID,
		ExpertiseField: filter.ExpertiseField,
		Statuses:       filter.Statuses,
		Priorities:     filter.Priorities,
		Page:           filter.Page.repo(),
	}
	switch caller.Role {
	case domain.RoleCustomer:
		email := caller.Email
		repoFilter.ProfileEmail = &email
	case domain.RoleExpert:
		repoFilter.ExpertID = caller.ExpertID
		if repoFilter.ExpertID == nil {
			return Paged[domain.Ticket]{Items: []domain.Ticket{}}, nil
		}
	}

	tickets, total, err := s.tickets.List(ctx, repoFilter)
	if err != nil {
		return Paged[domain.Ticket]{}, err
	}
	return Paged[domain.Ticket]{Items: tickets, Total: total}, nil
}

// ListTicketsByProfile lists tickets opened by the profile.
func (s *TicketService) ListTicketsByProfile(ctx context.Context, caller Caller, email string, page PageRequest) (Paged[domain.Ticket], error) {
	if caller.Role == domain.RoleCustomer && caller.Email != email {
		return Paged[domain.Ticket]{}, apperrors.NewForbidden("profile not accessible")
	}
	if _, err := s.profiles.GetByEmail(ctx, email); err != nil {
		return Paged[domain.Ticket]{}, notFound(err, domain.ErrProfileNotFound)
	}
	return s.ListTickets(ctx, Caller{}, TicketListFilter{ProfileEmail: &email, Page: page})
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if err := publish(ctx, s.dispatcher, event); err != nil {
		s.logger.Warn("event handlers failed",
			zap.String("event_type", string(event.Type)),
			zap.Int64("ticket_id", event.TicketID),
			zap.Error(err))
	}
}
