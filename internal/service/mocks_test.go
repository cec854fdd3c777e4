package service_test

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
)

func page[T any](items []T, p repository.Page) []T {
	limit, offset := p.Limit, p.Offset
	if limit <= 0 {
		limit = 20
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func cloneTicket(t *domain.Ticket) *domain.Ticket {
	cp := *t
	cp.History = append([]domain.TicketStatus(nil), t.History...)
	if t.ExpertID != nil {
		eid := *t.ExpertID
		cp.ExpertID = &eid
	}
	return &cp
}

// memTickets keeps tickets in memory. Update applies the mutation to a copy
// and commits it only on success.
type memTickets struct {
	mu          sync.Mutex
	byID        map[int64]*domain.Ticket
	createCalls int
	updateCalls int
	lastFilter  repository.TicketFilter
}

func newMemTickets() *memTickets {
	return &memTickets{byID: map[int64]*domain.Ticket{}}
}

func (m *memTickets) Create(_ context.Context, ticket *domain.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	m.byID[ticket.ID] = cloneTicket(ticket)
	return nil
}

func (m *memTickets) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cloneTicket(t), nil
}

func (m *memTickets) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = filter
	var out []domain.Ticket
	for _, t := range m.byID {
		if filter.ProfileEmail != nil && t.ProfileEmail != *filter.ProfileEmail {
			continue
		}
		if filter.ExpertID != nil && (t.ExpertID == nil || *t.ExpertID != *filter.ExpertID) {
			continue
		}
		if len(filter.Statuses) > 0 {
			cur, _ := t.CurrentStatus()
			match := false
			for _, s := range filter.Statuses {
				match = match || s == cur.Status
			}
			if !match {
				continue
			}
		}
		out = append(out, *cloneTicket(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, filter.Page), len(out), nil
}

func (m *memTickets) Update(_ context.Context, id int64, fn repository.TicketMutation) (*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	t, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	work := cloneTicket(t)
	if err := fn(work); err != nil {
		return nil, err
	}
	m.byID[id] = work
	return cloneTicket(work), nil
}

type memProfiles struct {
	byEmail map[string]*domain.Profile
}

func newMemProfiles(profiles ...domain.Profile) *memProfiles {
	m := &memProfiles{byEmail: map[string]*domain.Profile{}}
	for i := range profiles {
		p := profiles[i]
		m.byEmail[p.Email] = &p
	}
	return m
}

func (m *memProfiles) Create(_ context.Context, p *domain.Profile) error {
	if _, ok := m.byEmail[p.Email]; ok {
		return repository.ErrDuplicate
	}
	cp := *p
	m.byEmail[p.Email] = &cp
	return nil
}

func (m *memProfiles) Update(_ context.Context, p *domain.Profile) error {
	if _, ok := m.byEmail[p.Email]; !ok {
		return pgx.ErrNoRows
	}
	cp := *p
	m.byEmail[p.Email] = &cp
	return nil
}

func (m *memProfiles) GetByEmail(_ context.Context, email string) (*domain.Profile, error) {
	p, ok := m.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (m *memProfiles) Exists(_ context.Context, email string) (bool, error) {
	_, ok := m.byEmail[email]
	return ok, nil
}

func (m *memProfiles) List(_ context.Context, p repository.Page) ([]domain.Profile, int, error) {
	var out []domain.Profile
	for _, profile := range m.byEmail {
		out = append(out, *profile)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return page(out, p), len(out), nil
}

type memProducts struct {
	byID map[string]domain.Product
}

func newMemProducts(products ...domain.Product) *memProducts {
	m := &memProducts{byID: map[string]domain.Product{}}
	for _, p := range products {
		m.byID[p.ID] = p
	}
	return m
}

func (m *memProducts) Upsert(_ context.Context, p *domain.Product) error {
	m.byID[p.ID] = *p
	return nil
}

func (m *memProducts) GetByID(_ context.Context, id string) (*domain.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &p, nil
}

func (m *memProducts) List(_ context.Context, p repository.Page) ([]domain.Product, int, error) {
	return m.Search(context.Background(), "", p)
}

func (m *memProducts) Search(_ context.Context, name string, p repository.Page) ([]domain.Product, int, error) {
	var out []domain.Product
	for _, product := range m.byID {
		if strings.Contains(strings.ToLower(product.Name), strings.ToLower(name)) {
			out = append(out, product)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, p), len(out), nil
}

type memExpertises struct {
	byField map[string]domain.Expertise
	nextID  int64
}

func newMemExpertises(fields ...string) *memExpertises {
	m := &memExpertises{byField: map[string]domain.Expertise{}}
	for _, f := range fields {
		m.nextID++
		m.byField[f] = domain.Expertise{ID: m.nextID, Field: f}
	}
	return m
}

func (m *memExpertises) Create(_ context.Context, e *domain.Expertise) error {
	if _, ok := m.byField[e.Field]; ok {
		return repository.ErrDuplicate
	}
	m.byField[e.Field] = *e
	return nil
}

func (m *memExpertises) GetByField(_ context.Context, field string) (*domain.Expertise, error) {
	e, ok := m.byField[field]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &e, nil
}

func (m *memExpertises) List(ctx context.Context, p repository.Page) ([]domain.Expertise, int, error) {
	return m.Search(ctx, "", p)
}

func (m *memExpertises) Search(_ context.Context, name string, p repository.Page) ([]domain.Expertise, int, error) {
	var out []domain.Expertise
	for _, e := range m.byField {
		if strings.Contains(strings.ToLower(e.Field), strings.ToLower(name)) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return page(out, p), len(out), nil
}

func (m *memExpertises) Delete(_ context.Context, field string) error {
	if _, ok := m.byField[field]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.byField, field)
	return nil
}

func (m *memExpertises) fieldByID(id int64) string {
	for _, e := range m.byField {
		if e.ID == id {
			return e.Field
		}
	}
	return ""
}

type memExperts struct {
	byID       map[int64]*domain.Expert
	expertises *memExpertises
}

func newMemExperts(expertises *memExpertises, experts ...domain.Expert) *memExperts {
	m := &memExperts{byID: map[int64]*domain.Expert{}, expertises: expertises}
	for i := range experts {
		e := experts[i]
		m.byID[e.ID] = &e
	}
	return m
}

func (m *memExperts) Create(_ context.Context, e *domain.Expert, expertiseIDs []int64) error {
	for _, existing := range m.byID {
		if existing.Email == e.Email {
			return repository.ErrDuplicate
		}
	}
	cp := *e
	cp.Expertises = nil
	for _, id := range expertiseIDs {
		cp.Expertises = append(cp.Expertises, m.expertises.fieldByID(id))
	}
	m.byID[e.ID] = &cp
	return nil
}

func (m *memExperts) GetByID(_ context.Context, id int64) (*domain.Expert, error) {
	e, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *e
	cp.Expertises = append([]string(nil), e.Expertises...)
	return &cp, nil
}

func (m *memExperts) GetByEmail(ctx context.Context, email string) (*domain.Expert, error) {
	for id, e := range m.byID {
		if e.Email == email {
			return m.GetByID(ctx, id)
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memExperts) List(ctx context.Context, p repository.Page) ([]domain.Expert, int, error) {
	return m.ListByExpertise(ctx, "", p)
}

func (m *memExperts) ListByExpertise(_ context.Context, field string, p repository.Page) ([]domain.Expert, int, error) {
	var out []domain.Expert
	for _, e := range m.byID {
		if field == "" || e.HasExpertise(field) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return page(out, p), len(out), nil
}

func (m *memExperts) AddExpertise(_ context.Context, expertID, expertiseID int64) error {
	e := m.byID[expertID]
	field := m.expertises.fieldByID(expertiseID)
	if !e.HasExpertise(field) {
		e.Expertises = append(e.Expertises, field)
	}
	return nil
}

func (m *memExperts) RemoveExpertise(_ context.Context, expertID, expertiseID int64) error {
	e := m.byID[expertID]
	field := m.expertises.fieldByID(expertiseID)
	for i, f := range e.Expertises {
		if f == field {
			e.Expertises = append(e.Expertises[:i], e.Expertises[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

type memMessages struct {
	tickets *memTickets
	byID    []*domain.Message
}

func (m *memMessages) Create(_ context.Context, msg *domain.Message) error {
	if _, err := m.tickets.GetByID(context.Background(), msg.TicketID); err != nil {
		return err
	}
	msg.Index = 0
	for _, existing := range m.byID {
		if existing.TicketID == msg.TicketID && existing.Index >= msg.Index {
			msg.Index = existing.Index + 1
		}
	}
	cp := *msg
	m.byID = append(m.byID, &cp)
	return nil
}

func (m *memMessages) ListByTicket(_ context.Context, ticketID int64, p repository.Page) ([]domain.Message, int, error) {
	var out []domain.Message
	for _, msg := range m.byID {
		if msg.TicketID == ticketID {
			out = append(out, *msg)
		}
	}
	return page(out, p), len(out), nil
}

func (m *memMessages) Ack(_ context.Context, ticketID int64, index int) error {
	for _, msg := range m.byID {
		if msg.TicketID == ticketID && msg.Index == index {
			msg.Acked = true
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *memMessages) UnreadCounts(_ context.Context, filter repository.UnreadFilter) ([]domain.UnreadCount, int, error) {
	counts := map[int64]int{}
	for _, msg := range m.byID {
		if msg.Acked || msg.AuthorEmail == filter.ExcludeAuthor {
			continue
		}
		t := m.tickets.byID[msg.TicketID]
		if filter.ProfileEmail != nil && t.ProfileEmail != *filter.ProfileEmail {
			continue
		}
		if filter.ExpertID != nil && (t.ExpertID == nil || *t.ExpertID != *filter.ExpertID) {
			continue
		}
		counts[msg.TicketID]++
	}
	var out []domain.UnreadCount
	for id, n := range counts {
		out = append(out, domain.UnreadCount{TicketID: id, Unread: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TicketID < out[j].TicketID })
	return page(out, filter.Page), len(out), nil
}

// recordingDispatcher captures published events.
type recordingDispatcher struct {
	events.Dispatcher
	published []events.Event
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{Dispatcher: events.NewInMemoryDispatcher()}
}

func (r *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	r.published = append(r.published, event)
	return r.Dispatcher.Publish(ctx, event)
}

func (r *recordingDispatcher) types() []events.EventType {
	out := make([]events.EventType, 0, len(r.published))
	for _, e := range r.published {
		out = append(out, e.Type)
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}
