package http_test

import (
	"context"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

type memTickets struct {
	byID map[int64]*domain.Ticket
}

func clone(t *domain.Ticket) *domain.Ticket {
	cp := *t
	cp.History = append([]domain.TicketStatus(nil), t.History...)
	return &cp
}

func (m *memTickets) Create(_ context.Context, t *domain.Ticket) error {
	m.byID[t.ID] = clone(t)
	return nil
}

func (m *memTickets) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	t, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return clone(t), nil
}

func (m *memTickets) List(_ context.Context, f repository.TicketFilter) ([]domain.Ticket, int, error) {
	var out []domain.Ticket
	for _, t := range m.byID {
		if f.ProfileEmail != nil && t.ProfileEmail != *f.ProfileEmail {
			continue
		}
		out = append(out, *clone(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	total := len(out)
	if f.Page.Offset < len(out) {
		out = out[f.Page.Offset:]
	} else {
		out = nil
	}
	if f.Page.Limit > 0 && len(out) > f.Page.Limit {
		out = out[:f.Page.Limit]
	}
	return out, total, nil
}

func (m *memTickets) Update(_ context.Context, id int64, fn repository.TicketMutation) (*domain.Ticket, error) {
	t, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	work := clone(t)
	if err := fn(work); err != nil {
		return nil, err
	}
	m.byID[id] = work
	return clone(work), nil
}

type mockProfileRepo struct {
	repository.ProfileRepository
	profiles map[string]domain.Profile
}

func (m *mockProfileRepo) GetByEmail(_ context.Context, email string) (*domain.Profile, error) {
	p, ok := m.profiles[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &p, nil
}

type mockProductRepo struct {
	repository.ProductRepository
	products map[string]domain.Product
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &p, nil
}

type mockExpertiseRepo struct {
	repository.ExpertiseRepository
	fields map[string]domain.Expertise
}

func (m *mockExpertiseRepo) GetByField(_ context.Context, field string) (*domain.Expertise, error) {
	e, ok := m.fields[field]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &e, nil
}

type mockExpertRepo struct {
	repository.ExpertRepository
	experts map[int64]domain.Expert
}

func (m *mockExpertRepo) GetByID(_ context.Context, id int64) (*domain.Expert, error) {
	e, ok := m.experts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &e, nil
}

func (m *mockExpertRepo) GetByEmail(_ context.Context, email string) (*domain.Expert, error) {
	for _, e := range m.experts {
		if e.Email == email {
			return &e, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }
