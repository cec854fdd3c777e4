package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/persistence"
)

// TicketFilter captures list parameters. Statuses match the current status.
type TicketFilter struct {
	ProfileEmail   *string
	ExpertID       *int64
	ProductID      *string
	ExpertiseField *string
	Statuses       []domain.Status
	Priorities     []domain.Priority
	Page           Page
}

// TicketMutation changes a locked ticket in place. Returning an error
// aborts the surrounding transaction.
type TicketMutation func(ticket *domain.Ticket) error

// TicketRepository encapsulates ticket persistence. Tickets are always
// returned with their full status history.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error)
	// Update locks the ticket row, applies fn and persists history entries
	// appended by fn together with priority and assigned expert, atomically.
	Update(ctx context.Context, id int64, fn TicketMutation) (*domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, obj, arg, profile_email, expert_id, product_id, expertise_field, priority, created_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	return persistence.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		current, _ := ticket.CurrentStatus()
		const query = `
            INSERT INTO tickets (id, obj, arg, profile_email, expert_id, product_id, expertise_field, priority, status, created_at)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
		if _, err := tx.Exec(ctx, query,
			ticket.ID,
			ticket.Obj,
			ticket.Arg,
			ticket.ProfileEmail,
			ticket.ExpertID,
			ticket.ProductID,
			ticket.ExpertiseField,
			ticket.Priority,
			current.Status,
			ticket.CreatedAt,
		); err != nil {
			return err
		}
		return insertStatuses(ctx, tx, ticket.History, 0)
	})
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	ticket, err := fetchTicket(ctx, r.pool, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1`, id)
	if err != nil {
		return nil, err
	}
	if err := loadHistories(ctx, r.pool, []*domain.Ticket{ticket}); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) Update(ctx context.Context, id int64, fn TicketMutation) (*domain.Ticket, error) {
	var updated *domain.Ticket
	err := persistence.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		ticket, err := fetchTicket(ctx, tx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1 FOR UPDATE`, id)
		if err != nil {
			return err
		}
		if err := loadHistories(ctx, tx, []*domain.Ticket{ticket}); err != nil {
			return err
		}

		before := len(ticket.History)
		if err := fn(ticket); err != nil {
			return err
		}
		if err := insertStatuses(ctx, tx, ticket.History[before:], before); err != nil {
			return err
		}

		current, _ := ticket.CurrentStatus()
		const query = `
            UPDATE tickets SET priority=$1, expert_id=$2, status=$3, updated_at=NOW()
            WHERE id=$4`
		if _, err := tx.Exec(ctx, query, ticket.Priority, ticket.ExpertID, current.Status, ticket.ID); err != nil {
			return err
		}
		updated = ticket
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ProfileEmail != nil {
		args = append(args, *filter.ProfileEmail)
		clauses = append(clauses, fmt.Sprintf("profile_email=$%d", len(args)))
	}
	if filter.ExpertID != nil {
		args = append(args, *filter.ExpertID)
		clauses = append(clauses, fmt.Sprintf("expert_id=$%d", len(args)))
	}
	if filter.ProductID != nil {
		args = append(args, *filter.ProductID)
		clauses = append(clauses, fmt.Sprintf("product_id=$%d", len(args)))
	}
	if filter.ExpertiseField != nil {
		args = append(args, *filter.ExpertiseField)
		clauses = append(clauses, fmt.Sprintf("expertise_field=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}

	limit, offset := filter.Page.bounds()
	query := fmt.Sprintf(`SELECT %s, COUNT(*) OVER() FROM tickets WHERE %s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	tickets, total, err := scanTickets(rows)
	rows.Close()
	if err != nil {
		return nil, 0, err
	}

	ptrs := make([]*domain.Ticket, len(tickets))
	for i := range tickets {
		ptrs[i] = &tickets[i]
	}
	if err := loadHistories(ctx, r.pool, ptrs); err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

func fetchTicket(ctx context.Context, q querier, query string, id int64) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := q.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.Obj,
		&ticket.Arg,
		&ticket.ProfileEmail,
		&ticket.ExpertID,
		&ticket.ProductID,
		&ticket.ExpertiseField,
		&ticket.Priority,
		&ticket.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, int, error) {
	var (
		result []domain.Ticket
		total  int
	)
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Obj,
			&ticket.Arg,
			&ticket.ProfileEmail,
			&ticket.ExpertID,
			&ticket.ProductID,
			&ticket.ExpertiseField,
			&ticket.Priority,
			&ticket.CreatedAt,
			&total,
		); err != nil {
			return nil, 0, err
		}
		result = append(result, ticket)
	}
	return result, total, rows.Err()
}

// loadHistories fills History for every ticket in insertion order.
func loadHistories(ctx context.Context, q querier, tickets []*domain.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	byID := make(map[int64]*domain.Ticket, len(tickets))
	ids := make([]int64, 0, len(tickets))
	for _, t := range tickets {
		t.History = nil
		byID[t.ID] = t
		ids = append(ids, t.ID)
	}

	const query = `
        SELECT id, ticket_id, status, ts, role, expert_id
        FROM ticket_statuses WHERE ticket_id = ANY($1) ORDER BY ticket_id, seq`
	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var entry domain.TicketStatus
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.Status,
			&entry.Timestamp,
			&entry.Role,
			&entry.ExpertID,
		); err != nil {
			return err
		}
		if t, ok := byID[entry.TicketID]; ok {
			t.History = append(t.History, entry)
		}
	}
	return rows.Err()
}

func insertStatuses(ctx context.Context, q querier, entries []domain.TicketStatus, firstSeq int) error {
	const query = `
        INSERT INTO ticket_statuses (id, ticket_id, seq, status, ts, role, expert_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`
	for i, entry := range entries {
		if _, err := q.Exec(ctx, query,
			entry.ID,
			entry.TicketID,
			firstSeq+i,
			entry.Status,
			entry.Timestamp,
			entry.Role,
			entry.ExpertID,
		); err != nil {
			return err
		}
	}
	return nil
}
