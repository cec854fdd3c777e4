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

// UnreadFilter selects whose tickets are counted. Messages written by
// ExcludeAuthor are never unread for that author.
type UnreadFilter struct {
	ProfileEmail  *string
	ExpertID      *int64
	ExcludeAuthor string
	Page          Page
}

// MessageRepository persists ticket thread messages.
type MessageRepository interface {
	// Create assigns the next per-ticket index and stores the message with
	// its attachments.
	Create(ctx context.Context, msg *domain.Message) error
	ListByTicket(ctx context.Context, ticketID int64, page Page) ([]domain.Message, int, error)
	Ack(ctx context.Context, ticketID int64, index int) error
	UnreadCounts(ctx context.Context, filter UnreadFilter) ([]domain.UnreadCount, int, error)
}

type messageRepository struct {
	pool        *pgxpool.Pool
	attachments attachmentStore
}

// NewMessageRepository creates repository.
func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepository{pool: pool}
}

func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	return persistence.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		// serializes index assignment per ticket
		var locked int64
		if err := tx.QueryRow(ctx, `SELECT id FROM tickets WHERE id=$1 FOR UPDATE`, msg.TicketID).Scan(&locked); err != nil {
			return err
		}
		if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(idx)+1, 0) FROM messages WHERE ticket_id=$1`, msg.TicketID).Scan(&msg.Index); err != nil {
			return err
		}

		const query = `
            INSERT INTO messages (id, ticket_id, idx, author_email, expert_id, body, acked, created_at)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
		if _, err := tx.Exec(ctx, query,
			msg.ID,
			msg.TicketID,
			msg.Index,
			msg.AuthorEmail,
			msg.ExpertID,
			msg.Body,
			msg.Acked,
			msg.CreatedAt,
		); err != nil {
			return err
		}
		for i := range msg.Attachments {
			msg.Attachments[i].MessageID = msg.ID
			if err := r.attachments.Create(ctx, tx, &msg.Attachments[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *messageRepository) ListByTicket(ctx context.Context, ticketID int64, page Page) ([]domain.Message, int, error) {
	limit, offset := page.bounds()
	query := fmt.Sprintf(`
        SELECT id, ticket_id, idx, author_email, expert_id, body, acked, created_at, COUNT(*) OVER()
        FROM messages WHERE ticket_id=$1 ORDER BY idx ASC LIMIT %d OFFSET %d`, limit, offset)
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, 0, err
	}

	var (
		result []domain.Message
		total  int
	)
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.TicketID,
			&msg.Index,
			&msg.AuthorEmail,
			&msg.ExpertID,
			&msg.Body,
			&msg.Acked,
			&msg.CreatedAt,
			&total,
		); err != nil {
			rows.Close()
			return nil, 0, err
		}
		result = append(result, msg)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	ids := make([]int64, 0, len(result))
	for _, msg := range result {
		ids = append(ids, msg.ID)
	}
	attachments, err := r.attachments.ListByMessages(ctx, r.pool, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range result {
		result[i].Attachments = attachments[result[i].ID]
	}
	return result, total, nil
}

func (r *messageRepository) Ack(ctx context.Context, ticketID int64, index int) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE messages SET acked=TRUE WHERE ticket_id=$1 AND idx=$2`, ticketID, index)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *messageRepository) UnreadCounts(ctx context.Context, filter UnreadFilter) ([]domain.UnreadCount, int, error) {
	clauses := []string{"m.acked = FALSE"}
	args := []any{}

	if filter.ExcludeAuthor != "" {
		args = append(args, filter.ExcludeAuthor)
		clauses = append(clauses, fmt.Sprintf("m.author_email <> $%d", len(args)))
	}
	if filter.ProfileEmail != nil {
		args = append(args, *filter.ProfileEmail)
		clauses = append(clauses, fmt.Sprintf("t.profile_email=$%d", len(args)))
	}
	if filter.ExpertID != nil {
		args = append(args, *filter.ExpertID)
		clauses = append(clauses, fmt.Sprintf("t.expert_id=$%d", len(args)))
	}

	limit, offset := filter.Page.bounds()
	query := fmt.Sprintf(`
        SELECT m.ticket_id, COUNT(*), COUNT(*) OVER()
        FROM messages m JOIN tickets t ON t.id = m.ticket_id
        WHERE %s
        GROUP BY m.ticket_id ORDER BY m.ticket_id LIMIT %d OFFSET %d`,
		strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		result []domain.UnreadCount
		total  int
	)
	for rows.Next() {
		var count domain.UnreadCount
		if err := rows.Scan(&count.TicketID, &count.Unread, &total); err != nil {
			return nil, 0, err
		}
		result = append(result, count)
	}
	return result, total, rows.Err()
}

