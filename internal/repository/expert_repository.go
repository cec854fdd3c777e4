package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/persistence"
)

// ExpertRepository handles persistence for experts and their expertises.
type ExpertRepository interface {
	Create(ctx context.Context, expert *domain.Expert, expertiseIDs []int64) error
	GetByID(ctx context.Context, id int64) (*domain.Expert, error)
	GetByEmail(ctx context.Context, email string) (*domain.Expert, error)
	List(ctx context.Context, page Page) ([]domain.Expert, int, error)
	ListByExpertise(ctx context.Context, field string, page Page) ([]domain.Expert, int, error)
	AddExpertise(ctx context.Context, expertID, expertiseID int64) error
	RemoveExpertise(ctx context.Context, expertID, expertiseID int64) error
}

type expertRepository struct {
	pool *pgxpool.Pool
}

// NewExpertRepository instantiates the repository.
func NewExpertRepository(pool *pgxpool.Pool) ExpertRepository {
	return &expertRepository{pool: pool}
}

const expertSelect = `
        SELECT e.id, e.email, e.name, e.surname, e.password_hash, e.created_at,
               ARRAY(SELECT x.field FROM expert_expertises ee JOIN expertises x ON x.id = ee.expertise_id
                     WHERE ee.expert_id = e.id ORDER BY x.field) AS fields,
               COUNT(*) OVER()
        FROM experts e`

func (r *expertRepository) Create(ctx context.Context, expert *domain.Expert, expertiseIDs []int64) error {
	return persistence.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `
            INSERT INTO experts (id, email, name, surname, password_hash)
            VALUES ($1,$2,$3,$4,$5)
            RETURNING created_at`
		err := tx.QueryRow(ctx, query,
			expert.ID,
			expert.Email,
			expert.Name,
			expert.Surname,
			expert.PasswordHash,
		).Scan(&expert.CreatedAt)
		if err != nil {
			return mapUniqueViolation(err)
		}
		for _, expertiseID := range expertiseIDs {
			if err := linkExpertise(ctx, tx, expert.ID, expertiseID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *expertRepository) GetByID(ctx context.Context, id int64) (*domain.Expert, error) {
	return r.fetchSingle(ctx, expertSelect+` WHERE e.id=$1`, id)
}

func (r *expertRepository) GetByEmail(ctx context.Context, email string) (*domain.Expert, error) {
	return r.fetchSingle(ctx, expertSelect+` WHERE e.email=$1`, email)
}

func (r *expertRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Expert, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	experts, _, err := scanExperts(rows)
	if err != nil {
		return nil, err
	}
	if len(experts) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &experts[0], nil
}

func (r *expertRepository) List(ctx context.Context, page Page) ([]domain.Expert, int, error) {
	limit, offset := page.bounds()
	query := fmt.Sprintf(`%s ORDER BY e.email LIMIT %d OFFSET %d`, expertSelect, limit, offset)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return scanExperts(rows)
}

func (r *expertRepository) ListByExpertise(ctx context.Context, field string, page Page) ([]domain.Expert, int, error) {
	limit, offset := page.bounds()
	query := fmt.Sprintf(`%s
        WHERE EXISTS (SELECT 1 FROM expert_expertises ee JOIN expertises x ON x.id = ee.expertise_id
                      WHERE ee.expert_id = e.id AND x.field = $1)
        ORDER BY e.email LIMIT %d OFFSET %d`, expertSelect, limit, offset)
	rows, err := r.pool.Query(ctx, query, field)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return scanExperts(rows)
}

func (r *expertRepository) AddExpertise(ctx context.Context, expertID, expertiseID int64) error {
	return linkExpertise(ctx, r.pool, expertID, expertiseID)
}

func (r *expertRepository) RemoveExpertise(ctx context.Context, expertID, expertiseID int64) error {
	const query = `DELETE FROM expert_expertises WHERE expert_id=$1 AND expertise_id=$2`
	cmd, err := r.pool.Exec(ctx, query, expertID, expertiseID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func linkExpertise(ctx context.Context, q querier, expertID, expertiseID int64) error {
	const query = `
        INSERT INTO expert_expertises (expert_id, expertise_id) VALUES ($1,$2)
        ON CONFLICT DO NOTHING`
	_, err := q.Exec(ctx, query, expertID, expertiseID)
	return err
}

func scanExperts(rows pgx.Rows) ([]domain.Expert, int, error) {
	var (
		result []domain.Expert
		total  int
	)
	for rows.Next() {
		var expert domain.Expert
		if err := rows.Scan(
			&expert.ID,
			&expert.Email,
			&expert.Name,
			&expert.Surname,
			&expert.PasswordHash,
			&expert.CreatedAt,
			&expert.Expertises,
			&total,
		); err != nil {
			return nil, 0, err
		}
		result = append(result, expert)
	}
	return result, total, rows.Err()
}
