package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// ExpertiseRepository manages expertise persistence.
type ExpertiseRepository interface {
	Create(ctx context.Context, expertise *domain.Expertise) error
	GetByField(ctx context.Context, field string) (*domain.Expertise, error)
	List(ctx context.Context, page Page) ([]domain.Expertise, int, error)
	Search(ctx context.Context, name string, page Page) ([]domain.Expertise, int, error)
	Delete(ctx context.Context, field string) error
}

type expertiseRepository struct {
	pool *pgxpool.Pool
}

// NewExpertiseRepository builds the repository.
func NewExpertiseRepository(pool *pgxpool.Pool) ExpertiseRepository {
	return &expertiseRepository{pool: pool}
}

func (r *expertiseRepository) Create(ctx context.Context, expertise *domain.Expertise) error {
	const query = `INSERT INTO expertises (id, field) VALUES ($1,$2)`
	_, err := r.pool.Exec(ctx, query, expertise.ID, expertise.Field)
	return mapUniqueViolation(err)
}

func (r *expertiseRepository) GetByField(ctx context.Context, field string) (*domain.Expertise, error) {
	const query = `SELECT id, field FROM expertises WHERE field=$1`
	var expertise domain.Expertise
	if err := r.pool.QueryRow(ctx, query, field).Scan(&expertise.ID, &expertise.Field); err != nil {
		return nil, err
	}
	return &expertise, nil
}

func (r *expertiseRepository) List(ctx context.Context, page Page) ([]domain.Expertise, int, error) {
	limit, offset := page.bounds()
	query := fmt.Sprintf(`SELECT id, field, COUNT(*) OVER() FROM expertises ORDER BY field LIMIT %d OFFSET %d`, limit, offset)
	return r.query(ctx, query)
}

func (r *expertiseRepository) Search(ctx context.Context, name string, page Page) ([]domain.Expertise, int, error) {
	limit, offset := page.bounds()
	query := fmt.Sprintf(`SELECT id, field, COUNT(*) OVER() FROM expertises
        WHERE LOWER(field) LIKE $1 ORDER BY field LIMIT %d OFFSET %d`, limit, offset)
	return r.query(ctx, query, "%"+strings.ToLower(strings.TrimSpace(name))+"%")
}

func (r *expertiseRepository) Delete(ctx context.Context, field string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM expertises WHERE field=$1`, field)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *expertiseRepository) query(ctx context.Context, query string, args ...any) ([]domain.Expertise, int, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		result []domain.Expertise
		total  int
	)
	for rows.Next() {
		var expertise domain.Expertise
		if err := rows.Scan(&expertise.ID, &expertise.Field, &total); err != nil {
			return nil, 0, err
		}
		result = append(result, expertise)
	}
	return result, total, rows.Err()
}
