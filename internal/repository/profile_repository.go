package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// ProfileRepository defines persistence access for profiles.
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.Profile) error
	Update(ctx context.Context, profile *domain.Profile) error
	GetByEmail(ctx context.Context, email string) (*domain.Profile, error)
	Exists(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, page Page) ([]domain.Profile, int, error)
}

type profileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository returns a Postgres-backed implementation.
func NewProfileRepository(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepository{pool: pool}
}

const profileColumns = `email, name, surname, password_hash, role, created_at, updated_at`

func (r *profileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	const query = `
        INSERT INTO profiles (email, name, surname, password_hash, role)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		profile.Email,
		profile.Name,
		profile.Surname,
		profile.PasswordHash,
		profile.Role,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt)
	return mapUniqueViolation(err)
}

func (r *profileRepository) Update(ctx context.Context, profile *domain.Profile) error {
	const query = `
        UPDATE profiles SET name=$1, surname=$2, password_hash=$3, role=$4, updated_at=NOW()
        WHERE email=$5`

	cmd, err := r.pool.Exec(ctx, query,
		profile.Name,
		profile.Surname,
		profile.PasswordHash,
		profile.Role,
		profile.Email,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE email=$1`

	var profile domain.Profile
	if err := r.pool.QueryRow(ctx, query, email).Scan(
		&profile.Email,
		&profile.Name,
		&profile.Surname,
		&profile.PasswordHash,
		&profile.Role,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) Exists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM profiles WHERE email=$1)`, email).Scan(&exists)
	return exists, err
}

func (r *profileRepository) List(ctx context.Context, page Page) ([]domain.Profile, int, error) {
	limit, offset := page.bounds()
	query := fmt.Sprintf(`SELECT %s, COUNT(*) OVER() FROM profiles ORDER BY email LIMIT %d OFFSET %d`,
		profileColumns, limit, offset)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		result []domain.Profile
		total  int
	)
	for rows.Next() {
		var profile domain.Profile
		if err := rows.Scan(
			&profile.Email,
			&profile.Name,
			&profile.Surname,
			&profile.PasswordHash,
			&profile.Role,
			&profile.CreatedAt,
			&profile.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, err
		}
		result = append(result, profile)
	}
	return result, total, rows.Err()
}
