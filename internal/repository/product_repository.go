package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// ProductRepository exposes the product catalogue.
type ProductRepository interface {
	Upsert(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, page Page) ([]domain.Product, int, error)
	Search(ctx context.Context, name string, page Page) ([]domain.Product, int, error)
}

type productRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository builds the repository.
func NewProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &productRepository{pool: pool}
}

func (r *productRepository) Upsert(ctx context.Context, product *domain.Product) error {
	const query = `
        INSERT INTO products (id, name, brand) VALUES ($1,$2,$3)
        ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, brand=EXCLUDED.brand`
	_, err := r.pool.Exec(ctx, query, product.ID, product.Name, product.Brand)
	return err
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	const query = `SELECT id, name, brand FROM products WHERE id=$1`
	var product domain.Product
	if err := r.pool.QueryRow(ctx, query, id).Scan(&product.ID, &product.Name, &product.Brand); err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context, page Page) ([]domain.Product, int, error) {
	limit, offset := page.bounds()
	query := fmt.Sprintf(`SELECT id, name, brand, COUNT(*) OVER() FROM products ORDER BY name, id LIMIT %d OFFSET %d`, limit, offset)
	return r.query(ctx, query)
}

func (r *productRepository) Search(ctx context.Context, name string, page Page) ([]domain.Product, int, error) {
	limit, offset := page.bounds()
	query := fmt.Sprintf(`SELECT id, name, brand, COUNT(*) OVER() FROM products
        WHERE LOWER(name) LIKE $1 ORDER BY name, id LIMIT %d OFFSET %d`, limit, offset)
	return r.query(ctx, query, "%"+strings.ToLower(strings.TrimSpace(name))+"%")
}

func (r *productRepository) query(ctx context.Context, query string, args ...any) ([]domain.Product, int, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		result []domain.Product
		total  int
	)
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(&product.ID, &product.Name, &product.Brand, &total); err != nil {
			return nil, 0, err
		}
		result = append(result, product)
	}
	return result, total, rows.Err()
}
