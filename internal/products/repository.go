package products

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/VenkaSri/booking-backend/internal/models"
)

// Repository handles product persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a products repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const productColumns = `id, slug, name, description, price_cents, currency, active, created_at, updated_at`

func scanProduct(row pgx.Row) (*models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Description, &p.PriceCents, &p.Currency, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new product.
func (r *Repository) Create(ctx context.Context, p *models.Product) error {
	const q = `INSERT INTO products (slug, name, description, price_cents, currency, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, p.Slug, p.Name, p.Description, p.PriceCents, p.Currency, p.Active).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// GetByID returns a product by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
}

// GetBySlug returns a product by slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE slug = $1`, slug))
}

// ListActive returns active products for the public catalog.
func (r *Repository) ListActive(ctx context.Context) ([]models.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

// Update updates product fields. Nil pointers keep existing values.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, name string, description *string, priceCents *int, active *bool) error {
	const q = `UPDATE products SET
		name = COALESCE(NULLIF($1, ''), name),
		description = COALESCE($2, description),
		price_cents = COALESCE($3, price_cents),
		active = COALESCE($4, active),
		updated_at = NOW()
		WHERE id = $5`
	tag, err := r.pool.Exec(ctx, q, name, description, priceCents, active, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
