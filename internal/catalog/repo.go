package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("product not found")

type Repo struct{ DB *pgxpool.Pool }

type ListFilter struct {
	ActiveOnly bool
	Category   Category // zero value = any
	Query      string   // matches name, case-insensitive substring
}

const productCols = `id, name, slug, description, price_cents, category, tags, active, featured, image_url, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.PriceCents,
		&p.Category, &p.Tags, &p.Active, &p.Featured, &p.ImageURL,
		&p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *Repo) List(ctx context.Context, f ListFilter) ([]Product, error) {
	q := `SELECT ` + productCols + ` FROM products`
	var (
		where []string
		args  []any
	)
	if f.ActiveOnly {
		where = append(where, "active = true")
	}
	if f.Category != "" {
		args = append(args, string(f.Category))
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		where = append(where, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	for i, w := range where {
		if i == 0 {
			q += " WHERE " + w
		} else {
			q += " AND " + w
		}
	}
	q += " ORDER BY name"

	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id string) (Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx,
		`SELECT `+productCols+` FROM products WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

func (r *Repo) GetBySlug(ctx context.Context, slug string) (Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx,
		`SELECT `+productCols+` FROM products WHERE slug=$1`, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

// ByIDs fetches the given products, silently skipping ids that no longer
// exist. Callers joining against the stock ledger rely on that.
func (r *Repo) ByIDs(ctx context.Context, ids []string) (map[string]Product, error) {
	if len(ids) == 0 {
		return map[string]Product{}, nil
	}
	rows, err := r.DB.Query(ctx,
		`SELECT `+productCols+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (r *Repo) Create(ctx context.Context, p Product, autoSlug bool) (Product, error) {
	if err := p.Validate(autoSlug); err != nil {
		return Product{}, err
	}
	p.ID = uuid.NewString()
	if p.Tags == nil {
		p.Tags = []string{}
	}
	row := r.DB.QueryRow(ctx, `
		INSERT INTO products(id, name, slug, description, price_cents, category, tags, active, featured, image_url)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Slug, p.Description, p.PriceCents, p.Category, p.Tags, p.Active, p.Featured, p.ImageURL)
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (r *Repo) Update(ctx context.Context, p Product, autoSlug bool) (Product, error) {
	if err := p.Validate(autoSlug); err != nil {
		return Product{}, err
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	row := r.DB.QueryRow(ctx, `
		UPDATE products
		SET name=$2, slug=$3, description=$4, price_cents=$5, category=$6,
		    tags=$7, active=$8, featured=$9, image_url=$10, updated_at=now()
		WHERE id=$1
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Slug, p.Description, p.PriceCents, p.Category, p.Tags, p.Active, p.Featured, p.ImageURL)
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

// Delete removes the product only. Historical reservation items keep their
// price/name snapshots; their product_id is set NULL by the schema.
func (r *Repo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
