package stock

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) GetEntry(ctx context.Context, productID, date string) (Entry, error) {
	e := Entry{ProductID: productID, Date: date}
	err := r.DB.QueryRow(ctx, `
		SELECT cantidad_disponible, created_at, updated_at
		FROM daily_stock WHERE product_id=$1 AND date=$2::date`,
		productID, date).Scan(&e.Quantity, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

// EntriesForDate returns the day's ledger rows with units remaining.
// Zero-quantity rows are filtered here so they never reach a view.
func (r *Repo) EntriesForDate(ctx context.Context, date string) ([]Entry, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT product_id, cantidad_disponible, created_at, updated_at
		FROM daily_stock WHERE date=$1::date AND cantidad_disponible > 0`,
		date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e := Entry{Date: date}
		if err := rows.Scan(&e.ProductID, &e.Quantity, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// AllForDate is the admin editor's listing: every ledger row for the day,
// zero quantities included.
func (r *Repo) AllForDate(ctx context.Context, date string) ([]Entry, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT product_id, cantidad_disponible, created_at, updated_at
		FROM daily_stock WHERE date=$1::date`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e := Entry{Date: date}
		if err := rows.Scan(&e.ProductID, &e.Quantity, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Upsert sets the absolute available quantity for a product/date. Idempotent
// under retry: the same call twice leaves the same stored value. Negative
// quantities are clamped to 0 rather than rejected.
func (r *Repo) Upsert(ctx context.Context, productID, date string, quantity int) (Entry, error) {
	e := Entry{ProductID: productID, Date: date, Quantity: Clamp(quantity)}
	err := r.DB.QueryRow(ctx, `
		INSERT INTO daily_stock(product_id, date, cantidad_disponible)
		VALUES ($1, $2::date, $3)
		ON CONFLICT (product_id, date)
		DO UPDATE SET cantidad_disponible = EXCLUDED.cantidad_disponible, updated_at = now()
		RETURNING created_at, updated_at`,
		productID, date, e.Quantity).Scan(&e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// DecrementTx claims amount units inside the caller's transaction. The row
// is locked FOR UPDATE so concurrent commits serialize on it; a short row
// fails the whole transaction with an OversoldError carrying what actually
// remains. Returns the quantity left after the claim.
func DecrementTx(ctx context.Context, tx pgx.Tx, productID, date string, amount int) (int, error) {
	var current int
	err := tx.QueryRow(ctx, `
		SELECT cantidad_disponible FROM daily_stock
		WHERE product_id=$1 AND date=$2::date FOR UPDATE`,
		productID, date).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	if current < amount {
		return current, &OversoldError{ProductID: productID, Date: date, Requested: amount, Available: current}
	}
	_, err = tx.Exec(ctx, `
		UPDATE daily_stock SET cantidad_disponible = cantidad_disponible - $3, updated_at = now()
		WHERE product_id=$1 AND date=$2::date`,
		productID, date, amount)
	if err != nil {
		return 0, err
	}
	return current - amount, nil
}
