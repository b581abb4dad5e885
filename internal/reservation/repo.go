package reservation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lahorneada/bakery-api/internal/stock"
)

type Repo struct{ DB *pgxpool.Pool }

// Create runs the whole commit protocol in one transaction: insert the
// header, insert the items with price snapshots re-read from the catalog,
// and claim the stock with row locks. Either everything lands or nothing
// does; a partial commit cannot persist.
//
// Idempotent via request id: resubmitting the same request id returns the
// reservation created the first time (existed=true) without touching stock
// again.
func (r *Repo) Create(ctx context.Context, in CreateInput) (res Reservation, existed bool, err error) {
	if in.UserID == "" || in.PickupDate == "" || len(in.Lines) == 0 {
		return Reservation{}, false, fmt.Errorf("%w: user, pickup date and at least one line are required", ErrBadRequest)
	}
	for _, l := range in.Lines {
		if l.Qty <= 0 {
			return Reservation{}, false, fmt.Errorf("%w: qty must be positive for product %s", ErrBadRequest, l.ProductID)
		}
	}

	if in.RequestID != "" {
		var code string
		err := r.DB.QueryRow(ctx,
			`SELECT code FROM reservations WHERE request_id=$1`, in.RequestID).Scan(&code)
		if err == nil {
			res, err := r.GetByCode(ctx, code)
			return res, true, err
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return Reservation{}, false, err
		}
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Reservation{}, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// price and name snapshots come from the catalog, never from the client
	ids := make([]string, 0, len(in.Lines))
	for _, l := range in.Lines {
		ids = append(ids, l.ProductID)
	}
	rows, err := tx.Query(ctx,
		`SELECT id, name, price_cents FROM products WHERE id = ANY($1) AND active = true`, ids)
	if err != nil {
		return Reservation{}, false, err
	}
	type snap struct {
		name  string
		price int
	}
	snaps := make(map[string]snap, len(ids))
	for rows.Next() {
		var id string
		var s snap
		if err := rows.Scan(&id, &s.name, &s.price); err != nil {
			rows.Close()
			return Reservation{}, false, err
		}
		snaps[id] = s
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Reservation{}, false, err
	}

	total := 0
	items := make([]Item, 0, len(in.Lines))
	for _, l := range in.Lines {
		s, ok := snaps[l.ProductID]
		if !ok {
			return Reservation{}, false, fmt.Errorf("%w: product %s is not available", ErrBadRequest, l.ProductID)
		}
		sub := l.Qty * s.price
		total += sub
		pid := l.ProductID
		items = append(items, Item{
			ID:             uuid.NewString(),
			ProductID:      &pid,
			Name:           s.name,
			Qty:            l.Qty,
			UnitPriceCents: s.price,
			SubtotalCents:  sub,
		})
	}

	res = Reservation{
		ID:         uuid.NewString(),
		Code:       NewCode(),
		UserID:     in.UserID,
		PickupDate: in.PickupDate,
		Timeslot:   in.Timeslot,
		Status:     StatusPending,
		Notes:      in.Notes,
		TotalCents: total,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO reservations(id, code, request_id, user_id, pickup_date, pickup_timeslot, status, notes, total_cents)
		VALUES ($1,$2,NULLIF($3,''),$4,$5::date,$6,$7,$8,$9)
		RETURNING created_at, updated_at`,
		res.ID, res.Code, in.RequestID, res.UserID, res.PickupDate, res.Timeslot,
		res.Status, res.Notes, res.TotalCents).Scan(&res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return Reservation{}, false, err
	}

	for i := range items {
		items[i].ReservationID = res.ID
		_, err = tx.Exec(ctx, `
			INSERT INTO reservation_items(id, reservation_id, product_id, name, qty, unit_price_cents, subtotal_cents)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			items[i].ID, res.ID, items[i].ProductID, items[i].Name,
			items[i].Qty, items[i].UnitPriceCents, items[i].SubtotalCents)
		if err != nil {
			return Reservation{}, false, err
		}
	}

	// claim stock last; any short line rolls the whole thing back
	var shorts []*stock.OversoldError
	for _, it := range items {
		_, err := stock.DecrementTx(ctx, tx, *it.ProductID, res.PickupDate, it.Qty)
		if err == nil {
			continue
		}
		var ov *stock.OversoldError
		if errors.As(err, &ov) {
			shorts = append(shorts, ov)
			continue
		}
		if errors.Is(err, stock.ErrNotFound) {
			shorts = append(shorts, &stock.OversoldError{
				ProductID: *it.ProductID, Date: res.PickupDate, Requested: it.Qty, Available: 0,
			})
			continue
		}
		return Reservation{}, false, err
	}
	if len(shorts) > 0 {
		return Reservation{}, false, &OversoldError{Details: shorts} // rollback via defer
	}

	if err := tx.Commit(ctx); err != nil {
		return Reservation{}, false, err
	}
	res.Items = items
	return res, false, nil
}

// Cancel flips an owner's PENDING reservation to CANCELLED. Stock is not
// restored: whether cancelled goods go back on sale is a staff decision
// made through the stock editor.
func (r *Repo) Cancel(ctx context.Context, code, userID string) (Reservation, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE reservations SET status=$3, updated_at=now()
		WHERE code=$1 AND user_id=$2 AND status=$4`,
		code, userID, StatusCancelled, StatusPending)
	if err != nil {
		return Reservation{}, err
	}
	if ct.RowsAffected() == 1 {
		return r.GetByCode(ctx, code)
	}

	// nothing updated: find out which precondition failed
	var owner string
	var status Status
	err = r.DB.QueryRow(ctx,
		`SELECT user_id, status FROM reservations WHERE code=$1`, code).Scan(&owner, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return Reservation{}, ErrNotFound
	}
	if err != nil {
		return Reservation{}, err
	}
	if owner != userID {
		return Reservation{}, ErrNotOwner
	}
	return Reservation{}, ErrNotPending
}

// SetStatus is the staff transition (PENDING→PREPARED→PICKED_UP), gated by
// the same state machine customers' cancel goes through.
func (r *Repo) SetStatus(ctx context.Context, code string, to Status) (Reservation, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Reservation{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var from Status
	err = tx.QueryRow(ctx,
		`SELECT status FROM reservations WHERE code=$1 FOR UPDATE`, code).Scan(&from)
	if errors.Is(err, pgx.ErrNoRows) {
		return Reservation{}, ErrNotFound
	}
	if err != nil {
		return Reservation{}, err
	}
	if !CanTransition(from, to) {
		return Reservation{}, fmt.Errorf("%w: cannot go %s -> %s", ErrBadRequest, from, to)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE reservations SET status=$2, updated_at=now() WHERE code=$1`, code, to); err != nil {
		return Reservation{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Reservation{}, err
	}
	return r.GetByCode(ctx, code)
}

const reservationCols = `id, code, user_id, pickup_date::text, pickup_timeslot, status, notes, total_cents, created_at, updated_at`

func scanReservation(row pgx.Row) (Reservation, error) {
	var res Reservation
	err := row.Scan(&res.ID, &res.Code, &res.UserID, &res.PickupDate, &res.Timeslot,
		&res.Status, &res.Notes, &res.TotalCents, &res.CreatedAt, &res.UpdatedAt)
	return res, err
}

func (r *Repo) GetByCode(ctx context.Context, code string) (Reservation, error) {
	res, err := scanReservation(r.DB.QueryRow(ctx,
		`SELECT `+reservationCols+` FROM reservations WHERE code=$1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return Reservation{}, ErrNotFound
	}
	if err != nil {
		return Reservation{}, err
	}

	rows, err := r.DB.Query(ctx, `
		SELECT id, reservation_id, product_id, name, qty, unit_price_cents, subtotal_cents
		FROM reservation_items WHERE reservation_id=$1 ORDER BY name`, res.ID)
	if err != nil {
		return Reservation{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.ReservationID, &it.ProductID, &it.Name,
			&it.Qty, &it.UnitPriceCents, &it.SubtotalCents); err != nil {
			return Reservation{}, err
		}
		res.Items = append(res.Items, it)
	}
	return res, rows.Err()
}

func (r *Repo) ListByUser(ctx context.Context, userID string) ([]Reservation, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+reservationCols+` FROM reservations
		WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
