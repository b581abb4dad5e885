package reservation

import "context"

// ReservedTotals sums committed quantities per product for a pickup date.
// This is reporting/audit input only: live availability comes from the
// stock ledger, which is decremented at commit time.
//
// Cancelled reservations are excluded from the commitment report. The
// reconciler asks for them included, because cancellation does not restore
// the ledger, so ledger movements track everything ever committed.
func (r *Repo) ReservedTotals(ctx context.Context, date string, includeCancelled bool) (map[string]int, error) {
	q := `
		SELECT ri.product_id, SUM(ri.qty)
		FROM reservation_items ri
		JOIN reservations res ON res.id = ri.reservation_id
		WHERE res.pickup_date = $1::date AND ri.product_id IS NOT NULL`
	if !includeCancelled {
		q += ` AND res.status <> 'CANCELLED'`
	}
	q += ` GROUP BY ri.product_id`

	rows, err := r.DB.Query(ctx, q, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var pid string
		var sum int
		if err := rows.Scan(&pid, &sum); err != nil {
			return nil, err
		}
		out[pid] = sum
	}
	return out, rows.Err()
}

// OrphanHeaders lists reservations that have no line items at all — the
// partial-commit signature. The commit transaction makes these impossible
// from this codebase; anything found came from an out-of-band writer and
// gets logged, never silently repaired.
func (r *Repo) OrphanHeaders(ctx context.Context, date string) ([]string, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT res.code
		FROM reservations res
		LEFT JOIN reservation_items ri ON ri.reservation_id = res.id
		WHERE res.pickup_date = $1::date
		GROUP BY res.code
		HAVING COUNT(ri.id) = 0`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		out = append(out, code)
	}
	return out, rows.Err()
}

// TotalMismatches lists reservations whose stored total diverges from the
// sum of their item subtotals.
func (r *Repo) TotalMismatches(ctx context.Context, date string) ([]string, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT res.code
		FROM reservations res
		JOIN reservation_items ri ON ri.reservation_id = res.id
		WHERE res.pickup_date = $1::date
		GROUP BY res.code, res.total_cents
		HAVING res.total_cents <> SUM(ri.subtotal_cents)`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		out = append(out, code)
	}
	return out, rows.Err()
}
