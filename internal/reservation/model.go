package reservation

import (
	"errors"
	"fmt"
	"time"

	"github.com/lahorneada/bakery-api/internal/stock"
)

type Reservation struct {
	ID         string    `json:"id"`
	Code       string    `json:"code"`
	UserID     string    `json:"user_id"`
	PickupDate string    `json:"pickup_date"` // YYYY-MM-DD
	Timeslot   string    `json:"timeslot"`
	Status     Status    `json:"status"`
	Notes      string    `json:"notes,omitempty"`
	TotalCents int       `json:"total_cents"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Items      []Item    `json:"items,omitempty"`
}

// Item snapshots name and price at booking time. ProductID is a pointer
// because the product may be deleted later; the snapshot fields keep the
// line meaningful anyway.
type Item struct {
	ID             string  `json:"id"`
	ReservationID  string  `json:"reservation_id"`
	ProductID      *string `json:"product_id,omitempty"`
	Name           string  `json:"name"`
	Qty            int     `json:"qty"`
	UnitPriceCents int     `json:"unit_price_cents"`
	SubtotalCents  int     `json:"subtotal_cents"`
}

// Line is one requested product/quantity pair from a submitted cart. Prices
// are deliberately absent: they are re-read from the catalog at commit time.
type Line struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type CreateInput struct {
	// RequestID deduplicates double submits: the same request id returns
	// the reservation created the first time.
	RequestID  string
	UserID     string
	PickupDate string
	Timeslot   string
	Notes      string
	Lines      []Line
}

var (
	ErrNotFound   = errors.New("reservation not found")
	ErrNotOwner   = errors.New("reservation belongs to another user")
	ErrNotPending = errors.New("reservation is no longer pending")
	ErrBadRequest = errors.New("invalid reservation request")
)

// OversoldError aggregates every line the ledger could not cover. Nothing
// was written: the commit transaction rolled back as a whole.
type OversoldError struct {
	Details []*stock.OversoldError
}

func (e *OversoldError) Error() string {
	return fmt.Sprintf("oversold: %d line(s) exceed remaining stock", len(e.Details))
}
