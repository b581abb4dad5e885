package stock

import (
	"errors"
	"fmt"
	"time"
)

// Entry is the per-(product, date) count of units not yet claimed by any
// reservation. Absence of an entry means the product is not offered that
// date, which is not the same thing as an entry at 0, though both render
// as "not reservable".
type Entry struct {
	ProductID string    `json:"product_id"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var ErrNotFound = errors.New("stock entry not found")

// OversoldError reports a decrement that asked for more units than remain.
type OversoldError struct {
	ProductID string
	Date      string
	Requested int
	Available int
}

func (e *OversoldError) Error() string {
	return fmt.Sprintf("oversold: product %s on %s: requested %d, available %d",
		e.ProductID, e.Date, e.Requested, e.Available)
}

// Clamp maps admin input onto a storable quantity. Negative input is a
// typing artifact, not an error: it stores as 0.
func Clamp(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
