// Package cart is the ephemeral staging area for a reservation in
// progress. It enforces the stock bound on every mutation, but only as a
// UI-level guard: the authoritative check is the row lock inside the
// reservation commit transaction.
package cart

import (
	"sort"

	"github.com/lahorneada/bakery-api/internal/reservation"
)

// Entry carries the display/price snapshot taken when the product entered
// the cart, plus the remaining stock known at that moment. Qty never
// exceeds Remaining.
type Entry struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	UnitPriceCents int    `json:"unit_price_cents"`
	Remaining      int    `json:"remaining"`
	Qty            int    `json:"qty"`
}

type Cart struct {
	PickupDate string           `json:"pickup_date"`
	Entries    map[string]Entry `json:"entries"`
}

func New(pickupDate string) *Cart {
	return &Cart{PickupDate: pickupDate, Entries: map[string]Entry{}}
}

// Increment adds one unit, creating the entry on first touch. At the known
// remaining stock it is a silent no-op, not an error.
func (c *Cart) Increment(productID, name string, unitPriceCents, remaining int) {
	e, ok := c.Entries[productID]
	if !ok {
		e = Entry{ProductID: productID, Name: name, UnitPriceCents: unitPriceCents, Remaining: remaining}
	}
	if e.Qty >= e.Remaining {
		return
	}
	e.Qty++
	c.Entries[productID] = e
}

// Decrement removes one unit; at zero the entry disappears entirely.
func (c *Cart) Decrement(productID string) {
	e, ok := c.Entries[productID]
	if !ok {
		return
	}
	e.Qty--
	if e.Qty <= 0 {
		delete(c.Entries, productID)
		return
	}
	c.Entries[productID] = e
}

// SetQuantity clamps n into [0, remaining]; 0 removes the entry.
func (c *Cart) SetQuantity(productID, name string, unitPriceCents, remaining, n int) {
	e, ok := c.Entries[productID]
	if !ok {
		e = Entry{ProductID: productID, Name: name, UnitPriceCents: unitPriceCents, Remaining: remaining}
	}
	e.Remaining = remaining
	if n > e.Remaining {
		n = e.Remaining
	}
	if n <= 0 {
		delete(c.Entries, productID)
		return
	}
	e.Qty = n
	c.Entries[productID] = e
}

// TotalCents is recomputed on every call; nothing caches it.
func (c *Cart) TotalCents() int {
	total := 0
	for _, e := range c.Entries {
		total += e.Qty * e.UnitPriceCents
	}
	return total
}

func (c *Cart) Empty() bool { return len(c.Entries) == 0 }

// Lines flattens the cart for submission, ordered by name for stable
// output. Prices are not carried over: the commit protocol re-reads them.
func (c *Cart) Lines() []reservation.Line {
	entries := make([]Entry, 0, len(c.Entries))
	for _, e := range c.Entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].ProductID < entries[j].ProductID
	})
	lines := make([]reservation.Line, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, reservation.Line{ProductID: e.ProductID, Qty: e.Qty})
	}
	return lines
}
