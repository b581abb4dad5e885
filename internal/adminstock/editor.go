// Package adminstock backs the admin's per-day stock editing surface with
// a small state machine: Idle → Editing → Saving → Saved or Error. Writes
// that would store the value already on the server are skipped outright.
package adminstock

import (
	"context"
	"errors"

	"github.com/lahorneada/bakery-api/internal/stock"
)

type State string

const (
	StateIdle    State = "IDLE"
	StateEditing State = "EDITING"
	StateSaving  State = "SAVING"
	StateSaved   State = "SAVED"
	StateError   State = "ERROR"
)

type Ledger interface {
	GetEntry(ctx context.Context, productID, date string) (stock.Entry, error)
	Upsert(ctx context.Context, productID, date string, quantity int) (stock.Entry, error)
}

// Editor tracks one (product, date) cell. Set accumulates keystrokes
// locally; Flush commits on blur/confirm.
type Editor struct {
	ledger    Ledger
	productID string
	date      string

	state     State
	local     int
	lastSaved int
	hasSaved  bool // server value known
	lastErr   error
}

func NewEditor(ledger Ledger, productID, date string) *Editor {
	return &Editor{ledger: ledger, productID: productID, date: date, state: StateIdle}
}

// Load pulls the current server value. A missing ledger row is a blank
// cell, not an error.
func (e *Editor) Load(ctx context.Context) error {
	entry, err := e.ledger.GetEntry(ctx, e.productID, e.date)
	if errors.Is(err, stock.ErrNotFound) {
		e.hasSaved = false
		e.local = 0
		e.state = StateIdle
		return nil
	}
	if err != nil {
		e.lastErr = err
		e.state = StateError
		return err
	}
	e.lastSaved = entry.Quantity
	e.hasSaved = true
	e.local = entry.Quantity
	e.state = StateIdle
	return nil
}

// Set records a local edit. Negative input clamps to 0. Setting the value
// back to what the server holds returns the editor to Idle.
func (e *Editor) Set(n int) {
	e.local = stock.Clamp(n)
	if e.hasSaved && e.local == e.lastSaved {
		e.state = StateIdle
		return
	}
	e.state = StateEditing
}

// Flush commits the pending edit. Unchanged values skip the write; the
// upsert itself is idempotent, so a retry after an error is always safe.
func (e *Editor) Flush(ctx context.Context) error {
	if e.state != StateEditing {
		return nil
	}
	e.state = StateSaving
	entry, err := e.ledger.Upsert(ctx, e.productID, e.date, e.local)
	if err != nil {
		e.lastErr = err
		e.state = StateError
		return err
	}
	e.lastSaved = entry.Quantity
	e.hasSaved = true
	e.local = entry.Quantity
	e.state = StateSaved
	return nil
}

func (e *Editor) State() State { return e.state }
func (e *Editor) Value() int   { return e.local }
func (e *Editor) Err() error   { return e.lastErr }

// Ack moves Saved back to Idle once the UI has shown its success tick.
func (e *Editor) Ack() {
	if e.state == StateSaved {
		e.state = StateIdle
	}
}
