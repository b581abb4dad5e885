package adminstock

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lahorneada/bakery-api/internal/stock"
)

type fakeLedger struct {
	entries map[string]int // productID|date -> qty
	upserts int
	fail    error
}

func key(productID, date string) string { return productID + "|" + date }

func (f *fakeLedger) GetEntry(ctx context.Context, productID, date string) (stock.Entry, error) {
	q, ok := f.entries[key(productID, date)]
	if !ok {
		return stock.Entry{}, stock.ErrNotFound
	}
	return stock.Entry{ProductID: productID, Date: date, Quantity: q}, nil
}

func (f *fakeLedger) Upsert(ctx context.Context, productID, date string, quantity int) (stock.Entry, error) {
	if f.fail != nil {
		return stock.Entry{}, f.fail
	}
	f.upserts++
	q := stock.Clamp(quantity)
	f.entries[key(productID, date)] = q
	return stock.Entry{ProductID: productID, Date: date, Quantity: q}, nil
}

func newFake(initial map[string]int) *fakeLedger {
	if initial == nil {
		initial = map[string]int{}
	}
	return &fakeLedger{entries: initial}
}

func TestEditorSaveFlow(t *testing.T) {
	ledger := newFake(map[string]int{key("p1", "2024-06-01"): 5})
	ed := NewEditor(ledger, "p1", "2024-06-01")
	ctx := context.Background()

	require.NoError(t, ed.Load(ctx))
	assert.Equal(t, StateIdle, ed.State())
	assert.Equal(t, 5, ed.Value())

	ed.Set(8)
	assert.Equal(t, StateEditing, ed.State())

	require.NoError(t, ed.Flush(ctx))
	assert.Equal(t, StateSaved, ed.State())
	assert.Equal(t, 8, ledger.entries[key("p1", "2024-06-01")])
	assert.Equal(t, 1, ledger.upserts)

	ed.Ack()
	assert.Equal(t, StateIdle, ed.State())
}

func TestEditorSkipsUnchangedValue(t *testing.T) {
	ledger := newFake(map[string]int{key("p1", "2024-06-01"): 5})
	ed := NewEditor(ledger, "p1", "2024-06-01")
	ctx := context.Background()

	require.NoError(t, ed.Load(ctx))
	ed.Set(5) // same as server
	assert.Equal(t, StateIdle, ed.State())
	require.NoError(t, ed.Flush(ctx))
	assert.Equal(t, 0, ledger.upserts, "unchanged value must not write")
}

func TestEditorClampsNegativeInput(t *testing.T) {
	ledger := newFake(map[string]int{key("p1", "2024-06-01"): 5})
	ed := NewEditor(ledger, "p1", "2024-06-01")
	ctx := context.Background()

	require.NoError(t, ed.Load(ctx))
	ed.Set(-5)
	assert.Equal(t, 0, ed.Value())
	require.NoError(t, ed.Flush(ctx))
	assert.Equal(t, 0, ledger.entries[key("p1", "2024-06-01")])
}

func TestEditorMissingRowIsBlankNotError(t *testing.T) {
	ledger := newFake(nil)
	ed := NewEditor(ledger, "p1", "2024-06-01")
	ctx := context.Background()

	require.NoError(t, ed.Load(ctx))
	assert.Equal(t, StateIdle, ed.State())

	ed.Set(12)
	require.NoError(t, ed.Flush(ctx))
	assert.Equal(t, 12, ledger.entries[key("p1", "2024-06-01")])
}

func TestEditorErrorKeepsValueEditable(t *testing.T) {
	ledger := newFake(map[string]int{key("p1", "2024-06-01"): 5})
	ed := NewEditor(ledger, "p1", "2024-06-01")
	ctx := context.Background()

	require.NoError(t, ed.Load(ctx))
	ed.Set(9)
	ledger.fail = errors.New("backend down")
	require.Error(t, ed.Flush(ctx))
	assert.Equal(t, StateError, ed.State())
	assert.Equal(t, 9, ed.Value(), "local value survives a failed save")

	// retry after the backend recovers
	ledger.fail = nil
	ed.Set(9)
	require.NoError(t, ed.Flush(ctx))
	assert.Equal(t, StateSaved, ed.State())
	assert.Equal(t, 9, ledger.entries[key("p1", "2024-06-01")])
}
