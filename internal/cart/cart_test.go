package cart

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncrementCapsAtRemaining(t *testing.T) {
	c := New("2024-06-01")
	for i := 0; i < 10; i++ {
		c.Increment("p1", "Pan rústico", 350, 3)
	}
	assert.Equal(t, 3, c.Entries["p1"].Qty)
	assert.Equal(t, 3*350, c.TotalCents())
}

func TestDecrementRemovesAtZero(t *testing.T) {
	c := New("2024-06-01")
	c.Increment("p1", "Pan rústico", 350, 5)
	c.Decrement("p1")
	_, ok := c.Entries["p1"]
	assert.False(t, ok)
	assert.True(t, c.Empty())

	// decrementing an absent product is a no-op
	c.Decrement("p1")
	assert.True(t, c.Empty())
}

func TestSetQuantityClamps(t *testing.T) {
	c := New("2024-06-01")

	c.SetQuantity("p1", "Baguette", 280, 4, 99)
	assert.Equal(t, 4, c.Entries["p1"].Qty)

	c.SetQuantity("p1", "Baguette", 280, 4, -2)
	_, ok := c.Entries["p1"]
	assert.False(t, ok, "zero or negative removes the entry")

	c.SetQuantity("p1", "Baguette", 280, 0, 1)
	_, ok = c.Entries["p1"]
	assert.False(t, ok, "no remaining stock means no entry")
}

func TestTotalRecomputed(t *testing.T) {
	c := New("2024-06-01")
	c.Increment("p1", "Pan rústico", 350, 5)
	c.Increment("p2", "Baguette", 280, 5)
	assert.Equal(t, 630, c.TotalCents())

	c.Increment("p1", "Pan rústico", 350, 5)
	assert.Equal(t, 980, c.TotalCents())

	c.Decrement("p2")
	assert.Equal(t, 700, c.TotalCents())
}

// The cart bound invariant: after any sequence of operations, every entry
// holds qty <= remaining.
func TestBoundInvariantUnderRandomOps(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	products := []struct {
		id        string
		price     int
		remaining int
	}{
		{"p1", 350, 3}, {"p2", 280, 0}, {"p3", 1200, 7},
	}

	c := New("2024-06-01")
	for i := 0; i < 500; i++ {
		p := products[rng.Intn(len(products))]
		switch rng.Intn(3) {
		case 0:
			c.Increment(p.id, p.id, p.price, p.remaining)
		case 1:
			c.Decrement(p.id)
		case 2:
			c.SetQuantity(p.id, p.id, p.price, p.remaining, rng.Intn(12)-2)
		}
		for _, e := range c.Entries {
			require.LessOrEqual(t, e.Qty, e.Remaining, "op %d", i)
			require.Positive(t, e.Qty)
		}
	}
}

func TestLinesStableOrderAndContent(t *testing.T) {
	c := New("2024-06-01")
	c.SetQuantity("p2", "Pan rústico", 350, 9, 2)
	c.SetQuantity("p1", "Baguette", 280, 9, 3)

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "p1", lines[0].ProductID) // Baguette sorts first
	assert.Equal(t, 3, lines[0].Qty)
	assert.Equal(t, "p2", lines[1].ProductID)
	assert.Equal(t, 2, lines[1].Qty)
}
