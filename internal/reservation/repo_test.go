package reservation_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lahorneada/bakery-api/internal/catalog"
	"github.com/lahorneada/bakery-api/internal/reservation"
	"github.com/lahorneada/bakery-api/internal/stock"
)

// These tests need a PostgreSQL with db/schema.sql applied. Set
// TEST_POSTGRES_DSN to run them; they skip otherwise.
func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		t.Skipf("postgres not reachable: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func seedProduct(t *testing.T, db *pgxpool.Pool, name string, priceCents int) catalog.Product {
	t.Helper()
	repo := &catalog.Repo{DB: db}
	p, err := repo.Create(context.Background(), catalog.Product{
		Name:       name,
		Slug:       catalog.Slugify(name) + "-" + uuid.NewString()[:8],
		PriceCents: priceCents,
		Category:   catalog.CategoryBread,
		Active:     true,
	}, false)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = db.Exec(context.Background(), `DELETE FROM products WHERE id=$1`, p.ID)
	})
	return p
}

func cleanupReservations(t *testing.T, db *pgxpool.Pool, userID string) {
	t.Cleanup(func() {
		_, _ = db.Exec(context.Background(), `DELETE FROM reservations WHERE user_id=$1`, userID)
	})
}

const testDate = "2024-06-01"

func TestUpsertIdempotentAndClamped(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	p := seedProduct(t, db, "Pan de centeno", 420)
	ledger := &stock.Repo{DB: db}

	_, err := ledger.Upsert(ctx, p.ID, testDate, 7)
	require.NoError(t, err)
	_, err = ledger.Upsert(ctx, p.ID, testDate, 7)
	require.NoError(t, err)

	e, err := ledger.GetEntry(ctx, p.ID, testDate)
	require.NoError(t, err)
	assert.Equal(t, 7, e.Quantity, "upserting twice must not accumulate")

	_, err = ledger.Upsert(ctx, p.ID, testDate, -5)
	require.NoError(t, err)
	e, err = ledger.GetEntry(ctx, p.ID, testDate)
	require.NoError(t, err)
	assert.Equal(t, 0, e.Quantity, "negative input stores as 0")
}

func TestCommitProtocol(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	p := seedProduct(t, db, "Pan rústico", 350)
	ledger := &stock.Repo{DB: db}
	repo := &reservation.Repo{DB: db}
	userID := "user-" + uuid.NewString()
	cleanupReservations(t, db, userID)

	_, err := ledger.Upsert(ctx, p.ID, testDate, 5)
	require.NoError(t, err)

	res, existed, err := repo.Create(ctx, reservation.CreateInput{
		UserID:     userID,
		PickupDate: testDate,
		Timeslot:   "09:00-10:00",
		Lines:      []reservation.Line{{ProductID: p.ID, Qty: 3}},
	})
	require.NoError(t, err)
	assert.False(t, existed)
	assert.Equal(t, reservation.StatusPending, res.Status)
	require.Len(t, res.Items, 1)
	assert.Equal(t, 3, res.Items[0].Qty)
	assert.Equal(t, 350, res.Items[0].UnitPriceCents)
	assert.Equal(t, 3*350, res.Items[0].SubtotalCents)
	assert.Equal(t, 3*350, res.TotalCents)

	e, err := ledger.GetEntry(ctx, p.ID, testDate)
	require.NoError(t, err)
	assert.Equal(t, 2, e.Quantity)

	// total equals the sum of item subtotals on the read path too
	got, err := repo.GetByCode(ctx, res.Code)
	require.NoError(t, err)
	sum := 0
	for _, it := range got.Items {
		sum += it.SubtotalCents
	}
	assert.Equal(t, got.TotalCents, sum)
}

func TestConcurrentOversellAttempts(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	p := seedProduct(t, db, "Hogaza", 500)
	ledger := &stock.Repo{DB: db}
	repo := &reservation.Repo{DB: db}
	userID := "user-" + uuid.NewString()
	cleanupReservations(t, db, userID)

	_, err := ledger.Upsert(ctx, p.ID, testDate, 5)
	require.NoError(t, err)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = repo.Create(ctx, reservation.CreateInput{
				UserID:     userID,
				PickupDate: testDate,
				Lines:      []reservation.Line{{ProductID: p.ID, Qty: 4}},
			})
		}(i)
	}
	wg.Wait()

	succeeded, oversold := 0, 0
	for _, err := range errs {
		var ov *reservation.OversoldError
		switch {
		case err == nil:
			succeeded++
		case errors.As(err, &ov):
			oversold++
			require.Len(t, ov.Details, 1)
			assert.Equal(t, 1, ov.Details[0].Available)
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one of the two concurrent commits wins")
	assert.Equal(t, 1, oversold)

	e, err := ledger.GetEntry(ctx, p.ID, testDate)
	require.NoError(t, err)
	assert.Equal(t, 1, e.Quantity, "5 - 4 reserved; never negative")
}

func TestCancelDoesNotRestock(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	p := seedProduct(t, db, "Concha", 250)
	ledger := &stock.Repo{DB: db}
	repo := &reservation.Repo{DB: db}
	userID := "user-" + uuid.NewString()
	cleanupReservations(t, db, userID)

	_, err := ledger.Upsert(ctx, p.ID, testDate, 5)
	require.NoError(t, err)

	res, _, err := repo.Create(ctx, reservation.CreateInput{
		UserID:     userID,
		PickupDate: testDate,
		Lines:      []reservation.Line{{ProductID: p.ID, Qty: 2}},
	})
	require.NoError(t, err)

	cancelled, err := repo.Cancel(ctx, res.Code, userID)
	require.NoError(t, err)
	assert.Equal(t, reservation.StatusCancelled, cancelled.Status)

	// cancelling is a status change only: the ledger keeps its decrement
	e, err := ledger.GetEntry(ctx, p.ID, testDate)
	require.NoError(t, err)
	assert.Equal(t, 3, e.Quantity)

	_, err = repo.Cancel(ctx, res.Code, userID)
	assert.ErrorIs(t, err, reservation.ErrNotPending)

	_, err = repo.Cancel(ctx, res.Code, "someone-else")
	assert.ErrorIs(t, err, reservation.ErrNotOwner)
}

func TestResubmitSameRequestID(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	p := seedProduct(t, db, "Bolillo", 120)
	ledger := &stock.Repo{DB: db}
	repo := &reservation.Repo{DB: db}
	userID := "user-" + uuid.NewString()
	cleanupReservations(t, db, userID)

	_, err := ledger.Upsert(ctx, p.ID, testDate, 10)
	require.NoError(t, err)

	in := reservation.CreateInput{
		RequestID:  uuid.NewString(),
		UserID:     userID,
		PickupDate: testDate,
		Lines:      []reservation.Line{{ProductID: p.ID, Qty: 2}},
	}
	first, existed, err := repo.Create(ctx, in)
	require.NoError(t, err)
	assert.False(t, existed)

	second, existed, err := repo.Create(ctx, in)
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, first.Code, second.Code)

	e, err := ledger.GetEntry(ctx, p.ID, testDate)
	require.NoError(t, err)
	assert.Equal(t, 8, e.Quantity, "stock decremented once, not twice")
}

func TestReservedTotalsExcludesCancelled(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	p := seedProduct(t, db, "Trenza", 600)
	ledger := &stock.Repo{DB: db}
	repo := &reservation.Repo{DB: db}
	userID := "user-" + uuid.NewString()
	cleanupReservations(t, db, userID)

	_, err := ledger.Upsert(ctx, p.ID, testDate, 10)
	require.NoError(t, err)

	_, _, err = repo.Create(ctx, reservation.CreateInput{
		UserID: userID, PickupDate: testDate,
		Lines: []reservation.Line{{ProductID: p.ID, Qty: 3}},
	})
	require.NoError(t, err)

	toCancel, _, err := repo.Create(ctx, reservation.CreateInput{
		UserID: userID, PickupDate: testDate,
		Lines: []reservation.Line{{ProductID: p.ID, Qty: 2}},
	})
	require.NoError(t, err)
	_, err = repo.Cancel(ctx, toCancel.Code, userID)
	require.NoError(t, err)

	committed, err := repo.ReservedTotals(ctx, testDate, false)
	require.NoError(t, err)
	assert.Equal(t, 3, committed[p.ID])

	all, err := repo.ReservedTotals(ctx, testDate, true)
	require.NoError(t, err)
	assert.Equal(t, 5, all[p.ID], "audit variant keeps cancelled, matching ledger movements")
}
