// Package availability builds the reservable-product list for a pickup
// date: ledger rows with units remaining, joined against active catalog
// products. The ledger quantity IS the remaining quantity — it was
// decremented when reservations committed — so no aggregation happens on
// this path.
package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/lahorneada/bakery-api/internal/catalog"
	"github.com/lahorneada/bakery-api/internal/redisx"
	"github.com/lahorneada/bakery-api/internal/retry"
	"github.com/lahorneada/bakery-api/internal/stock"
)

type StockReader interface {
	EntriesForDate(ctx context.Context, date string) ([]stock.Entry, error)
}

type ProductReader interface {
	ByIDs(ctx context.Context, ids []string) (map[string]catalog.Product, error)
}

type Item struct {
	Product   catalog.Product `json:"product"`
	Remaining int             `json:"remaining"`
}

type View struct {
	Stock    StockReader
	Products ProductReader
	Redis    *redis.Client // nil disables caching
}

// ForDate returns the day's reservable products sorted by name with the
// menu's locale collation. No ledger rows is an empty day, not an error.
// Ledger rows whose product was deleted or deactivated drop out of the
// join silently.
func (v *View) ForDate(ctx context.Context, date string) ([]Item, error) {
	if v.Redis != nil {
		key := fmt.Sprintf(redisx.KeyAvailability, date)
		if s, err := v.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			var cached []Item
			if json.Unmarshal([]byte(s), &cached) == nil {
				return cached, nil
			}
		}
	}

	var entries []stock.Entry
	err := retry.Do(ctx, retry.DefaultAttempts, 150*time.Millisecond, func(ctx context.Context) error {
		var err error
		entries, err = v.Stock.EntriesForDate(ctx, date)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return []Item{}, nil
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ProductID)
	}
	var products map[string]catalog.Product
	err = retry.Do(ctx, retry.DefaultAttempts, 150*time.Millisecond, func(ctx context.Context) error {
		var err error
		products, err = v.Products.ByIDs(ctx, ids)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]Item, 0, len(entries))
	for _, e := range entries {
		if e.Quantity <= 0 {
			continue
		}
		p, ok := products[e.ProductID]
		if !ok || !p.Active {
			continue
		}
		out = append(out, Item{Product: p, Remaining: e.Quantity})
	}

	coll := collate.New(language.Spanish)
	sort.Slice(out, func(i, j int) bool {
		return coll.CompareString(out[i].Product.Name, out[j].Product.Name) < 0
	})

	if v.Redis != nil {
		if b, err := json.Marshal(out); err == nil {
			key := fmt.Sprintf(redisx.KeyAvailability, date)
			_ = v.Redis.Set(ctx, key, b, redisx.TTLAvailability).Err()
		}
	}
	return out, nil
}

// Invalidate drops the cached view for a date. Called after a reservation
// commits or an admin edits stock, so the next read sees the new ledger.
func (v *View) Invalidate(ctx context.Context, date string) {
	if v.Redis == nil {
		return
	}
	_ = v.Redis.Del(ctx, fmt.Sprintf(redisx.KeyAvailability, date)).Err()
}
