package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lahorneada/bakery-api/internal/redisx"
)

// Store keeps one cart per user in Redis with a session TTL. The cart is a
// browser-session artifact, so losing it to expiry is acceptable.
type Store struct{ Redis *redis.Client }

func (s *Store) Load(ctx context.Context, userID string) (*Cart, error) {
	key := fmt.Sprintf(redisx.KeyCart, userID)
	raw, err := s.Redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var c Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, err
	}
	if c.Entries == nil {
		c.Entries = map[string]Entry{}
	}
	return &c, nil
}

func (s *Store) Save(ctx context.Context, userID string, c *Cart) error {
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	key := fmt.Sprintf(redisx.KeyCart, userID)
	return s.Redis.Set(ctx, key, b, redisx.TTLCart).Err()
}

func (s *Store) Clear(ctx context.Context, userID string) error {
	return s.Redis.Del(ctx, fmt.Sprintf(redisx.KeyCart, userID)).Err()
}
