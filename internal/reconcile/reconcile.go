// Package reconcile is the audit side of stock accounting. Live
// availability is the ledger alone; this worker cross-checks it after the
// fact and logs anything inconsistent. It repairs nothing: a partial
// commit is an incident to look at, not a state to paper over.
package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/lahorneada/bakery-api/internal/events"
	"github.com/lahorneada/bakery-api/internal/redisx"
	"github.com/lahorneada/bakery-api/internal/reservation"
)

type Service struct {
	Repo        *reservation.Repo
	Redis       *redis.Client
	ServiceName string
}

// HandleReservationCreated re-reads a freshly committed reservation and
// checks the commit left a consistent picture: items present, stored total
// equal to the item sum. The commit transaction should make failures here
// impossible; hits mean an out-of-band writer.
func (s *Service) HandleReservationCreated(ctx context.Context, m kafkago.Message) error {
	var env events.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != events.EventReservationCreated {
		return nil
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, "reconcile", env.EventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	var p events.ReservationCreatedPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return err
	}

	res, err := s.Repo.GetByCode(ctx, p.Code)
	if err != nil {
		return err
	}
	if len(res.Items) == 0 {
		log.Printf("PARTIAL COMMIT: reservation %s has a header but no items", res.Code)
		return nil
	}
	sum := 0
	for _, it := range res.Items {
		sum += it.SubtotalCents
		if it.SubtotalCents != it.Qty*it.UnitPriceCents {
			log.Printf("PARTIAL COMMIT: reservation %s item %s subtotal %d != %d*%d",
				res.Code, it.ID, it.SubtotalCents, it.Qty, it.UnitPriceCents)
		}
	}
	if sum != res.TotalCents {
		log.Printf("PARTIAL COMMIT: reservation %s total %d != item sum %d", res.Code, res.TotalCents, sum)
	}
	return nil
}

// RunAudit sweeps one pickup date: orphan headers, total mismatches, and
// the aggregate commitment per product (cancelled included, because
// cancellation never restores the ledger).
func (s *Service) RunAudit(ctx context.Context, date string) error {
	orphans, err := s.Repo.OrphanHeaders(ctx, date)
	if err != nil {
		return err
	}
	for _, code := range orphans {
		log.Printf("PARTIAL COMMIT: orphan reservation header %s on %s", code, date)
	}

	mismatches, err := s.Repo.TotalMismatches(ctx, date)
	if err != nil {
		return err
	}
	for _, code := range mismatches {
		log.Printf("PARTIAL COMMIT: total mismatch on reservation %s (%s)", code, date)
	}

	totals, err := s.Repo.ReservedTotals(ctx, date, true)
	if err != nil {
		return err
	}
	log.Printf("audit %s: %d product(s) with committed units, %d orphan(s), %d mismatch(es)",
		date, len(totals), len(orphans), len(mismatches))
	return nil
}

// RunLoop audits today on a ticker until the context ends.
func (s *Service) RunLoop(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			date := time.Now().UTC().Format("2006-01-02")
			if err := s.RunAudit(ctx, date); err != nil {
				log.Printf("audit %s: %v", date, err)
			}
		}
	}
}
