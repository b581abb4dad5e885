package redisx

import "time"

const (
	// Idempotency for reservation submit: idem:reservation:{request_id} -> code
	KeyIdemReservation = "idem:reservation:%s"

	// Cached availability view per pickup date: avail:{YYYY-MM-DD} -> JSON array
	KeyAvailability = "avail:%s"

	// Session cart: cart:{user_id} -> JSON blob
	KeyCart = "cart:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency  = 24 * time.Hour
	TTLAvailability = 30 * time.Second
	TTLCart         = 2 * time.Hour
	TTLDedup        = 48 * time.Hour
)
