package events

import (
	"encoding/json"
	"time"
)

const (
	EventReservationCreated   = "ReservationCreated"
	EventReservationCancelled = "ReservationCancelled"
	EventStockAdjusted        = "StockAdjusted"
)

const (
	TopicReservationCreated   = "reservation.created"
	TopicReservationCancelled = "reservation.cancelled"
	TopicStockAdjusted        = "stock.adjusted"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type ItemQty struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type ReservationCreatedPayload struct {
	ReservationID string    `json:"reservation_id"`
	Code          string    `json:"code"`
	UserID        string    `json:"user_id"`
	PickupDate    string    `json:"pickup_date"` // YYYY-MM-DD
	Items         []ItemQty `json:"items"`
	TotalCents    int       `json:"total_cents"`
}

type ReservationCancelledPayload struct {
	ReservationID string `json:"reservation_id"`
	Code          string `json:"code"`
	UserID        string `json:"user_id"`
	PickupDate    string `json:"pickup_date"`
}

type StockAdjustedPayload struct {
	ProductID string `json:"product_id"`
	Date      string `json:"date"`
	Quantity  int    `json:"quantity"` // absolute value after the upsert
	AdminID   string `json:"admin_id"`
}

// Reservation events partition by reservation id so one reservation's
// events stay ordered; stock events partition by product id.
func ReservationKey(id string) []byte { return []byte(id) }
func ProductKey(id string) []byte     { return []byte(id) }
