package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/lahorneada/bakery-api/internal/adminstock"
	"github.com/lahorneada/bakery-api/internal/auth"
	"github.com/lahorneada/bakery-api/internal/availability"
	"github.com/lahorneada/bakery-api/internal/events"
	kafkax "github.com/lahorneada/bakery-api/internal/kafka"
	"github.com/lahorneada/bakery-api/internal/stock"
)

type AdminStockHandler struct {
	Stock    *stock.Repo
	View     *availability.View
	Adjusted *kafkax.Producer // stock.adjusted
	Auth     *auth.Middleware
	Service  string
}

type setStockReq struct {
	ProductID string `json:"product_id"`
	Date      string `json:"date"`
	Quantity  int    `json:"quantity"`
}

type setStockResp struct {
	Entry stock.Entry      `json:"entry"`
	State adminstock.State `json:"state"` // SAVED, or IDLE when the write was skipped
}

func (h *AdminStockHandler) Register(r *chi.Mux) {
	r.Route("/admin/stock", func(ar chi.Router) {
		ar.Use(h.Auth.RequireAdmin)
		ar.Get("/{date}", h.forDate)
		ar.Put("/", h.set)
	})
}

func (h *AdminStockHandler) forDate(w http.ResponseWriter, r *http.Request) {
	date, ok := parseDate(chi.URLParam(r, "date"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	entries, err := h.Stock.AllForDate(ctx, date)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []stock.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// set upserts one ledger cell through the editor: negative input clamps to
// 0, a value equal to the server's is skipped, and the upsert itself is
// idempotent so retrying a failed save is always safe.
func (h *AdminStockHandler) set(w http.ResponseWriter, r *http.Request) {
	u, err := auth.CurrentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	var req setStockReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	date, ok := parseDate(req.Date)
	if !ok || req.ProductID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "product_id and date (YYYY-MM-DD) are required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ed := adminstock.NewEditor(h.Stock, req.ProductID, date)
	if err := ed.Load(ctx); err != nil {
		writeError(w, err)
		return
	}
	ed.Set(req.Quantity)
	if err := ed.Flush(ctx); err != nil {
		writeError(w, err)
		return
	}
	entry := stock.Entry{ProductID: req.ProductID, Date: date, Quantity: ed.Value()}

	if ed.State() == adminstock.StateSaved {
		h.View.Invalidate(ctx, date)

		ev := events.Envelope{
			EventID:       uuid.NewString(),
			EventType:     events.EventStockAdjusted,
			EventVersion:  1,
			OccurredAt:    time.Now().UTC(),
			Producer:      h.Service,
			TraceID:       r.Header.Get("X-Request-Id"),
			CorrelationID: req.ProductID,
			Payload: kafkax.MustMarshal(events.StockAdjustedPayload{
				ProductID: req.ProductID, Date: date, Quantity: entry.Quantity, AdminID: u.ID,
			}),
		}
		h.Adjusted.Publish(events.ProductKey(req.ProductID), kafkax.MustMarshal(ev),
			kafkago.Header{Key: "x-event-type", Value: []byte(events.EventStockAdjusted)},
			kafkago.Header{Key: "x-event-version", Value: []byte("1")},
		)
	}

	writeJSON(w, http.StatusOK, setStockResp{Entry: entry, State: ed.State()})
}
