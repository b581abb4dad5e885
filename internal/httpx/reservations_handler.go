package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/lahorneada/bakery-api/internal/auth"
	"github.com/lahorneada/bakery-api/internal/availability"
	"github.com/lahorneada/bakery-api/internal/cart"
	"github.com/lahorneada/bakery-api/internal/events"
	kafkax "github.com/lahorneada/bakery-api/internal/kafka"
	"github.com/lahorneada/bakery-api/internal/redisx"
	"github.com/lahorneada/bakery-api/internal/reservation"
)

type ReservationsHandler struct {
	Repo      *reservation.Repo
	Carts     *cart.Store
	View      *availability.View
	Redis     *redis.Client
	Created   *kafkax.Producer // reservation.created
	Cancelled *kafkax.Producer // reservation.cancelled
	Auth      *auth.Middleware
	Service   string
}

type submitReq struct {
	// RequestID lets the client retry a submit that timed out without
	// risking a duplicate reservation.
	RequestID string `json:"request_id"`
	Timeslot  string `json:"timeslot"`
	Notes     string `json:"notes"`
}

type submitResp struct {
	ID         string `json:"id"`
	Code       string `json:"code"`
	TotalCents int    `json:"total_cents"`
	Idempotent bool   `json:"idempotent"`
}

func (h *ReservationsHandler) Register(r *chi.Mux) {
	r.Route("/reservations", func(rr chi.Router) {
		rr.Use(h.Auth.RequireUser)
		rr.Post("/", h.submit)
		rr.Get("/", h.listMine)
		rr.Get("/{code}", h.get)
		rr.Post("/{code}/cancel", h.cancel)
	})
	r.With(h.Auth.RequireAdmin).
		Post("/admin/reservations/{code}/status", h.setStatus)
}

// submit is the commit protocol's front door: the stored cart becomes a
// reservation in one transaction. On oversold the cart is trimmed to what
// actually remains and the user re-confirms; nothing was written.
func (h *ReservationsHandler) submit(w http.ResponseWriter, r *http.Request) {
	u, err := auth.CurrentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	var req submitReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 7*time.Second)
	defer cancel()

	c, err := h.Carts.Load(ctx, u.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if c == nil || c.Empty() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cart is empty"})
		return
	}

	res, existed, err := h.Repo.Create(ctx, reservation.CreateInput{
		RequestID:  req.RequestID,
		UserID:     u.ID,
		PickupDate: c.PickupDate,
		Timeslot:   req.Timeslot,
		Notes:      req.Notes,
		Lines:      c.Lines(),
	})

	var ov *reservation.OversoldError
	if errors.As(err, &ov) {
		for _, d := range ov.Details {
			e, ok := c.Entries[d.ProductID]
			if !ok {
				continue
			}
			c.SetQuantity(d.ProductID, e.Name, e.UnitPriceCents, d.Available, d.Available)
		}
		if saveErr := h.Carts.Save(ctx, u.ID, c); saveErr != nil {
			writeError(w, saveErr)
			return
		}
		writeError(w, ov)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	// stock changed: the cart is done and cached availability is stale
	_ = h.Carts.Clear(ctx, u.ID)
	h.View.Invalidate(ctx, res.PickupDate)

	if req.RequestID != "" {
		key := fmt.Sprintf(redisx.KeyIdemReservation, req.RequestID)
		_ = h.Redis.Set(ctx, key, res.Code, redisx.TTLIdempotency).Err()
	}

	if !existed {
		items := make([]events.ItemQty, 0, len(res.Items))
		for _, it := range res.Items {
			pid := ""
			if it.ProductID != nil {
				pid = *it.ProductID
			}
			items = append(items, events.ItemQty{ProductID: pid, Qty: it.Qty})
		}
		h.publish(h.Created, events.EventReservationCreated, res.ID, r.Header.Get("X-Request-Id"),
			events.ReservationCreatedPayload{
				ReservationID: res.ID, Code: res.Code, UserID: res.UserID,
				PickupDate: res.PickupDate, Items: items, TotalCents: res.TotalCents,
			})
	}

	writeJSON(w, http.StatusCreated, submitResp{
		ID: res.ID, Code: res.Code, TotalCents: res.TotalCents, Idempotent: existed,
	})
}

func (h *ReservationsHandler) listMine(w http.ResponseWriter, r *http.Request) {
	u, err := auth.CurrentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out, err := h.Repo.ListByUser(ctx, u.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if out == nil {
		out = []reservation.Reservation{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ReservationsHandler) get(w http.ResponseWriter, r *http.Request) {
	u, err := auth.CurrentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	res, err := h.Repo.GetByCode(ctx, chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, err)
		return
	}
	if res.UserID != u.ID && u.Role != auth.RoleAdmin {
		writeError(w, reservation.ErrNotOwner)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ReservationsHandler) cancel(w http.ResponseWriter, r *http.Request) {
	u, err := auth.CurrentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Repo.Cancel(ctx, chi.URLParam(r, "code"), u.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.publish(h.Cancelled, events.EventReservationCancelled, res.ID, r.Header.Get("X-Request-Id"),
		events.ReservationCancelledPayload{
			ReservationID: res.ID, Code: res.Code, UserID: res.UserID, PickupDate: res.PickupDate,
		})
	writeJSON(w, http.StatusOK, res)
}

func (h *ReservationsHandler) setStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status reservation.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Repo.SetStatus(ctx, chi.URLParam(r, "code"), req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ReservationsHandler) publish(p *kafkax.Producer, eventType, reservationID, trace string, payload any) {
	ev := events.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       trace,
		CorrelationID: reservationID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(events.ReservationKey(reservationID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
