package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lahorneada/bakery-api/internal/auth"
	"github.com/lahorneada/bakery-api/internal/cart"
	"github.com/lahorneada/bakery-api/internal/catalog"
	"github.com/lahorneada/bakery-api/internal/stock"
)

type CartHandler struct {
	Store   *cart.Store
	Catalog *catalog.Repo
	Stock   *stock.Repo
	Auth    *auth.Middleware
}

type cartOpReq struct {
	ProductID string `json:"product_id"`
	Date      string `json:"date"` // pickup date the cart is being built for
	Op        string `json:"op"`   // increment | decrement | set
	Qty       int    `json:"qty"`  // only for set
}

type cartResp struct {
	PickupDate string       `json:"pickup_date"`
	Entries    []cart.Entry `json:"entries"`
	TotalCents int          `json:"total_cents"`
}

func toCartResp(c *cart.Cart) cartResp {
	resp := cartResp{Entries: []cart.Entry{}}
	if c == nil {
		return resp
	}
	resp.PickupDate = c.PickupDate
	resp.TotalCents = c.TotalCents()
	for _, e := range c.Entries {
		resp.Entries = append(resp.Entries, e)
	}
	return resp
}

func (h *CartHandler) Register(r *chi.Mux) {
	r.Route("/cart", func(cr chi.Router) {
		cr.Use(h.Auth.RequireUser)
		cr.Get("/", h.get)
		cr.Post("/items", h.apply)
		cr.Delete("/", h.clear)
	})
}

func (h *CartHandler) get(w http.ResponseWriter, r *http.Request) {
	u, err := auth.CurrentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Store.Load(ctx, u.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResp(c))
}

// apply runs one cart mutation. Name, price and remaining stock are
// resolved server-side on every call; the client only names the product
// and the operation.
func (h *CartHandler) apply(w http.ResponseWriter, r *http.Request) {
	u, err := auth.CurrentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	var req cartOpReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	date, ok := parseDate(req.Date)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	c, err := h.Store.Load(ctx, u.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	// switching pickup date starts a fresh cart, same as navigating away
	if c == nil || c.PickupDate != date {
		c = cart.New(date)
	}

	switch req.Op {
	case "decrement":
		c.Decrement(req.ProductID)
	case "increment", "set":
		p, err := h.Catalog.Get(ctx, req.ProductID)
		if err != nil {
			writeError(w, err)
			return
		}
		if !p.Active {
			writeError(w, catalog.ErrNotFound)
			return
		}
		remaining := 0
		entry, err := h.Stock.GetEntry(ctx, req.ProductID, date)
		if err == nil {
			remaining = entry.Quantity
		} else if !errors.Is(err, stock.ErrNotFound) {
			writeError(w, err)
			return
		}
		if req.Op == "increment" {
			c.Increment(p.ID, p.Name, p.PriceCents, remaining)
		} else {
			c.SetQuantity(p.ID, p.Name, p.PriceCents, remaining, req.Qty)
		}
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "op must be increment, decrement or set"})
		return
	}

	if err := h.Store.Save(ctx, u.ID, c); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResp(c))
}

func (h *CartHandler) clear(w http.ResponseWriter, r *http.Request) {
	u, err := auth.CurrentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Store.Clear(ctx, u.ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
