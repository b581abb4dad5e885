package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lahorneada/bakery-api/internal/availability"
)

type AvailabilityHandler struct {
	View *availability.View
}

func (h *AvailabilityHandler) Register(r *chi.Mux) {
	r.Get("/availability/{date}", h.forDate)
}

func (h *AvailabilityHandler) forDate(w http.ResponseWriter, r *http.Request) {
	date, ok := parseDate(chi.URLParam(r, "date"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.View.ForDate(ctx, date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}
