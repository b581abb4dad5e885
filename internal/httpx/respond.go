package httpx

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/lahorneada/bakery-api/internal/auth"
	"github.com/lahorneada/bakery-api/internal/catalog"
	"github.com/lahorneada/bakery-api/internal/reservation"
	"github.com/lahorneada/bakery-api/internal/stock"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type oversoldLine struct {
	ProductID string `json:"product_id"`
	Requested int    `json:"requested"`
	Remaining int    `json:"remaining"`
}

// writeError maps domain errors onto the API surface. Oversold is its own
// shape so clients can trim the cart to what remains and ask the user to
// re-confirm; storage errors are logged with detail and returned generic.
func writeError(w http.ResponseWriter, err error) {
	var ov *reservation.OversoldError
	if errors.As(err, &ov) {
		lines := make([]oversoldLine, 0, len(ov.Details))
		for _, d := range ov.Details {
			lines = append(lines, oversoldLine{ProductID: d.ProductID, Requested: d.Requested, Remaining: d.Available})
		}
		writeJSON(w, http.StatusConflict, map[string]any{
			"error": "oversold", "lines": lines,
		})
		return
	}

	switch {
	case errors.Is(err, auth.ErrAuthRequired):
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "authentication required", "login": true})
	case errors.Is(err, auth.ErrForbidden), errors.Is(err, reservation.ErrNotOwner):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, stock.ErrNotFound),
		errors.Is(err, reservation.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, catalog.ErrInvalid), errors.Is(err, reservation.ErrBadRequest):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, reservation.ErrNotPending):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "reservation is no longer pending"})
	default:
		log.Printf("storage error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error": "storage error", "retryable": true,
		})
	}
}

// parseDate validates the YYYY-MM-DD path/body dates before they reach SQL.
func parseDate(s string) (string, bool) {
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return "", false
	}
	return s, true
}
