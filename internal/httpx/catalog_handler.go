package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lahorneada/bakery-api/internal/auth"
	"github.com/lahorneada/bakery-api/internal/catalog"
)

type CatalogHandler struct {
	Repo *catalog.Repo
	Auth *auth.Middleware
}

type productReq struct {
	Name        string           `json:"name"`
	Slug        string           `json:"slug"`
	Description string           `json:"description"`
	PriceCents  int              `json:"price_cents"`
	Category    catalog.Category `json:"category"`
	Tags        []string         `json:"tags"`
	Active      bool             `json:"active"`
	Featured    bool             `json:"featured"`
	ImageURL    string           `json:"image_url"`
	// AutoSlug derives the slug from the name, overriding Slug. Off means
	// the caller manages the slug by hand.
	AutoSlug bool `json:"auto_slug"`
}

func (q productReq) product(id string) catalog.Product {
	return catalog.Product{
		ID: id, Name: q.Name, Slug: q.Slug, Description: q.Description,
		PriceCents: q.PriceCents, Category: q.Category, Tags: q.Tags,
		Active: q.Active, Featured: q.Featured, ImageURL: q.ImageURL,
	}
}

func (h *CatalogHandler) Register(r *chi.Mux) {
	r.Get("/products", h.list)
	r.Get("/products/{slug}", h.getBySlug)

	r.Route("/admin/products", func(ar chi.Router) {
		ar.Use(h.Auth.RequireAdmin)
		ar.Get("/", h.adminList)
		ar.Post("/", h.create)
		ar.Put("/{id}", h.update)
		ar.Delete("/{id}", h.delete)
	})
}

func (h *CatalogHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	f := catalog.ListFilter{
		ActiveOnly: true,
		Category:   catalog.Category(r.URL.Query().Get("category")),
		Query:      r.URL.Query().Get("q"),
	}
	ps, err := h.Repo.List(ctx, f)
	if err != nil {
		writeError(w, err)
		return
	}
	if ps == nil {
		ps = []catalog.Product{}
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *CatalogHandler) adminList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Repo.List(ctx, catalog.ListFilter{
		Category: catalog.Category(r.URL.Query().Get("category")),
		Query:    r.URL.Query().Get("q"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if ps == nil {
		ps = []catalog.Product{}
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *CatalogHandler) getBySlug(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Repo.GetBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) create(w http.ResponseWriter, r *http.Request) {
	var req productReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Repo.Create(ctx, req.product(""), req.AutoSlug)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *CatalogHandler) update(w http.ResponseWriter, r *http.Request) {
	var req productReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Repo.Update(ctx, req.product(chi.URLParam(r, "id")), req.AutoSlug)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Repo.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
