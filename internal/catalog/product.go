package catalog

import (
	"errors"
	"fmt"
	"time"
)

type Category string

const (
	CategoryBread   Category = "BREAD"
	CategoryPastry  Category = "PASTRY"
	CategoryCake    Category = "CAKE"
	CategorySpecial Category = "SPECIAL"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryBread, CategoryPastry, CategoryCake, CategorySpecial:
		return true
	}
	return false
}

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	PriceCents  int       `json:"price_cents"`
	Category    Category  `json:"category"`
	Tags        []string  `json:"tags"`
	Active      bool      `json:"active"`
	Featured    bool      `json:"featured"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

var ErrInvalid = errors.New("invalid product")

// Validate normalizes and checks the fields an admin can submit. When
// autoSlug is set the slug is derived from the name, overwriting whatever
// the caller sent; otherwise the caller-provided slug must already be in
// canonical form.
func (p *Product) Validate(autoSlug bool) error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if autoSlug {
		p.Slug = Slugify(p.Name)
	}
	if p.Slug == "" {
		return fmt.Errorf("%w: slug is required", ErrInvalid)
	}
	if p.Slug != Slugify(p.Slug) {
		return fmt.Errorf("%w: slug %q is not URL-safe", ErrInvalid, p.Slug)
	}
	if p.PriceCents < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalid)
	}
	if !p.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalid, p.Category)
	}
	return nil
}
