package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Baguette de masa madre", "baguette-de-masa-madre"},
		{"Pan rústico", "pan-rustico"},
		{"Croissant  à la crème", "croissant-a-la-creme"},
		{"Tarta 3 Leches!!", "tarta-3-leches"},
		{"  --Brioche--  ", "brioche"},
		{"ñoño", "nono"},
		{"", ""},
		{"!!!", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Slugify(c.in), "Slugify(%q)", c.in)
	}
}

func TestSlugifyIdempotent(t *testing.T) {
	for _, in := range []string{"Baguette de masa madre", "Pan rústico", "Tarta 3 Leches!!"} {
		once := Slugify(in)
		assert.Equal(t, once, Slugify(once))
	}
}

func TestProductValidate(t *testing.T) {
	t.Run("auto slug derives from name", func(t *testing.T) {
		p := Product{Name: "Pan rústico", Category: CategoryBread}
		assert.NoError(t, p.Validate(true))
		assert.Equal(t, "pan-rustico", p.Slug)
	})

	t.Run("manual slug kept when auto off", func(t *testing.T) {
		p := Product{Name: "Pan rústico", Slug: "pan-del-dia", Category: CategoryBread}
		assert.NoError(t, p.Validate(false))
		assert.Equal(t, "pan-del-dia", p.Slug)
	})

	t.Run("rejects non-canonical manual slug", func(t *testing.T) {
		p := Product{Name: "Pan", Slug: "Pan Rústico", Category: CategoryBread}
		assert.ErrorIs(t, p.Validate(false), ErrInvalid)
	})

	t.Run("name required", func(t *testing.T) {
		p := Product{Category: CategoryBread}
		assert.ErrorIs(t, p.Validate(true), ErrInvalid)
	})

	t.Run("negative price rejected", func(t *testing.T) {
		p := Product{Name: "Pan", PriceCents: -100, Category: CategoryBread}
		assert.ErrorIs(t, p.Validate(true), ErrInvalid)
	})

	t.Run("unknown category rejected", func(t *testing.T) {
		p := Product{Name: "Pan", Category: "SOUP"}
		assert.ErrorIs(t, p.Validate(true), ErrInvalid)
	})
}
