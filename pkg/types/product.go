package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// Persisted blobs carry prices as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// ProductSnapshot is the denormalised product display data captured when a
// product lands in the cart, the wishlist, or an order. It is never refreshed.
type ProductSnapshot struct {
	ID            string           `json:"id" validate:"required"`
	Name          string           `json:"name" validate:"required"`
	Slug          string           `json:"slug,omitempty"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty"`
	Image         string           `json:"image,omitempty"`
}

// Normalize trims identifiers and names.
func (p ProductSnapshot) Normalize() ProductSnapshot {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	p.Slug = strings.TrimSpace(p.Slug)
	p.Image = strings.TrimSpace(p.Image)
	return p
}

// LineTotal returns price * quantity.
func LineTotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}
