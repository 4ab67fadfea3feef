package product

import (
	"errors"
	"time"

	"github.com/example/ec-marketplace/internal/domain/pricing"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidPrice    = errors.New("price must be zero or positive")
	ErrInvalidTitle    = errors.New("title is required")
)

type Product struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Thumbnail string            `json:"thumbnail,omitempty"`
	Price     int64             `json:"price"`
	Paid      bool              `json:"paid"`
	Published bool              `json:"published"`
	Stock     int               `json:"stock"`
	Sold      int               `json:"sold"`
	Discount  *pricing.Discount `json:"discount,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Purchasable reports whether the product may appear in a new order.
func (p *Product) Purchasable() bool {
	return p.Published
}

// EffectivePrice is the price a buyer pays right now, with any active
// discount applied.
func (p *Product) EffectivePrice(now time.Time) int64 {
	return pricing.EffectivePrice(p.Price, p.Discount, now)
}

// Validate checks the fields a dashboard submits when creating or updating
// a product.
func (p *Product) Validate() error {
	if p.Title == "" {
		return ErrInvalidTitle
	}
	if p.Price < 0 {
		return ErrInvalidPrice
	}
	return nil
}
