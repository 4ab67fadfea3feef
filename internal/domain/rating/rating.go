package rating

import (
	"errors"
	"time"
)

var (
	ErrInvalidValue   = errors.New("rating value must be between 1 and 5")
	ErrAlreadyRated   = errors.New("product already rated by this buyer")
	ErrNotPurchased   = errors.New("product must be purchased before rating")
	ErrRatingNotFound = errors.New("rating not found")
)

// Rating is one buyer's review of a product. A buyer may rate a product at
// most once, and only after an order containing the product reached success.
type Rating struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	BuyerID   string    `json:"buyer_id"`
	BuyerName string    `json:"buyer_name"`
	Value     int       `json:"value"`
	Review    string    `json:"review,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *Rating) Validate() error {
	if r.Value < 1 || r.Value > 5 {
		return ErrInvalidValue
	}
	return nil
}
