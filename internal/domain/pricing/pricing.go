package pricing

import "time"

type DiscountType string

const (
	TypePercentage DiscountType = "percentage"
	TypeFixed      DiscountType = "fixed"
)

// Discount describes a price reduction attached to a product.
// ValidUntil is a date string ("2006-01-02", RFC 3339 also accepted);
// empty means the discount has no expiry.
type Discount struct {
	Type       DiscountType `json:"type"`
	Value      int64        `json:"value"`
	ValidUntil string       `json:"valid_until,omitempty"`
}

// Active reports whether the discount applies at the given instant.
// A malformed ValidUntil disables the discount instead of failing.
func (d *Discount) Active(now time.Time) bool {
	if d == nil {
		return false
	}
	if d.ValidUntil == "" {
		return true
	}
	until, err := parseValidUntil(d.ValidUntil)
	if err != nil {
		return false
	}
	return until.After(now)
}

func parseValidUntil(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// EffectivePrice computes the price a buyer pays for a base price with the
// given discount at the evaluation instant. Pure and deterministic for a
// fixed instant; the result is never negative. Both the order-assembly path
// and display paths must call this so computed prices always agree.
func EffectivePrice(basePrice int64, d *Discount, now time.Time) int64 {
	if !d.Active(now) {
		return basePrice
	}

	var price int64
	switch d.Type {
	case TypePercentage:
		price = basePrice - basePrice*d.Value/100
	case TypeFixed:
		price = basePrice - d.Value
	default:
		// Unknown discount types do not discount.
		price = basePrice
	}

	if price < 0 {
		return 0
	}
	return price
}
