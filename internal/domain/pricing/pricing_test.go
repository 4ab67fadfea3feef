package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var evalTime = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// ============================================
// Discount Activity Tests
// ============================================

func TestDiscount_Active(t *testing.T) {
	tests := []struct {
		name     string
		discount *Discount
		expected bool
	}{
		{"nil discount", nil, false},
		{"no expiry", &Discount{Type: TypePercentage, Value: 10}, true},
		{"future date", &Discount{Type: TypePercentage, Value: 10, ValidUntil: "2025-12-31"}, true},
		{"past date", &Discount{Type: TypePercentage, Value: 10, ValidUntil: "2024-01-01"}, false},
		{"same day midnight already passed", &Discount{Type: TypePercentage, Value: 10, ValidUntil: "2025-06-15"}, false},
		{"future RFC3339", &Discount{Type: TypeFixed, Value: 500, ValidUntil: "2025-06-15T18:00:00Z"}, true},
		{"malformed date", &Discount{Type: TypePercentage, Value: 10, ValidUntil: "not-a-date"}, false},
		{"garbage numeric date", &Discount{Type: TypeFixed, Value: 500, ValidUntil: "31/12/2025"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.discount.Active(evalTime))
		})
	}
}

// ============================================
// EffectivePrice Tests
// ============================================

func TestEffectivePrice_NoDiscount(t *testing.T) {
	assert.Equal(t, int64(10000), EffectivePrice(10000, nil, evalTime))
}

func TestEffectivePrice_ExpiredDiscountIsBasePrice(t *testing.T) {
	d := &Discount{Type: TypePercentage, Value: 50, ValidUntil: "2020-01-01"}
	assert.Equal(t, int64(10000), EffectivePrice(10000, d, evalTime))
}

func TestEffectivePrice_MalformedValidUntilIsBasePrice(t *testing.T) {
	d := &Discount{Type: TypeFixed, Value: 5000, ValidUntil: "soon"}
	assert.Equal(t, int64(10000), EffectivePrice(10000, d, evalTime))
}

func TestEffectivePrice_Percentage(t *testing.T) {
	tests := []struct {
		name     string
		base     int64
		value    int64
		expected int64
	}{
		{"zero percent", 10000, 0, 10000},
		{"ten percent", 10000, 10, 9000},
		{"twenty five percent", 20000, 25, 15000},
		{"hundred percent", 10000, 100, 0},
		{"rounds toward buyer", 999, 10, 900},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Discount{Type: TypePercentage, Value: tt.value}
			got := EffectivePrice(tt.base, d, evalTime)
			assert.Equal(t, tt.expected, got)
			assert.GreaterOrEqual(t, got, int64(0))
		})
	}
}

func TestEffectivePrice_Fixed(t *testing.T) {
	tests := []struct {
		name     string
		base     int64
		value    int64
		expected int64
	}{
		{"partial", 10000, 3000, 7000},
		{"exact", 10000, 10000, 0},
		{"exceeds base clamps to zero", 10000, 15000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Discount{Type: TypeFixed, Value: tt.value}
			assert.Equal(t, tt.expected, EffectivePrice(tt.base, d, evalTime))
		})
	}
}

func TestEffectivePrice_UnknownTypeIsBasePrice(t *testing.T) {
	d := &Discount{Type: "bogo", Value: 50}
	assert.Equal(t, int64(10000), EffectivePrice(10000, d, evalTime))
}

func TestEffectivePrice_Deterministic(t *testing.T) {
	d := &Discount{Type: TypePercentage, Value: 33, ValidUntil: "2025-12-31"}
	first := EffectivePrice(12345, d, evalTime)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, EffectivePrice(12345, d, evalTime))
	}
}
