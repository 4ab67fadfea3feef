package order

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// ============================================
// Status Transition Tests
// ============================================

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"pending to success", StatusPending, StatusSuccess, true},
		{"pending to expired", StatusPending, StatusExpired, true},
		{"pending to canceled", StatusPending, StatusCanceled, true},
		{"pending to pending", StatusPending, StatusPending, false},
		{"success to canceled", StatusSuccess, StatusCanceled, false},
		{"success to pending", StatusSuccess, StatusPending, false},
		{"expired to success", StatusExpired, StatusSuccess, false},
		{"canceled to success", StatusCanceled, StatusSuccess, false},
		{"unknown status", Status("bogus"), StatusSuccess, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.True(t, StatusSuccess.Terminal())
	assert.True(t, StatusExpired.Terminal())
	assert.True(t, StatusCanceled.Terminal())
	assert.False(t, Status("bogus").Terminal())
}

// ============================================
// Total Tests
// ============================================

func TestItemsTotal(t *testing.T) {
	items := []Item{
		{ProductID: "p1", UnitPrice: 10000, Quantity: 2, Amount: 20000},
		{ProductID: "p2", UnitPrice: 500, Quantity: 3, Amount: 1500},
	}
	assert.Equal(t, int64(21500), ItemsTotal(items))
}

func TestItemsTotal_Empty(t *testing.T) {
	assert.Equal(t, int64(0), ItemsTotal(nil))
}

// ============================================
// Reference Tests
// ============================================

func TestNewReference_Format(t *testing.T) {
	ref := NewReference()
	assert.True(t, strings.HasPrefix(ref, "ORD-"))
	assert.Len(t, ref, 14)
	assert.Equal(t, strings.ToUpper(ref), ref)
}

func TestNewReference_Distinct(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		ref := NewReference()
		assert.False(t, seen[ref], "duplicate reference %s", ref)
		seen[ref] = true
	}
}

func TestFallbackReference_Format(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	ref := FallbackReference(now)
	assert.True(t, strings.HasPrefix(ref, "ORD-1749988800000-"))
	assert.Len(t, ref, len("ORD-1749988800000-")+4)
}
