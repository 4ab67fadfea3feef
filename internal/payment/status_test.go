package payment

import (
	"testing"

	"github.com/example/ec-marketplace/internal/domain/order"
	"github.com/stretchr/testify/assert"
)

func TestMapStatus(t *testing.T) {
	tests := []struct {
		name            string
		processorStatus string
		expected        order.Status
		recognized      bool
	}{
		{"pending", "pending", order.StatusPending, true},
		{"settlement", "settlement", order.StatusSuccess, true},
		{"success literal", "success", order.StatusSuccess, true},
		{"capture", "capture", order.StatusSuccess, true},
		{"expire", "expire", order.StatusExpired, true},
		{"cancel", "cancel", order.StatusCanceled, true},
		{"deny", "deny", order.StatusCanceled, true},
		{"unrecognized", "refund", "", false},
		{"empty", "", "", false},
		{"case sensitive", "Settlement", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, ok := MapStatus(tt.processorStatus)
			assert.Equal(t, tt.recognized, ok)
			assert.Equal(t, tt.expected, status)
		})
	}
}

func TestTransactionStatus_Detail(t *testing.T) {
	ts := &TransactionStatus{
		OrderID:           "ORD-ABC123",
		TransactionID:     "txn-1",
		TransactionStatus: "settlement",
		PaymentType:       "bank_transfer",
		TransactionTime:   "2025-06-15 10:00:00",
		SettlementTime:    "2025-06-15 10:05:00",
		Currency:          "IDR",
		VANumbers:         []VANumber{{Bank: "bca", VANumber: "1234567890"}},
	}

	detail := ts.Detail()
	assert.Equal(t, "bank_transfer", detail.PaymentType)
	assert.Equal(t, "bca", detail.Bank)
	assert.Equal(t, "1234567890", detail.VANumber)
	assert.Equal(t, "txn-1", detail.TransactionID)
	assert.Equal(t, "2025-06-15 10:00:00", detail.TransactionTime)
	assert.Equal(t, "2025-06-15 10:05:00", detail.SettlementTime)
	assert.Equal(t, "IDR", detail.Currency)
}

func TestTransactionStatus_Detail_NoVANumbers(t *testing.T) {
	ts := &TransactionStatus{TransactionStatus: "capture", PaymentType: "credit_card"}

	detail := ts.Detail()
	assert.Equal(t, "credit_card", detail.PaymentType)
	assert.Empty(t, detail.Bank)
	assert.Empty(t, detail.VANumber)
}
