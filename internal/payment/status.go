package payment

import (
	"github.com/example/ec-marketplace/internal/domain/order"
)

// VANumber is one virtual-account entry as reported by the processor.
type VANumber struct {
	Bank     string `json:"bank"`
	VANumber string `json:"va_number"`
}

// TransactionStatus is the processor's view of a transaction. Only
// TransactionStatus is required; the remaining fields appear depending on
// the payment instrument and are carried verbatim into the order's payment
// detail snapshot.
type TransactionStatus struct {
	OrderID           string     `json:"order_id"`
	TransactionID     string     `json:"transaction_id,omitempty"`
	TransactionStatus string     `json:"transaction_status"`
	PaymentType       string     `json:"payment_type,omitempty"`
	TransactionTime   string     `json:"transaction_time,omitempty"`
	SettlementTime    string     `json:"settlement_time,omitempty"`
	Currency          string     `json:"currency,omitempty"`
	VANumbers         []VANumber `json:"va_numbers,omitempty"`
	StatusCode        string     `json:"status_code,omitempty"`
}

// MapStatus maps a processor status string onto the order status enum.
// The second return value is false for unrecognized statuses, which must
// leave the order untouched rather than corrupt it.
func MapStatus(processorStatus string) (order.Status, bool) {
	switch processorStatus {
	case "pending":
		return order.StatusPending, true
	case "settlement", "success":
		return order.StatusSuccess, true
	case "capture":
		// Card-network capture flow, semantically a settlement.
		return order.StatusSuccess, true
	case "expire":
		return order.StatusExpired, true
	case "cancel", "deny":
		return order.StatusCanceled, true
	default:
		return "", false
	}
}

// Detail extracts the payment snapshot fields into the shape stored on the
// order.
func (ts *TransactionStatus) Detail() *order.PaymentDetail {
	detail := &order.PaymentDetail{
		PaymentType:     ts.PaymentType,
		TransactionID:   ts.TransactionID,
		TransactionTime: ts.TransactionTime,
		SettlementTime:  ts.SettlementTime,
		Currency:        ts.Currency,
	}
	if len(ts.VANumbers) > 0 {
		detail.Bank = ts.VANumbers[0].Bank
		detail.VANumber = ts.VANumbers[0].VANumber
	}
	return detail
}
