package order

import (
	"errors"
	"time"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusSuccess  Status = "success"
	StatusExpired  Status = "expired"
	StatusCanceled Status = "canceled"
)

type PaymentMethod string

const (
	PaymentFree PaymentMethod = "free"
	PaymentPaid PaymentMethod = "paid"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrEmptyOrder         = errors.New("order must have at least one item")
	ErrInvalidStatus      = errors.New("invalid order status transition")
	ErrDuplicateReference = errors.New("order reference already exists")
)

// validTransitions defines allowed state transitions. An order only ever
// moves out of pending; success, expired and canceled are terminal.
var validTransitions = map[Status][]Status{
	StatusPending:  {StatusSuccess, StatusExpired, StatusCanceled},
	StatusSuccess:  {}, // terminal state
	StatusExpired:  {}, // terminal state
	StatusCanceled: {}, // terminal state
}

// CanTransitionTo checks if an order in status s may move to target.
func (s Status) CanTransitionTo(target Status) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is permitted from s.
func (s Status) Terminal() bool {
	allowed, exists := validTransitions[s]
	return exists && len(allowed) == 0
}

// Buyer is the snapshot of the purchasing user taken at order time.
// It is write-once; later profile changes do not affect existing orders.
type Buyer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture,omitempty"`
	Role    string `json:"role"`
}

// Item is one product line within an order. Title, thumbnail and unit price
// are frozen at assembly time; catalog changes never touch them afterwards.
type Item struct {
	ProductID string `json:"product_id"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail,omitempty"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	Amount    int64  `json:"amount"`
}

// PaymentDetail is the processor-side payment snapshot recorded after a
// successful status reconciliation. All fields are stored verbatim as the
// processor reported them.
type PaymentDetail struct {
	PaymentType     string `json:"payment_type"`
	Bank            string `json:"bank,omitempty"`
	VANumber        string `json:"va_number,omitempty"`
	TransactionID   string `json:"transaction_id,omitempty"`
	TransactionTime string `json:"transaction_time,omitempty"`
	SettlementTime  string `json:"settlement_time,omitempty"`
	Currency        string `json:"currency,omitempty"`
}

type Order struct {
	ID            string         `json:"id"`
	Reference     string         `json:"reference"`
	Buyer         Buyer          `json:"buyer"`
	Items         []Item         `json:"items"`
	PaymentMethod PaymentMethod  `json:"payment_method"`
	Status        Status         `json:"status"`
	Total         int64          `json:"total"`
	SessionToken  string         `json:"session_token,omitempty"`
	PaymentDetail *PaymentDetail `json:"payment_detail,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// ItemsTotal sums the frozen line amounts. Order.Total is computed from this
// once at assembly and never recomputed from live prices.
func ItemsTotal(items []Item) int64 {
	var total int64
	for _, item := range items {
		total += item.Amount
	}
	return total
}
