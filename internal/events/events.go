package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/example/ec-marketplace/internal/domain/order"
)

const (
	TypeOrderCreated       = "OrderCreated"
	TypeOrderStatusChanged = "OrderStatusChanged"
)

// Publisher publishes order lifecycle events keyed by order reference.
// Publishing is best-effort: callers log failures and carry on, they never
// fail the request over a lost event.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Envelope wraps an event payload with its type so consumers can dispatch
// without trial decoding.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func NewEnvelope(eventType string, data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: eventType, Data: raw}, nil
}

// OrderCreated carries the full order snapshot so consumers (the email
// notifier in particular) need no store lookup.
type OrderCreated struct {
	Reference     string              `json:"reference"`
	Buyer         order.Buyer         `json:"buyer"`
	Items         []order.Item        `json:"items"`
	Total         int64               `json:"total"`
	PaymentMethod order.PaymentMethod `json:"payment_method"`
	Status        order.Status        `json:"status"`
	CreatedAt     time.Time           `json:"created_at"`
}

type OrderStatusChanged struct {
	Reference string       `json:"reference"`
	Buyer     order.Buyer  `json:"buyer"`
	Previous  order.Status `json:"previous"`
	Status    order.Status `json:"status"`
	Total     int64        `json:"total"`
	ChangedAt time.Time    `json:"changed_at"`
}
