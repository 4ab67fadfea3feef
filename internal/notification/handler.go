package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/example/ec-marketplace/internal/domain/order"
	"github.com/example/ec-marketplace/internal/events"
)

// Mailer is the slice of the email service the notifier needs.
type Mailer interface {
	SendOrderConfirmation(reference string, buyer order.Buyer, items []order.Item, total int64, status order.Status) error
	SendPaymentReceived(reference string, buyer order.Buyer, total int64) error
}

// Handler turns consumed order events into emails. Events carry the full
// order snapshot, so the notifier needs no store access.
type Handler struct {
	mailer Mailer
}

func NewHandler(mailer Mailer) *Handler {
	return &Handler{mailer: mailer}
}

// Handle implements kafka.MessageHandler.
func (h *Handler) Handle(ctx context.Context, key, value []byte) error {
	var envelope events.Envelope
	if err := json.Unmarshal(value, &envelope); err != nil {
		// Malformed messages are dropped, not retried.
		log.Printf("[Notification] dropping malformed message for key %s: %v", key, err)
		return nil
	}

	switch envelope.Type {
	case events.TypeOrderCreated:
		var e events.OrderCreated
		if err := json.Unmarshal(envelope.Data, &e); err != nil {
			log.Printf("[Notification] dropping malformed %s event: %v", envelope.Type, err)
			return nil
		}
		if err := h.mailer.SendOrderConfirmation(e.Reference, e.Buyer, e.Items, e.Total, e.Status); err != nil {
			return fmt.Errorf("order confirmation for %s: %w", e.Reference, err)
		}
		log.Printf("[Notification] sent order confirmation for %s to %s", e.Reference, e.Buyer.Email)
		return nil

	case events.TypeOrderStatusChanged:
		var e events.OrderStatusChanged
		if err := json.Unmarshal(envelope.Data, &e); err != nil {
			log.Printf("[Notification] dropping malformed %s event: %v", envelope.Type, err)
			return nil
		}
		if e.Status != order.StatusSuccess {
			return nil
		}
		if err := h.mailer.SendPaymentReceived(e.Reference, e.Buyer, e.Total); err != nil {
			return fmt.Errorf("payment receipt for %s: %w", e.Reference, err)
		}
		log.Printf("[Notification] sent payment receipt for %s to %s", e.Reference, e.Buyer.Email)
		return nil

	default:
		// Unknown event types are ignored so the topic can evolve.
		return nil
	}
}
