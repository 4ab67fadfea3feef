package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/example/ec-marketplace/internal/domain/order"
	"github.com/example/ec-marketplace/internal/events"
	"github.com/example/ec-marketplace/internal/payment"
	"github.com/example/ec-marketplace/internal/store"
	"github.com/google/uuid"
)

var (
	ErrEmptyCart          = errors.New("cart must have at least one item")
	ErrProductUnavailable = errors.New("some products not found or not available")
	ErrPaymentSession     = errors.New("failed to create payment session")
	ErrReferenceExhausted = errors.New("could not generate a unique order reference")
)

// SessionCreator is the slice of the payment delegate the assembler needs.
type SessionCreator interface {
	CreateSession(ctx context.Context, req payment.SessionRequest) (string, error)
}

// RequestItem is one requested cart line. Quantity defaults to 1 when zero
// or negative.
type RequestItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Assembler validates a requested cart against the catalog and builds the
// immutable order snapshot: frozen titles, thumbnails, unit prices and the
// computed total. Orders with nothing to collect complete immediately,
// including their inventory side effect; paid orders with an amount due get
// a hosted-payment session.
type Assembler struct {
	catalog   store.CatalogStore
	orders    store.OrderStore
	sessions  SessionCreator
	publisher events.Publisher
	now       func() time.Time
}

func NewAssembler(catalog store.CatalogStore, orders store.OrderStore, sessions SessionCreator, publisher events.Publisher) *Assembler {
	return &Assembler{
		catalog:   catalog,
		orders:    orders,
		sessions:  sessions,
		publisher: publisher,
		now:       time.Now,
	}
}

// Assemble creates and persists an order for the buyer's cart.
//
// Validation is all-or-nothing: a single unknown or unpublished product
// fails the whole request and nothing is persisted. Line prices are frozen
// through the pricing engine at this instant; later catalog changes never
// touch the order.
func (a *Assembler) Assemble(ctx context.Context, buyer order.Buyer, requested []RequestItem) (*order.Order, error) {
	if len(requested) == 0 {
		return nil, ErrEmptyCart
	}

	now := a.now()

	items := make([]order.Item, 0, len(requested))
	method := order.PaymentFree
	for _, req := range requested {
		p, err := a.catalog.GetProduct(ctx, req.ProductID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, req.ProductID)
		}
		if !p.Purchasable() {
			return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, req.ProductID)
		}

		qty := req.Quantity
		if qty < 1 {
			qty = 1
		}

		price := p.EffectivePrice(now)
		items = append(items, order.Item{
			ProductID: p.ID,
			Title:     p.Title,
			Thumbnail: p.Thumbnail,
			UnitPrice: price,
			Quantity:  qty,
			Amount:    price * int64(qty),
		})

		// One paid item makes the whole order paid, even in a mixed cart.
		if p.Paid {
			method = order.PaymentPaid
		}
	}

	reference, err := a.uniqueReference(ctx, now)
	if err != nil {
		return nil, err
	}

	total := order.ItemsTotal(items)

	status := order.StatusPending
	if method == order.PaymentFree || total == 0 {
		// Nothing to collect, so there is no external payment step and the
		// order is complete at creation. A paid cart can still land here
		// when discounts bring the total to zero; the processor will not
		// open a session for a zero amount.
		status = order.StatusSuccess
	}

	ord := &order.Order{
		ID:            uuid.New().String(),
		Reference:     reference,
		Buyer:         buyer,
		Items:         items,
		PaymentMethod: method,
		Status:        status,
		Total:         total,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := a.orders.CreateOrder(ctx, ord); err != nil {
		return nil, err
	}
	ordersCreated.WithLabelValues(string(ord.PaymentMethod)).Inc()

	if ord.Status == order.StatusSuccess {
		// A free order enters success at creation, so the inventory side
		// effect fires here, keeping "exactly once on entering success"
		// uniform with the reconciler.
		if err := a.catalog.ApplySale(ctx, ord.Items); err != nil {
			log.Printf("[Assembler] failed to apply sale for %s: %v", ord.Reference, err)
		}
	}

	if ord.PaymentMethod == order.PaymentPaid && ord.Total > 0 {
		token, err := a.sessions.CreateSession(ctx, payment.SessionRequest{
			Reference:  ord.Reference,
			Amount:     ord.Total,
			BuyerName:  buyer.Name,
			BuyerEmail: buyer.Email,
			Items:      ord.Items,
		})
		if err != nil {
			// One-shot attempt: the buyer is waiting on this call, so the
			// order is canceled instead of retried.
			if _, cancelErr := a.orders.UpdateStatus(ctx, ord.Reference, order.StatusPending, order.StatusCanceled, nil, a.now()); cancelErr != nil {
				log.Printf("[Assembler] failed to cancel order %s after session failure: %v", ord.Reference, cancelErr)
			}
			return nil, fmt.Errorf("%w: %v", ErrPaymentSession, err)
		}
		if err := a.orders.SetSessionToken(ctx, ord.Reference, token); err != nil {
			log.Printf("[Assembler] failed to persist session token for %s: %v", ord.Reference, err)
		}
		ord.SessionToken = token
	}

	a.publish(ctx, ord)

	return ord, nil
}

const maxReferenceAttempts = 5

// uniqueReference generates an order reference and verifies it against
// existing orders. The timestamp+random fallback goes through the same
// uniqueness check as a primary reference.
func (a *Assembler) uniqueReference(ctx context.Context, now time.Time) (string, error) {
	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		ref := order.NewReference()
		if ref == "" {
			ref = order.FallbackReference(now)
		}

		exists, err := a.orders.ReferenceExists(ctx, ref)
		if err != nil {
			return "", err
		}
		if !exists {
			return ref, nil
		}
		log.Printf("[Assembler] reference collision on %s, retrying", ref)
	}
	return "", ErrReferenceExhausted
}

func (a *Assembler) publish(ctx context.Context, ord *order.Order) {
	if a.publisher == nil {
		return
	}
	env, err := events.NewEnvelope(events.TypeOrderCreated, events.OrderCreated{
		Reference:     ord.Reference,
		Buyer:         ord.Buyer,
		Items:         ord.Items,
		Total:         ord.Total,
		PaymentMethod: ord.PaymentMethod,
		Status:        ord.Status,
		CreatedAt:     ord.CreatedAt,
	})
	if err != nil {
		log.Printf("[Assembler] failed to build OrderCreated event for %s: %v", ord.Reference, err)
		return
	}
	if err := a.publisher.Publish(ctx, ord.Reference, env); err != nil {
		log.Printf("[Assembler] failed to publish OrderCreated for %s: %v", ord.Reference, err)
	}
}
