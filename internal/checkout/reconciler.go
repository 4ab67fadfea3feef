package checkout

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/example/ec-marketplace/internal/domain/order"
	"github.com/example/ec-marketplace/internal/events"
	"github.com/example/ec-marketplace/internal/payment"
	"github.com/example/ec-marketplace/internal/store"
)

// StatusQuerier is the slice of the payment delegate the reconciler needs.
type StatusQuerier interface {
	QueryStatus(ctx context.Context, reference string) (*payment.TransactionStatus, error)
}

// Reconciler syncs a pending paid order's local status with the payment
// processor's authoritative status. Reconciliation is lazy and
// read-triggered: it runs only when someone fetches the order, never from a
// background poller, so an order nobody revisits may stay pending even
// after the processor settled it.
type Reconciler struct {
	orders    store.OrderStore
	catalog   store.CatalogStore
	processor StatusQuerier
	publisher events.Publisher
	now       func() time.Time
}

func NewReconciler(orders store.OrderStore, catalog store.CatalogStore, processor StatusQuerier, publisher events.Publisher) *Reconciler {
	return &Reconciler{
		orders:    orders,
		catalog:   catalog,
		processor: processor,
		publisher: publisher,
		now:       time.Now,
	}
}

// ReconcileOnRead refreshes ord against the processor before it is returned
// to a viewer. It never fails the read: a processor with no record yet
// means "not paid yet", and transient processor errors degrade to returning
// the order as stored.
//
// The transition itself is a conditional update keyed on the order still
// being pending, so two concurrent reads racing over the same order apply
// the inventory side effect exactly once.
func (r *Reconciler) ReconcileOnRead(ctx context.Context, ord *order.Order) *order.Order {
	if ord.PaymentMethod != order.PaymentPaid {
		return ord
	}

	needsStatus := ord.Status == order.StatusPending
	needsDetail := ord.PaymentDetail == nil || ord.PaymentDetail.PaymentType == ""
	if !needsStatus && !needsDetail {
		return ord
	}

	status, err := r.processor.QueryStatus(ctx, ord.Reference)
	if err != nil {
		if errors.Is(err, payment.ErrTransactionNotFound) {
			// The buyer has not completed the payment step; stay pending.
			reconciliations.WithLabelValues(reconcileResultUnchanged).Inc()
			return ord
		}
		log.Printf("[Reconciler] status query failed for %s: %v", ord.Reference, err)
		reconciliations.WithLabelValues(reconcileResultError).Inc()
		return ord
	}

	detail := status.Detail()

	if !needsStatus {
		// Settled order missing its payment snapshot: backfill the detail,
		// leave the status alone.
		if err := r.orders.UpdatePaymentDetail(ctx, ord.Reference, detail, r.now()); err != nil {
			log.Printf("[Reconciler] failed to backfill payment detail for %s: %v", ord.Reference, err)
			return ord
		}
		ord.PaymentDetail = detail
		return ord
	}

	mapped, ok := payment.MapStatus(status.TransactionStatus)
	if !ok {
		log.Printf("[Reconciler] unrecognized processor status %q for %s, leaving order unchanged", status.TransactionStatus, ord.Reference)
		reconciliations.WithLabelValues(reconcileResultUnchanged).Inc()
		return ord
	}
	if mapped == ord.Status {
		reconciliations.WithLabelValues(reconcileResultUnchanged).Inc()
		return ord
	}

	at := r.now()
	swapped, err := r.orders.UpdateStatus(ctx, ord.Reference, order.StatusPending, mapped, detail, at)
	if err != nil {
		log.Printf("[Reconciler] failed to update status for %s: %v", ord.Reference, err)
		reconciliations.WithLabelValues(reconcileResultError).Inc()
		return ord
	}
	if !swapped {
		// A concurrent reconciliation won the transition; hand back its
		// result rather than our stale view.
		reconciliations.WithLabelValues(reconcileResultLostRace).Inc()
		fresh, err := r.orders.GetOrder(ctx, ord.Reference)
		if err != nil {
			log.Printf("[Reconciler] failed to re-read %s after lost transition: %v", ord.Reference, err)
			return ord
		}
		return fresh
	}
	reconciliations.WithLabelValues(reconcileResultTransitioned).Inc()

	previous := ord.Status
	ord.Status = mapped
	ord.PaymentDetail = detail
	ord.UpdatedAt = at

	if mapped == order.StatusSuccess && previous != order.StatusSuccess {
		if err := r.catalog.ApplySale(ctx, ord.Items); err != nil {
			log.Printf("[Reconciler] failed to apply sale for %s: %v", ord.Reference, err)
		}
	}

	r.publish(ctx, ord, previous)

	return ord
}

func (r *Reconciler) publish(ctx context.Context, ord *order.Order, previous order.Status) {
	if r.publisher == nil {
		return
	}
	env, err := events.NewEnvelope(events.TypeOrderStatusChanged, events.OrderStatusChanged{
		Reference: ord.Reference,
		Buyer:     ord.Buyer,
		Previous:  previous,
		Status:    ord.Status,
		Total:     ord.Total,
		ChangedAt: ord.UpdatedAt,
	})
	if err != nil {
		log.Printf("[Reconciler] failed to build OrderStatusChanged event for %s: %v", ord.Reference, err)
		return
	}
	if err := r.publisher.Publish(ctx, ord.Reference, env); err != nil {
		log.Printf("[Reconciler] failed to publish OrderStatusChanged for %s: %v", ord.Reference, err)
	}
}
