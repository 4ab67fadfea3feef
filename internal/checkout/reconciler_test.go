package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/example/ec-marketplace/internal/domain/order"
	"github.com/example/ec-marketplace/internal/payment"
	"github.com/example/ec-marketplace/internal/store/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStatusQuerier struct {
	status *payment.TransactionStatus
	err    error
	calls  int
}

func (f *fakeStatusQuerier) QueryStatus(ctx context.Context, reference string) (*payment.TransactionStatus, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.status, nil
}

func newTestReconciler(processor *fakeStatusQuerier) (*Reconciler, *mocks.MockCatalogStore, *mocks.MockOrderStore) {
	catalog := mocks.NewMockCatalogStore()
	orders := mocks.NewMockOrderStore()
	reconciler := NewReconciler(orders, catalog, processor, nil)
	return reconciler, catalog, orders
}

func pendingPaidOrder(ref string) *order.Order {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	items := []order.Item{{ProductID: "P1", Title: "Widget", UnitPrice: 10000, Quantity: 2, Amount: 20000}}
	return &order.Order{
		ID:            "id-" + ref,
		Reference:     ref,
		Buyer:         testBuyer,
		Items:         items,
		PaymentMethod: order.PaymentPaid,
		Status:        order.StatusPending,
		Total:         20000,
		SessionToken:  "tok",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func settlementStatus() *payment.TransactionStatus {
	return &payment.TransactionStatus{
		TransactionStatus: "settlement",
		PaymentType:       "bank_transfer",
		TransactionID:     "txn-1",
		Currency:          "IDR",
		VANumbers:         []payment.VANumber{{Bank: "bca", VANumber: "123"}},
	}
}

// ============================================
// Short-circuit Tests
// ============================================

func TestReconciler_FreeOrderNeverQueriesProcessor(t *testing.T) {
	processor := &fakeStatusQuerier{status: settlementStatus()}
	reconciler, _, _ := newTestReconciler(processor)

	ord := pendingPaidOrder("ORD-FREE")
	ord.PaymentMethod = order.PaymentFree
	ord.Status = order.StatusSuccess

	got := reconciler.ReconcileOnRead(context.Background(), ord)

	assert.Equal(t, order.StatusSuccess, got.Status)
	assert.Zero(t, processor.calls)
}

func TestReconciler_SettledOrderWithDetailNeverQueriesProcessor(t *testing.T) {
	processor := &fakeStatusQuerier{status: settlementStatus()}
	reconciler, catalog, _ := newTestReconciler(processor)

	ord := pendingPaidOrder("ORD-DONE")
	ord.Status = order.StatusSuccess
	ord.PaymentDetail = &order.PaymentDetail{PaymentType: "bank_transfer"}

	got := reconciler.ReconcileOnRead(context.Background(), ord)

	assert.Equal(t, order.StatusSuccess, got.Status)
	assert.Zero(t, processor.calls)
	assert.Empty(t, catalog.ApplySaleCalls, "side effect never re-fires on a settled order")
}

// ============================================
// Transition Tests
// ============================================

func TestReconciler_SettlementMovesToSuccessWithSale(t *testing.T) {
	processor := &fakeStatusQuerier{status: settlementStatus()}
	reconciler, catalog, orders := newTestReconciler(processor)
	catalog.SetProduct(paidProduct("P1", 10000))

	ord := pendingPaidOrder("ORD-1")
	orders.SetOrder(ord)

	got := reconciler.ReconcileOnRead(context.Background(), pendingPaidOrder("ORD-1"))

	assert.Equal(t, order.StatusSuccess, got.Status)
	require.NotNil(t, got.PaymentDetail)
	assert.Equal(t, "bank_transfer", got.PaymentDetail.PaymentType)
	assert.Equal(t, "bca", got.PaymentDetail.Bank)

	stored, err := orders.GetOrder(context.Background(), "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusSuccess, stored.Status)

	require.Len(t, catalog.ApplySaleCalls, 1)
	p, _ := catalog.GetProduct(context.Background(), "P1")
	assert.Equal(t, 8, p.Stock)
	assert.Equal(t, 2, p.Sold)
}

func TestReconciler_DenyMovesToCanceledWithoutSale(t *testing.T) {
	processor := &fakeStatusQuerier{status: &payment.TransactionStatus{TransactionStatus: "deny", PaymentType: "credit_card"}}
	reconciler, catalog, orders := newTestReconciler(processor)

	orders.SetOrder(pendingPaidOrder("ORD-2"))

	got := reconciler.ReconcileOnRead(context.Background(), pendingPaidOrder("ORD-2"))

	assert.Equal(t, order.StatusCanceled, got.Status)
	assert.Empty(t, catalog.ApplySaleCalls)
}

func TestReconciler_ExpireMovesToExpired(t *testing.T) {
	processor := &fakeStatusQuerier{status: &payment.TransactionStatus{TransactionStatus: "expire"}}
	reconciler, catalog, orders := newTestReconciler(processor)

	orders.SetOrder(pendingPaidOrder("ORD-3"))

	got := reconciler.ReconcileOnRead(context.Background(), pendingPaidOrder("ORD-3"))

	assert.Equal(t, order.StatusExpired, got.Status)
	assert.Empty(t, catalog.ApplySaleCalls)
}

func TestReconciler_PendingStatusIsNoOp(t *testing.T) {
	processor := &fakeStatusQuerier{status: &payment.TransactionStatus{TransactionStatus: "pending"}}
	reconciler, _, orders := newTestReconciler(processor)

	orders.SetOrder(pendingPaidOrder("ORD-4"))

	got := reconciler.ReconcileOnRead(context.Background(), pendingPaidOrder("ORD-4"))

	assert.Equal(t, order.StatusPending, got.Status)
	assert.Empty(t, orders.UpdateStatusCalls)
}

func TestReconciler_UnrecognizedStatusLeavesOrderUnchanged(t *testing.T) {
	processor := &fakeStatusQuerier{status: &payment.TransactionStatus{TransactionStatus: "refund"}}
	reconciler, catalog, orders := newTestReconciler(processor)

	orders.SetOrder(pendingPaidOrder("ORD-5"))

	got := reconciler.ReconcileOnRead(context.Background(), pendingPaidOrder("ORD-5"))

	assert.Equal(t, order.StatusPending, got.Status)
	assert.Empty(t, orders.UpdateStatusCalls)
	assert.Empty(t, catalog.ApplySaleCalls)
}

// ============================================
// Failure Tolerance Tests
// ============================================

func TestReconciler_ProcessorNotFoundStaysPending(t *testing.T) {
	processor := &fakeStatusQuerier{err: payment.ErrTransactionNotFound}
	reconciler, _, orders := newTestReconciler(processor)

	orders.SetOrder(pendingPaidOrder("ORD-6"))

	got := reconciler.ReconcileOnRead(context.Background(), pendingPaidOrder("ORD-6"))

	assert.Equal(t, order.StatusPending, got.Status)
	assert.Equal(t, 1, processor.calls)
	assert.Empty(t, orders.UpdateStatusCalls)
}

func TestReconciler_TransientProcessorErrorReturnsStaleOrder(t *testing.T) {
	processor := &fakeStatusQuerier{err: payment.ErrProcessor}
	reconciler, _, orders := newTestReconciler(processor)

	orders.SetOrder(pendingPaidOrder("ORD-7"))

	got := reconciler.ReconcileOnRead(context.Background(), pendingPaidOrder("ORD-7"))

	assert.Equal(t, order.StatusPending, got.Status)
	assert.Empty(t, orders.UpdateStatusCalls)
}

// ============================================
// Exactly-Once Side Effect Tests
// ============================================

func TestReconciler_ConcurrentReconciliationsApplySaleOnce(t *testing.T) {
	processor := &fakeStatusQuerier{status: settlementStatus()}
	reconciler, catalog, orders := newTestReconciler(processor)
	catalog.SetProduct(paidProduct("P1", 10000))

	orders.SetOrder(pendingPaidOrder("ORD-8"))

	// Both attempts hold a snapshot that still reads pending, simulating
	// two requests that each observed the order before either wrote.
	first := reconciler.ReconcileOnRead(context.Background(), pendingPaidOrder("ORD-8"))
	second := reconciler.ReconcileOnRead(context.Background(), pendingPaidOrder("ORD-8"))

	assert.Equal(t, order.StatusSuccess, first.Status)
	assert.Equal(t, order.StatusSuccess, second.Status)

	require.Len(t, orders.UpdateStatusCalls, 2)
	assert.True(t, orders.UpdateStatusCalls[0].Swapped)
	assert.False(t, orders.UpdateStatusCalls[1].Swapped, "second attempt must lose the conditional update")

	assert.Len(t, catalog.ApplySaleCalls, 1, "inventory side effect applies exactly once")
}

// ============================================
// Detail Backfill Tests
// ============================================

func TestReconciler_BackfillsMissingDetailWithoutStatusChange(t *testing.T) {
	processor := &fakeStatusQuerier{status: settlementStatus()}
	reconciler, catalog, orders := newTestReconciler(processor)

	ord := pendingPaidOrder("ORD-9")
	ord.Status = order.StatusSuccess
	ord.PaymentDetail = nil
	orders.SetOrder(ord)

	snapshot := pendingPaidOrder("ORD-9")
	snapshot.Status = order.StatusSuccess
	snapshot.PaymentDetail = nil

	got := reconciler.ReconcileOnRead(context.Background(), snapshot)

	assert.Equal(t, order.StatusSuccess, got.Status)
	require.NotNil(t, got.PaymentDetail)
	assert.Equal(t, "bank_transfer", got.PaymentDetail.PaymentType)
	assert.Empty(t, orders.UpdateStatusCalls, "backfill never runs a status transition")
	assert.Empty(t, catalog.ApplySaleCalls, "backfill never re-applies the side effect")

	stored, err := orders.GetOrder(context.Background(), "ORD-9")
	require.NoError(t, err)
	assert.Equal(t, "bank_transfer", stored.PaymentDetail.PaymentType)
}
