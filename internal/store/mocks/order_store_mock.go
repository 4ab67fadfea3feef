package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/example/ec-marketplace/internal/domain/order"
)

// UpdateStatusCall records parameters passed to UpdateStatus
type UpdateStatusCall struct {
	Reference string
	Expect    order.Status
	Next      order.Status
	Detail    *order.PaymentDetail
	Swapped   bool
}

// MockOrderStore is a mock implementation of store.OrderStore for testing
type MockOrderStore struct {
	mu     sync.Mutex
	orders map[string]*order.Order

	// For tracking calls in tests
	CreateOrderCalls  []string
	UpdateStatusCalls []UpdateStatusCall

	// Forced errors
	CreateOrderErr  error
	UpdateStatusErr error
}

// NewMockOrderStore creates a new MockOrderStore
func NewMockOrderStore() *MockOrderStore {
	return &MockOrderStore{
		orders:            make(map[string]*order.Order),
		CreateOrderCalls:  make([]string, 0),
		UpdateStatusCalls: make([]UpdateStatusCall, 0),
	}
}

// SetOrder seeds an order directly for testing
func (m *MockOrderStore) SetOrder(o *order.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.Reference] = o
}

func (m *MockOrderStore) CreateOrder(ctx context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateOrderCalls = append(m.CreateOrderCalls, o.Reference)
	if m.CreateOrderErr != nil {
		return m.CreateOrderErr
	}
	if _, ok := m.orders[o.Reference]; ok {
		return order.ErrDuplicateReference
	}

	clone := *o
	m.orders[o.Reference] = &clone
	return nil
}

func (m *MockOrderStore) GetOrder(ctx context.Context, reference string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[reference]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	clone := *o
	return &clone, nil
}

func (m *MockOrderStore) ListOrdersByBuyer(ctx context.Context, buyerID string) ([]*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	orders := make([]*order.Order, 0)
	for _, o := range m.orders {
		if o.Buyer.ID == buyerID {
			clone := *o
			orders = append(orders, &clone)
		}
	}
	return orders, nil
}

func (m *MockOrderStore) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.orders[reference]
	return ok, nil
}

func (m *MockOrderStore) SetSessionToken(ctx context.Context, reference, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[reference]
	if !ok {
		return order.ErrOrderNotFound
	}
	o.SessionToken = token
	return nil
}

func (m *MockOrderStore) UpdateStatus(ctx context.Context, reference string, expect, next order.Status, detail *order.PaymentDetail, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UpdateStatusErr != nil {
		return false, m.UpdateStatusErr
	}

	o, ok := m.orders[reference]
	if !ok {
		return false, order.ErrOrderNotFound
	}

	// Conditional check against the stored status, like the database would.
	swapped := o.Status == expect
	if swapped {
		o.Status = next
		if detail != nil {
			o.PaymentDetail = detail
		}
		o.UpdatedAt = at
	}

	m.UpdateStatusCalls = append(m.UpdateStatusCalls, UpdateStatusCall{
		Reference: reference,
		Expect:    expect,
		Next:      next,
		Detail:    detail,
		Swapped:   swapped,
	})
	return swapped, nil
}

func (m *MockOrderStore) UpdatePaymentDetail(ctx context.Context, reference string, detail *order.PaymentDetail, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[reference]
	if !ok {
		return order.ErrOrderNotFound
	}
	o.PaymentDetail = detail
	o.UpdatedAt = at
	return nil
}

func (m *MockOrderStore) HasSuccessfulPurchase(ctx context.Context, buyerID, productID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, o := range m.orders {
		if o.Buyer.ID != buyerID || o.Status != order.StatusSuccess {
			continue
		}
		for _, item := range o.Items {
			if item.ProductID == productID {
				return true, nil
			}
		}
	}
	return false, nil
}
