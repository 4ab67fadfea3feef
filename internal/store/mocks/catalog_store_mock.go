package mocks

import (
	"context"
	"sync"

	"github.com/example/ec-marketplace/internal/domain/order"
	"github.com/example/ec-marketplace/internal/domain/product"
)

// MockCatalogStore is a mock implementation of store.CatalogStore for testing
type MockCatalogStore struct {
	mu       sync.RWMutex
	products map[string]*product.Product

	// For tracking calls in tests
	ApplySaleCalls [][]order.Item

	// Forced errors
	ApplySaleErr error
}

// NewMockCatalogStore creates a new MockCatalogStore
func NewMockCatalogStore() *MockCatalogStore {
	return &MockCatalogStore{
		products:       make(map[string]*product.Product),
		ApplySaleCalls: make([][]order.Item, 0),
	}
}

// SetProduct seeds a product directly for testing
func (m *MockCatalogStore) SetProduct(p *product.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
}

func (m *MockCatalogStore) GetProduct(ctx context.Context, id string) (*product.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return nil, product.ErrProductNotFound
	}
	clone := *p
	return &clone, nil
}

func (m *MockCatalogStore) ListProducts(ctx context.Context, publishedOnly bool) ([]*product.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	products := make([]*product.Product, 0, len(m.products))
	for _, p := range m.products {
		if publishedOnly && !p.Published {
			continue
		}
		clone := *p
		products = append(products, &clone)
	}
	return products, nil
}

func (m *MockCatalogStore) CreateProduct(ctx context.Context, p *product.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
	return nil
}

func (m *MockCatalogStore) UpdateProduct(ctx context.Context, p *product.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; !ok {
		return product.ErrProductNotFound
	}
	m.products[p.ID] = p
	return nil
}

func (m *MockCatalogStore) ApplySale(ctx context.Context, items []order.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ApplySaleCalls = append(m.ApplySaleCalls, items)
	if m.ApplySaleErr != nil {
		return m.ApplySaleErr
	}

	for _, item := range items {
		if p, ok := m.products[item.ProductID]; ok {
			p.Stock -= item.Quantity
			p.Sold += item.Quantity
		}
	}
	return nil
}
