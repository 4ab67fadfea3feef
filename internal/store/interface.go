package store

import (
	"context"
	"errors"
	"time"

	"github.com/example/ec-marketplace/internal/domain/order"
	"github.com/example/ec-marketplace/internal/domain/product"
	"github.com/example/ec-marketplace/internal/domain/rating"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// CatalogStore is the read/write surface over the product catalog.
type CatalogStore interface {
	GetProduct(ctx context.Context, id string) (*product.Product, error)
	ListProducts(ctx context.Context, publishedOnly bool) ([]*product.Product, error)
	CreateProduct(ctx context.Context, p *product.Product) error
	UpdateProduct(ctx context.Context, p *product.Product) error

	// ApplySale decrements stock and increments the sold counter for each
	// line item, atomically per product. It fires at most once per order,
	// on the order's transition into success, and is never reversed.
	ApplySale(ctx context.Context, items []order.Item) error
}

// OrderStore persists orders. After creation, only the status, session
// token and payment-detail fields are ever written, and status moves only
// through UpdateStatus.
type OrderStore interface {
	CreateOrder(ctx context.Context, o *order.Order) error
	GetOrder(ctx context.Context, reference string) (*order.Order, error)
	ListOrdersByBuyer(ctx context.Context, buyerID string) ([]*order.Order, error)
	ReferenceExists(ctx context.Context, reference string) (bool, error)
	SetSessionToken(ctx context.Context, reference, token string) error

	// UpdateStatus performs the conditional transition
	// (reference, expect) -> next, merging in the payment detail when
	// non-nil. It reports false without error when the order's current
	// status no longer matches expect, which is how concurrent
	// reconciliations of the same order are serialized.
	UpdateStatus(ctx context.Context, reference string, expect, next order.Status, detail *order.PaymentDetail, at time.Time) (bool, error)

	// UpdatePaymentDetail backfills the payment snapshot on an order whose
	// status is already settled but whose detail was never recorded.
	UpdatePaymentDetail(ctx context.Context, reference string, detail *order.PaymentDetail, at time.Time) error

	// HasSuccessfulPurchase reports whether the buyer has at least one
	// success order containing the product. Gates rating creation.
	HasSuccessfulPurchase(ctx context.Context, buyerID, productID string) (bool, error)
}

// RatingStore persists product ratings, one per (product, buyer) pair.
type RatingStore interface {
	CreateRating(ctx context.Context, r *rating.Rating) error
	ListRatings(ctx context.Context, productID string) ([]*rating.Rating, error)
}

// User is an account row used to resolve login credentials into a buyer
// identity. Orders never reference it live; they carry a snapshot.
type User struct {
	ID           string
	Name         string
	Email        string
	Picture      string
	Role         string
	PasswordHash string
	CreatedAt    time.Time
}

type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, u *User) error
}
