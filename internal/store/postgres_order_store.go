package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/example/ec-marketplace/internal/domain/order"
)

// PostgresOrderStore implements OrderStore on PostgreSQL. Buyer and item
// snapshots are stored as JSONB columns; they are write-once, so there is
// nothing relational to gain from splitting them out.
type PostgresOrderStore struct {
	db *sql.DB
}

func NewPostgresOrderStore(db *sql.DB) *PostgresOrderStore {
	return &PostgresOrderStore{db: db}
}

func (s *PostgresOrderStore) CreateOrder(ctx context.Context, o *order.Order) error {
	buyer, err := json.Marshal(o.Buyer)
	if err != nil {
		return err
	}
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	detail, err := marshalNullable(o.PaymentDetail)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO orders (id, reference, buyer_id, buyer, items, payment_method, status,
			total, session_token, payment_detail, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, o.ID, o.Reference, o.Buyer.ID, buyer, items, o.PaymentMethod, o.Status,
		o.Total, nullString(o.SessionToken), detail, o.CreatedAt, o.UpdatedAt)
	if isUniqueViolation(err) {
		return order.ErrDuplicateReference
	}
	return err
}

func (s *PostgresOrderStore) GetOrder(ctx context.Context, reference string) (*order.Order, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, reference, buyer, items, payment_method, status, total,
			session_token, payment_detail, created_at, updated_at
		FROM orders WHERE reference = $1
	`, reference)
	return scanOrder(row)
}

func (s *PostgresOrderStore) ListOrdersByBuyer(ctx context.Context, buyerID string) ([]*order.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, reference, buyer, items, payment_method, status, total,
			session_token, payment_detail, created_at, updated_at
		FROM orders WHERE buyer_id = $1 ORDER BY created_at DESC
	`, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (s *PostgresOrderStore) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM orders WHERE reference = $1)", reference,
	).Scan(&exists)
	return exists, err
}

func (s *PostgresOrderStore) SetSessionToken(ctx context.Context, reference, token string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE orders SET session_token = $1, updated_at = $2 WHERE reference = $3
	`, token, time.Now(), reference)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// UpdateStatus is the single conditional-update primitive every status
// write funnels through. The WHERE clause carries the expected current
// status, so of two racing reconciliations only one observes an affected
// row and applies the transition's side effects.
func (s *PostgresOrderStore) UpdateStatus(ctx context.Context, reference string, expect, next order.Status, detail *order.PaymentDetail, at time.Time) (bool, error) {
	detailJSON, err := marshalNullable(detail)
	if err != nil {
		return false, err
	}

	var result sql.Result
	if detailJSON != nil {
		result, err = s.db.ExecContext(ctx, `
			UPDATE orders SET status = $1, payment_detail = $2, updated_at = $3
			WHERE reference = $4 AND status = $5
		`, next, detailJSON, at, reference, expect)
	} else {
		result, err = s.db.ExecContext(ctx, `
			UPDATE orders SET status = $1, updated_at = $2
			WHERE reference = $3 AND status = $4
		`, next, at, reference, expect)
	}
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (s *PostgresOrderStore) UpdatePaymentDetail(ctx context.Context, reference string, detail *order.PaymentDetail, at time.Time) error {
	detailJSON, err := marshalNullable(detail)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE orders SET payment_detail = $1, updated_at = $2 WHERE reference = $3
	`, detailJSON, at, reference)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (s *PostgresOrderStore) HasSuccessfulPurchase(ctx context.Context, buyerID, productID string) (bool, error) {
	match, err := json.Marshal([]map[string]string{{"product_id": productID}})
	if err != nil {
		return false, err
	}

	var exists bool
	err = s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM orders
			WHERE buyer_id = $1 AND status = $2 AND items @> $3::jsonb
		)
	`, buyerID, order.StatusSuccess, match).Scan(&exists)
	return exists, err
}

func scanOrder(row rowScanner) (*order.Order, error) {
	var o order.Order
	var buyer, items []byte
	var detail []byte
	var sessionToken sql.NullString

	err := row.Scan(&o.ID, &o.Reference, &buyer, &items, &o.PaymentMethod, &o.Status,
		&o.Total, &sessionToken, &detail, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, order.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(buyer, &o.Buyer); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, err
	}
	if len(detail) > 0 {
		var d order.PaymentDetail
		if err := json.Unmarshal(detail, &d); err != nil {
			return nil, err
		}
		o.PaymentDetail = &d
	}
	o.SessionToken = sessionToken.String
	return &o, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return order.ErrOrderNotFound
	}
	return nil
}
