package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/ec-marketplace/internal/domain/order"
	"github.com/example/ec-marketplace/internal/domain/pricing"
	"github.com/example/ec-marketplace/internal/domain/product"
	"github.com/example/ec-marketplace/internal/domain/rating"
	"github.com/lib/pq"
)

// ConnectPostgres opens and pings a PostgreSQL connection
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// PostgresCatalogStore implements CatalogStore on PostgreSQL
type PostgresCatalogStore struct {
	db *sql.DB
}

func NewPostgresCatalogStore(db *sql.DB) *PostgresCatalogStore {
	return &PostgresCatalogStore{db: db}
}

func (s *PostgresCatalogStore) GetProduct(ctx context.Context, id string) (*product.Product, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, thumbnail, price, paid, published, stock, sold, discount, created_at, updated_at
		FROM products WHERE id = $1
	`, id)
	return scanProduct(row)
}

func (s *PostgresCatalogStore) ListProducts(ctx context.Context, publishedOnly bool) ([]*product.Product, error) {
	query := `
		SELECT id, title, thumbnail, price, paid, published, stock, sold, discount, created_at, updated_at
		FROM products ORDER BY created_at DESC
	`
	if publishedOnly {
		query = `
		SELECT id, title, thumbnail, price, paid, published, stock, sold, discount, created_at, updated_at
		FROM products WHERE published = true ORDER BY created_at DESC
	`
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*product.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *PostgresCatalogStore) CreateProduct(ctx context.Context, p *product.Product) error {
	discount, err := marshalNullable(p.Discount)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO products (id, title, thumbnail, price, paid, published, stock, sold, discount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, p.ID, p.Title, p.Thumbnail, p.Price, p.Paid, p.Published, p.Stock, p.Sold, discount, p.CreatedAt, p.UpdatedAt)
	return err
}

func (s *PostgresCatalogStore) UpdateProduct(ctx context.Context, p *product.Product) error {
	discount, err := marshalNullable(p.Discount)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE products SET title = $1, thumbnail = $2, price = $3, paid = $4, published = $5,
			stock = $6, discount = $7, updated_at = $8
		WHERE id = $9
	`, p.Title, p.Thumbnail, p.Price, p.Paid, p.Published, p.Stock, discount, p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return product.ErrProductNotFound
	}
	return nil
}

// ApplySale decrements stock and bumps the sold counter for every line item
// inside one transaction, so a crash mid-order never half-applies a sale.
func (s *PostgresCatalogStore) ApplySale(ctx context.Context, items []order.Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, item := range items {
		_, err := tx.ExecContext(ctx, `
			UPDATE products SET stock = stock - $1, sold = sold + $1, updated_at = $2
			WHERE id = $3
		`, item.Quantity, time.Now(), item.ProductID)
		if err != nil {
			return fmt.Errorf("apply sale for product %s: %w", item.ProductID, err)
		}
	}

	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*product.Product, error) {
	var p product.Product
	var thumbnail sql.NullString
	var discount []byte
	err := row.Scan(&p.ID, &p.Title, &thumbnail, &p.Price, &p.Paid, &p.Published,
		&p.Stock, &p.Sold, &discount, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, product.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Thumbnail = thumbnail.String
	if len(discount) > 0 {
		var d pricing.Discount
		if err := json.Unmarshal(discount, &d); err != nil {
			return nil, err
		}
		p.Discount = &d
	}
	return &p, nil
}

func marshalNullable(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	switch d := v.(type) {
	case *pricing.Discount:
		if d == nil {
			return nil, nil
		}
	case *order.PaymentDetail:
		if d == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

// PostgresUserStore implements UserStore on PostgreSQL
type PostgresUserStore struct {
	db *sql.DB
}

func NewPostgresUserStore(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

func (s *PostgresUserStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	var picture sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, picture, role, password_hash, created_at
		FROM users WHERE email = $1
	`, email).Scan(&u.ID, &u.Name, &u.Email, &picture, &u.Role, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Picture = picture.String
	return &u, nil
}

func (s *PostgresUserStore) CreateUser(ctx context.Context, u *User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, picture, role, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, u.ID, u.Name, u.Email, u.Picture, u.Role, u.PasswordHash, u.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

// PostgresRatingStore implements RatingStore on PostgreSQL
type PostgresRatingStore struct {
	db *sql.DB
}

func NewPostgresRatingStore(db *sql.DB) *PostgresRatingStore {
	return &PostgresRatingStore{db: db}
}

func (s *PostgresRatingStore) CreateRating(ctx context.Context, r *rating.Rating) error {
	// (product_id, buyer_id) carries a unique constraint: one rating per
	// buyer per product.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ratings (id, product_id, buyer_id, buyer_name, value, review, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.ID, r.ProductID, r.BuyerID, r.BuyerName, r.Value, r.Review, r.CreatedAt)
	if isUniqueViolation(err) {
		return rating.ErrAlreadyRated
	}
	return err
}

func (s *PostgresRatingStore) ListRatings(ctx context.Context, productID string) ([]*rating.Rating, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, buyer_id, buyer_name, value, review, created_at
		FROM ratings WHERE product_id = $1 ORDER BY created_at DESC
	`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ratings []*rating.Rating
	for rows.Next() {
		var r rating.Rating
		if err := rows.Scan(&r.ID, &r.ProductID, &r.BuyerID, &r.BuyerName, &r.Value, &r.Review, &r.CreatedAt); err != nil {
			return nil, err
		}
		ratings = append(ratings, &r)
	}
	return ratings, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
