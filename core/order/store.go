package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ismellshop/shop/core/cart"
	"github.com/ismellshop/shop/core/product"
	"github.com/ismellshop/shop/database"
	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("order not found")

// Store is the persistence surface the checkout workflow touches. It
// exposes no raw stock writes: the only way to take stock is the
// conditional decrement inside a transaction.
type Store interface {
	CartLines(ctx context.Context, userID string) ([]cart.Line, error)
	Transact(ctx context.Context, fn func(tx TxStore) error) error
}

// TxStore is the slice of Store usable inside one transaction. Every call
// either lands with the enclosing commit or disappears with the rollback.
type TxStore interface {
	CreateOrder(ctx context.Context, ord Order) error
	CreateItem(ctx context.Context, item Item) error
	DecrementStock(ctx context.Context, productID string, quantity int) error
	ClearCart(ctx context.Context, userID string) error
}

type SQLStore struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) CartLines(ctx context.Context, userID string) ([]cart.Line, error) {
	return cart.FetchLines(ctx, s.db, userID)
}

func (s *SQLStore) Transact(ctx context.Context, fn func(tx TxStore) error) error {
	return database.Transaction(s.db, func(tx sqlx.ExtContext) error {
		return fn(&txStore{ext: tx})
	})
}

type txStore struct {
	ext sqlx.ExtContext
}

func (s *txStore) CreateOrder(ctx context.Context, ord Order) error {
	return Create(ctx, s.ext, ord)
}

func (s *txStore) CreateItem(ctx context.Context, item Item) error {
	return CreateItem(ctx, s.ext, item)
}

func (s *txStore) DecrementStock(ctx context.Context, productID string, quantity int) error {
	return product.DecrementStock(ctx, s.ext, productID, quantity)
}

func (s *txStore) ClearCart(ctx context.Context, userID string) error {
	return cart.Delete(ctx, s.ext, userID)
}

func Create(ctx context.Context, db sqlx.ExtContext, ord Order) error {
	const q = `
	INSERT INTO orders (order_id, user_id, total, created_at)
	VALUES (:order_id, :user_id, :total, :created_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, ord); err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}
	return nil
}

func CreateItem(ctx context.Context, db sqlx.ExtContext, item Item) error {
	const q = `
	INSERT INTO order_items (order_id, product_id, quantity, price, created_at)
	VALUES (:order_id, :product_id, :quantity, :price, :created_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, item); err != nil {
		return fmt.Errorf("inserting order item: %w", err)
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Order, error) {
	const q = `SELECT * FROM orders WHERE order_id = $1`

	var ord Order
	if err := sqlx.GetContext(ctx, db, &ord, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("selecting order[%s]: %w", id, err)
	}
	return ord, nil
}

// FetchItems returns the order's lines joined with their products.
func FetchItems(ctx context.Context, db sqlx.ExtContext, orderID string) ([]ItemFull, error) {
	const q = `
	SELECT
		oi.order_id, oi.product_id, oi.quantity, oi.price, oi.created_at,
		p.product_id "product.product_id",
		p.category_id "product.category_id",
		p.name "product.name",
		p.slug "product.slug",
		p.description "product.description",
		p.price "product.price",
		p.stock "product.stock",
		p.image_url "product.image_url",
		p.created_at "product.created_at",
		p.updated_at "product.updated_at",
		p.version "product.version"
	FROM order_items oi
	JOIN products p USING (product_id)
	WHERE oi.order_id = $1
	ORDER BY oi.created_at, oi.product_id`

	items := []ItemFull{}
	if err := sqlx.SelectContext(ctx, db, &items, q, orderID); err != nil {
		return nil, fmt.Errorf("selecting items of order[%s]: %w", orderID, err)
	}
	return items, nil
}

func ListByUser(ctx context.Context, db sqlx.ExtContext, userID string) ([]Order, error) {
	const q = `SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	orders := []Order{}
	if err := sqlx.SelectContext(ctx, db, &orders, q, userID); err != nil {
		return nil, fmt.Errorf("selecting orders of user[%s]: %w", userID, err)
	}
	return orders, nil
}

// ListFullByUser returns the user's orders newest first, each carrying its
// lines joined with the products they were bought as.
func ListFullByUser(ctx context.Context, db sqlx.ExtContext, userID string) ([]OrderFull, error) {
	orders, err := ListByUser(ctx, db, userID)
	if err != nil {
		return nil, err
	}

	full := make([]OrderFull, 0, len(orders))
	for _, ord := range orders {
		items, err := FetchItems(ctx, db, ord.ID)
		if err != nil {
			return nil, err
		}
		full = append(full, OrderFull{Order: ord, Items: items})
	}
	return full, nil
}

func List(ctx context.Context, db sqlx.ExtContext) ([]Order, error) {
	const q = `SELECT * FROM orders ORDER BY created_at DESC`

	orders := []Order{}
	if err := sqlx.SelectContext(ctx, db, &orders, q); err != nil {
		return nil, fmt.Errorf("selecting orders: %w", err)
	}
	return orders, nil
}
