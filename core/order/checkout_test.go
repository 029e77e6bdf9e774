package order

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/ismellshop/shop/core/cart"
	"github.com/ismellshop/shop/core/product"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decimalEq lets cmp compare decimals by value rather than by internal
// representation, so 10 and 10.00 are the same price.
var decimalEq = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

// mockStore implements Store with an in-memory stock table. Mutations are
// staged during Transact and applied only when fn succeeds, mirroring the
// all-or-nothing contract of the SQL implementation.
type mockStore struct {
	lines    []cart.Line
	linesErr error

	stock map[string]int

	failCreateItem error

	orders  []Order
	items   []Item
	cleared []string
}

func (m *mockStore) CartLines(ctx context.Context, userID string) ([]cart.Line, error) {
	if m.linesErr != nil {
		return nil, m.linesErr
	}
	out := make([]cart.Line, len(m.lines))
	copy(out, m.lines)
	return out, nil
}

func (m *mockStore) Transact(ctx context.Context, fn func(tx TxStore) error) error {
	staged := &mockTx{
		store: m,
		stock: make(map[string]int, len(m.stock)),
	}
	for k, v := range m.stock {
		staged.stock[k] = v
	}

	if err := fn(staged); err != nil {
		return err
	}

	m.stock = staged.stock
	m.orders = append(m.orders, staged.orders...)
	m.items = append(m.items, staged.items...)
	m.cleared = append(m.cleared, staged.cleared...)
	for _, userID := range staged.cleared {
		remaining := m.lines[:0]
		for _, ln := range m.lines {
			if ln.UserID != userID {
				remaining = append(remaining, ln)
			}
		}
		m.lines = remaining
	}
	return nil
}

type mockTx struct {
	store   *mockStore
	stock   map[string]int
	orders  []Order
	items   []Item
	cleared []string
}

func (m *mockTx) CreateOrder(ctx context.Context, ord Order) error {
	m.orders = append(m.orders, ord)
	return nil
}

func (m *mockTx) CreateItem(ctx context.Context, item Item) error {
	if err := m.store.failCreateItem; err != nil {
		return err
	}
	m.items = append(m.items, item)
	return nil
}

func (m *mockTx) DecrementStock(ctx context.Context, productID string, quantity int) error {
	have := m.stock[productID]
	if have < quantity {
		return &product.InsufficientStockError{
			ProductID: productID,
			Requested: quantity,
			Available: have,
		}
	}
	m.stock[productID] = have - quantity
	return nil
}

func (m *mockTx) ClearCart(ctx context.Context, userID string) error {
	m.cleared = append(m.cleared, userID)
	return nil
}

func line(userID, productID string, qty int, price string, stock int) cart.Line {
	return cart.Line{
		UserID:    userID,
		ProductID: productID,
		Quantity:  qty,
		Product: product.Product{
			ID:    productID,
			Name:  "perfume " + productID,
			Price: decimal.RequireFromString(price),
			Stock: stock,
		},
	}
}

func TestCheckout(t *testing.T) {
	store := &mockStore{
		lines: []cart.Line{
			line("u1", "a", 2, "10.00", 5),
			line("u1", "b", 1, "20.00", 1),
		},
		stock: map[string]int{"a": 5, "b": 1},
	}

	full, err := Checkout(context.Background(), store, "u1")
	require.NoError(t, err)

	assert.Equal(t, "u1", full.UserID)
	assert.True(t, full.Total.Equal(decimal.RequireFromString("40.00")),
		"total = %s, want 40.00", full.Total)

	require.Len(t, store.orders, 1)
	assert.True(t, store.orders[0].Total.Equal(full.Total))

	wantItems := []Item{
		{ProductID: "a", Quantity: 2, Price: decimal.RequireFromString("10.00")},
		{ProductID: "b", Quantity: 1, Price: decimal.RequireFromString("20.00")},
	}
	ignore := cmpopts.IgnoreFields(Item{}, "OrderID", "CreatedAt")
	if diff := cmp.Diff(wantItems, store.items, decimalEq, ignore); diff != "" {
		t.Errorf("stored items mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, 3, store.stock["a"])
	assert.Equal(t, 0, store.stock["b"])
	assert.Equal(t, []string{"u1"}, store.cleared)
	assert.Empty(t, store.lines, "cart should be empty after checkout")

	require.Len(t, full.Items, 2)
	assert.Equal(t, 3, full.Items[0].Product.Stock)
	assert.Equal(t, 0, full.Items[1].Product.Stock)
}

func TestCheckoutEmptyCart(t *testing.T) {
	store := &mockStore{stock: map[string]int{}}

	_, err := Checkout(context.Background(), store, "u1")
	require.ErrorIs(t, err, ErrEmptyCart)

	assert.Empty(t, store.orders)
	assert.Empty(t, store.cleared)
}

func TestCheckoutInsufficientStock(t *testing.T) {
	store := &mockStore{
		lines: []cart.Line{
			line("u1", "a", 1, "10.00", 4),
			line("u1", "c", 1, "15.00", 0),
		},
		stock: map[string]int{"a": 4, "c": 0},
	}

	_, err := Checkout(context.Background(), store, "u1")

	var stockErr *product.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "c", stockErr.ProductID)
	assert.Equal(t, 1, stockErr.Requested)
	assert.Equal(t, 0, stockErr.Available)

	// Whole-cart validation failed, so nothing moved: no order, no stock
	// change even for the line that had enough.
	assert.Empty(t, store.orders)
	assert.Empty(t, store.items)
	assert.Equal(t, 4, store.stock["a"])
	assert.Len(t, store.lines, 2)
	assert.Empty(t, store.cleared)
}

func TestCheckoutStockRacedAtCommit(t *testing.T) {
	// Validation sees stock 2, but by the time the decrement runs another
	// checkout took it. The whole transaction must roll back.
	store := &mockStore{
		lines: []cart.Line{
			line("u1", "a", 1, "10.00", 2),
			line("u1", "d", 2, "30.00", 2),
		},
		stock: map[string]int{"a": 5, "d": 1},
	}

	_, err := Checkout(context.Background(), store, "u1")

	var stockErr *product.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "d", stockErr.ProductID)
	assert.Equal(t, 2, stockErr.Requested)
	assert.Equal(t, 1, stockErr.Available)

	assert.Empty(t, store.orders)
	assert.Empty(t, store.items)
	assert.Equal(t, 5, store.stock["a"], "earlier decrement must be rolled back")
	assert.Equal(t, 1, store.stock["d"])
	assert.Len(t, store.lines, 2)
}

func TestCheckoutStorageFailure(t *testing.T) {
	boom := errors.New("connection reset")
	store := &mockStore{
		lines: []cart.Line{
			line("u1", "a", 1, "10.00", 5),
		},
		stock:          map[string]int{"a": 5},
		failCreateItem: boom,
	}

	_, err := Checkout(context.Background(), store, "u1")
	require.ErrorIs(t, err, boom)

	assert.Empty(t, store.orders)
	assert.Equal(t, 5, store.stock["a"])
	assert.Len(t, store.lines, 1)
}

func TestCheckoutFetchFailure(t *testing.T) {
	boom := errors.New("db down")
	store := &mockStore{linesErr: boom}

	_, err := Checkout(context.Background(), store, "u1")
	require.ErrorIs(t, err, boom)
}
