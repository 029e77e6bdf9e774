package order

import (
	"time"

	"github.com/ismellshop/shop/core/product"
	"github.com/shopspring/decimal"
)

type Order struct {
	ID        string          `json:"id" db:"order_id"`
	UserID    string          `json:"userId" db:"user_id"`
	Total     decimal.Decimal `json:"total" db:"total"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
}

// Item is one order line. Price is the unit price captured at checkout
// time and is never recomputed, so historical totals stay stable when the
// catalog price moves.
type Item struct {
	OrderID   string          `json:"orderId" db:"order_id"`
	ProductID string          `json:"productId" db:"product_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	Price     decimal.Decimal `json:"price" db:"price"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
}

// ItemFull is an order line joined with its product for client display.
type ItemFull struct {
	OrderID   string          `json:"orderId" db:"order_id"`
	ProductID string          `json:"productId" db:"product_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	Price     decimal.Decimal `json:"price" db:"price"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
	Product   product.Product `json:"product" db:"product"`
}

type OrderFull struct {
	Order
	Items []ItemFull `json:"items"`
}
