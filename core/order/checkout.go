package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ismellshop/shop/core/product"
	"github.com/ismellshop/shop/validate"
	"github.com/shopspring/decimal"
)

var ErrEmptyCart = errors.New("cart is empty")

// Checkout converts the user's entire cart into one order.
//
// The cart is validated as a whole before anything is written: an empty
// cart or any line short on stock rejects the checkout with zero side
// effects. The commit itself runs in a single transaction that creates the
// order, captures one line per cart entry at the product's current price,
// takes the stock through the store's conditional decrement and empties
// the cart. A decrement that finds the stock already taken by a concurrent
// buyer fails the whole transaction, so either every effect lands or none
// does. The workflow never retries; callers may re-invoke it, which
// revalidates against fresh data.
func Checkout(ctx context.Context, store Store, userID string) (OrderFull, error) {
	lines, err := store.CartLines(ctx, userID)
	if err != nil {
		return OrderFull{}, fmt.Errorf("fetching cart lines of user[%s]: %w", userID, err)
	}

	if len(lines) == 0 {
		return OrderFull{}, ErrEmptyCart
	}

	for _, ln := range lines {
		if ln.Quantity > ln.Product.Stock {
			return OrderFull{}, &product.InsufficientStockError{
				ProductID: ln.ProductID,
				Name:      ln.Product.Name,
				Requested: ln.Quantity,
				Available: ln.Product.Stock,
			}
		}
	}

	total := decimal.Zero
	for _, ln := range lines {
		total = total.Add(ln.Product.Price.Mul(decimal.NewFromInt(int64(ln.Quantity))))
	}

	now := time.Now().UTC()
	ord := Order{
		ID:        validate.GenerateID(),
		UserID:    userID,
		Total:     total,
		CreatedAt: now,
	}

	items := make([]ItemFull, 0, len(lines))
	err = store.Transact(ctx, func(tx TxStore) error {
		if err := tx.CreateOrder(ctx, ord); err != nil {
			return fmt.Errorf("creating order: %w", err)
		}

		for _, ln := range lines {
			item := Item{
				OrderID:   ord.ID,
				ProductID: ln.ProductID,
				Quantity:  ln.Quantity,
				Price:     ln.Product.Price,
				CreatedAt: now,
			}
			if err := tx.CreateItem(ctx, item); err != nil {
				return fmt.Errorf("creating order item for product[%s]: %w", ln.ProductID, err)
			}

			// Conditional decrement: the validation pass above is not a
			// reservation, so re-checking here is what keeps stock from
			// going negative under concurrent checkouts.
			if err := tx.DecrementStock(ctx, ln.ProductID, ln.Quantity); err != nil {
				return err
			}

			prod := ln.Product
			prod.Stock -= ln.Quantity
			items = append(items, ItemFull{
				OrderID:   item.OrderID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Price:     item.Price,
				CreatedAt: item.CreatedAt,
				Product:   prod,
			})
		}

		if err := tx.ClearCart(ctx, userID); err != nil {
			return fmt.Errorf("flushing cart: %w", err)
		}

		return nil
	})
	if err != nil {
		return OrderFull{}, fmt.Errorf("checking out cart of user[%s]: %w", userID, err)
	}

	return OrderFull{Order: ord, Items: items}, nil
}
