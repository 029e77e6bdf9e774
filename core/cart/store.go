package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var ErrItemNotFound = errors.New("cart item not found")

// FetchLines returns the user's cart joined with the current product rows,
// in insertion order.
func FetchLines(ctx context.Context, db sqlx.ExtContext, userID string) ([]Line, error) {
	const q = `
	SELECT
		ci.user_id, ci.product_id, ci.quantity, ci.created_at, ci.updated_at,
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
	FROM cart_items ci
	JOIN products p USING (product_id)
	WHERE ci.user_id = $1
	ORDER BY ci.created_at, ci.product_id`

	lines := []Line{}
	if err := sqlx.SelectContext(ctx, db, &lines, q, userID); err != nil {
		return nil, fmt.Errorf("selecting cart lines of user[%s]: %w", userID, err)
	}
	return lines, nil
}

// Upsert stores the item, replacing the quantity of an existing entry for
// the same product rather than adding to it.
func Upsert(ctx context.Context, db sqlx.ExtContext, item Item) error {
	const q = `
	INSERT INTO cart_items (user_id, product_id, quantity, created_at, updated_at)
	VALUES (:user_id, :product_id, :quantity, :created_at, :updated_at)
	ON CONFLICT (user_id, product_id) DO UPDATE SET
		quantity = EXCLUDED.quantity,
		updated_at = EXCLUDED.updated_at`

	if _, err := sqlx.NamedExecContext(ctx, db, q, item); err != nil {
		return fmt.Errorf("upserting cart item: %w", err)
	}
	return nil
}

// DeleteItem removes one product from the user's cart. Scoping on the user
// means an item owned by someone else looks absent.
func DeleteItem(ctx context.Context, db sqlx.ExtContext, userID string, productID string) error {
	const q = `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`

	res, err := db.ExecContext(ctx, q, userID, productID)
	if err != nil {
		return fmt.Errorf("deleting cart item[%s] of user[%s]: %w", productID, userID, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrItemNotFound
	}
	return nil
}

// Delete empties the user's cart. Deleting an already-empty cart is a no-op.
func Delete(ctx context.Context, db sqlx.ExtContext, userID string) error {
	const q = `DELETE FROM cart_items WHERE user_id = $1`

	if _, err := db.ExecContext(ctx, q, userID); err != nil {
		return fmt.Errorf("flushing cart of user[%s]: %w", userID, err)
	}
	return nil
}
