package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrNotFound   = errors.New("product not found")
	ErrUniqueSlug = errors.New("product slug is not unique")
)

const uniqueViolation = "23505"

// InsufficientStockError reports a product that cannot cover a requested
// quantity. It is returned both by the checkout validation pass and by the
// conditional decrement when a concurrent buyer got there first.
type InsufficientStockError struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for product[%s]: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func Create(ctx context.Context, db sqlx.ExtContext, prod Product) error {
	const q = `
	INSERT INTO products
		(product_id, category_id, name, slug, description, price, stock, image_url, created_at, updated_at)
	VALUES
		(:product_id, :category_id, :name, :slug, :description, :price, :stock, :image_url, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, prod); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrUniqueSlug
		}
		return fmt.Errorf("inserting product: %w", err)
	}
	return nil
}

func Update(ctx context.Context, db sqlx.ExtContext, prod Product) error {
	const q = `
	UPDATE products SET
		category_id = :category_id,
		name = :name,
		slug = :slug,
		description = :description,
		price = :price,
		stock = :stock,
		image_url = :image_url,
		updated_at = :updated_at,
		version = version + 1
	WHERE product_id = :product_id`

	res, err := sqlx.NamedExecContext(ctx, db, q, prod)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrUniqueSlug
		}
		return fmt.Errorf("updating product[%s]: %w", prod.ID, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func Delete(ctx context.Context, db sqlx.ExtContext, id string) error {
	const q = `DELETE FROM products WHERE product_id = $1`

	res, err := db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("deleting product[%s]: %w", id, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Product, error) {
	const q = `SELECT * FROM products WHERE product_id = $1`

	var prod Product
	if err := sqlx.GetContext(ctx, db, &prod, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("selecting product[%s]: %w", id, err)
	}
	return prod, nil
}

func List(ctx context.Context, db sqlx.ExtContext, page int, perPage int) (Page, error) {
	const q = `
	SELECT p.*, c.name AS category_name
	FROM products p
	JOIN categories c USING (category_id)
	ORDER BY p.created_at DESC, p.product_id
	LIMIT $1 OFFSET $2`

	prods := []Listed{}
	if err := sqlx.SelectContext(ctx, db, &prods, q, perPage, (page-1)*perPage); err != nil {
		return Page{}, fmt.Errorf("selecting products: %w", err)
	}

	var total int
	if err := sqlx.GetContext(ctx, db, &total, `SELECT COUNT(*) FROM products`); err != nil {
		return Page{}, fmt.Errorf("counting products: %w", err)
	}

	return Page{Data: prods, Page: page, PerPage: perPage, Total: total}, nil
}

func Search(ctx context.Context, db sqlx.ExtContext, term string) ([]Product, error) {
	const q = `
	SELECT * FROM products
	WHERE name ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%'
	ORDER BY name`

	prods := []Product{}
	if err := sqlx.SelectContext(ctx, db, &prods, q, term); err != nil {
		return nil, fmt.Errorf("searching products: %w", err)
	}
	return prods, nil
}

// DecrementStock subtracts qty from the product's stock only if enough
// remains. The condition rides in the UPDATE itself so concurrent
// decrements can never drive the count negative, regardless of what the
// caller read earlier.
func DecrementStock(ctx context.Context, db sqlx.ExtContext, id string, qty int) error {
	const q = `UPDATE products SET stock = stock - $2, version = version + 1
	WHERE product_id = $1 AND stock >= $2`

	res, err := db.ExecContext(ctx, q, id, qty)
	if err != nil {
		return fmt.Errorf("decrementing stock of product[%s]: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("decrementing stock of product[%s]: %w", id, err)
	}
	if n == 1 {
		return nil
	}

	// The guard refused: either the product is gone or the remaining stock
	// is short. Re-read inside the same transaction to report which.
	prod, err := Fetch(ctx, db, id)
	if err != nil {
		return err
	}

	return &InsufficientStockError{
		ProductID: prod.ID,
		Name:      prod.Name,
		Requested: qty,
		Available: prod.Stock,
	}
}
