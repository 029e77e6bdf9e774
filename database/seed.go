package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// Seed fills an empty database with demo data: one admin, a handful of
// customers, five categories of five perfumes each and one past order per
// customer. Running it against a non-empty database is a no-op.
//
// It speaks raw SQL instead of the core packages to keep this package at
// the bottom of the import graph.
func Seed(ctx context.Context, db *sqlx.DB) error {
	var users int
	if err := db.GetContext(ctx, &users, `SELECT COUNT(*) FROM users`); err != nil {
		return fmt.Errorf("counting users: %w", err)
	}
	if users > 0 {
		return nil
	}

	return Transaction(db, func(tx sqlx.ExtContext) error {
		now := time.Now().UTC()

		hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing seed password: %w", err)
		}

		const insertUser = `
		INSERT INTO users (user_id, name, email, role, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)`

		adminID := uuid.NewString()
		if _, err := tx.ExecContext(ctx, insertUser, adminID, "Admin User", "admin@example.com", "ADMIN", hash, now); err != nil {
			return fmt.Errorf("inserting admin: %w", err)
		}

		customerIDs := make([]string, 0, 5)
		for i := 1; i <= 5; i++ {
			id := uuid.NewString()
			email := fmt.Sprintf("customer%d@example.com", i)
			name := fmt.Sprintf("Customer %d", i)
			if _, err := tx.ExecContext(ctx, insertUser, id, name, email, "USER", hash, now); err != nil {
				return fmt.Errorf("inserting customer %d: %w", i, err)
			}
			customerIDs = append(customerIDs, id)
		}

		type seedProduct struct {
			id    string
			price decimal.Decimal
		}
		var products []seedProduct

		families := []string{"Floral", "Woody", "Citrus", "Oriental", "Fresh"}
		notes := []string{"Rose", "Oud", "Bergamot", "Amber", "Vetiver"}

		for ci, family := range families {
			catID := uuid.NewString()
			catSlug := fmt.Sprintf("%s-%d", family, ci)
			const insertCategory = `
			INSERT INTO categories (category_id, name, slug, created_at, updated_at)
			VALUES ($1, $2, lower($3), $4, $4)`
			if _, err := tx.ExecContext(ctx, insertCategory, catID, family, catSlug, now); err != nil {
				return fmt.Errorf("inserting category %q: %w", family, err)
			}

			for pi, note := range notes {
				p := seedProduct{
					id:    uuid.NewString(),
					price: decimal.NewFromInt(int64(20 + 15*pi + 5*ci)),
				}
				name := fmt.Sprintf("%s %s", note, family)
				slug := fmt.Sprintf("%s-%d-%d", note, ci, pi)
				desc := fmt.Sprintf("A %s fragrance built around %s.", family, note)

				const insertProduct = `
				INSERT INTO products
					(product_id, category_id, name, slug, description, price, stock, created_at, updated_at)
				VALUES ($1, $2, $3, lower($4), $5, $6, $7, $8, $8)`
				if _, err := tx.ExecContext(ctx, insertProduct, p.id, catID, name, slug, desc, p.price, 10+pi*5, now); err != nil {
					return fmt.Errorf("inserting product %q: %w", name, err)
				}
				products = append(products, p)
			}
		}

		// One past order per customer so order history is not empty.
		for i, userID := range customerIDs {
			orderID := uuid.NewString()

			const insertOrder = `
			INSERT INTO orders (order_id, user_id, total, created_at)
			VALUES ($1, $2, 0, $3)`
			if _, err := tx.ExecContext(ctx, insertOrder, orderID, userID, now); err != nil {
				return fmt.Errorf("inserting seed order: %w", err)
			}

			const insertItem = `
			INSERT INTO order_items (order_id, product_id, quantity, price, created_at)
			VALUES ($1, $2, $3, $4, $5)`

			total := decimal.Zero
			for j := 0; j < 3; j++ {
				p := products[(i*3+j)%len(products)]
				qty := 1 + j%2
				if _, err := tx.ExecContext(ctx, insertItem, orderID, p.id, qty, p.price, now); err != nil {
					return fmt.Errorf("inserting seed order item: %w", err)
				}
				total = total.Add(p.price.Mul(decimal.NewFromInt(int64(qty))))
			}

			const updateTotal = `UPDATE orders SET total = $2 WHERE order_id = $1`
			if _, err := tx.ExecContext(ctx, updateTotal, orderID, total); err != nil {
				return fmt.Errorf("updating seed order total: %w", err)
			}
		}

		return nil
	})
}
