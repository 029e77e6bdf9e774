package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ismellshop/shop/api/web"
	"github.com/ismellshop/shop/api/weberr"
	"github.com/ismellshop/shop/core/claims"
	"github.com/ismellshop/shop/core/product"
	"github.com/ismellshop/shop/validate"
	"github.com/jmoiron/sqlx"
)

func HandleCheckout(db *sqlx.DB) web.Handler {
	store := NewStore(db)

	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		full, err := Checkout(ctx, store, clm.UserID)
		if err != nil {
			if errors.Is(err, ErrEmptyCart) {
				return weberr.Unprocessable(err, "cart is empty")
			}

			var stockErr *product.InsufficientStockError
			if errors.As(err, &stockErr) {
				return weberr.Wrap(err, weberr.WithResponse(stockErr, http.StatusConflict))
			}

			return fmt.Errorf("checking out: %w", err)
		}

		return web.Respond(ctx, w, full, http.StatusCreated)
	}
}

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		orders, err := ListFullByUser(ctx, db, clm.UserID)
		if err != nil {
			return fmt.Errorf("listing orders of user[%s]: %w", clm.UserID, err)
		}

		return web.Respond(ctx, w, orders, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		ord, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching order[%s]: %w", id, err)
		}

		if !claims.IsAdmin(ctx) && !claims.IsUser(ctx, ord.UserID) {
			// Hide the order's existence from other users.
			return weberr.NotFound(errors.New("order belongs to another user"))
		}

		items, err := FetchItems(ctx, db, id)
		if err != nil {
			return fmt.Errorf("fetching items of order[%s]: %w", id, err)
		}

		return web.Respond(ctx, w, OrderFull{Order: ord, Items: items}, http.StatusOK)
	}
}

func HandleListAll(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		orders, err := List(ctx, db)
		if err != nil {
			return fmt.Errorf("listing all orders: %w", err)
		}

		return web.Respond(ctx, w, orders, http.StatusOK)
	}
}
