package category

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ismellshop/shop/api/web"
	"github.com/ismellshop/shop/api/weberr"
	"github.com/ismellshop/shop/slug"
	"github.com/ismellshop/shop/validate"
	"github.com/jmoiron/sqlx"
)

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		cats, err := List(ctx, db)
		if err != nil {
			return fmt.Errorf("listing categories: %w", err)
		}

		return web.Respond(ctx, w, cats, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		cat, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching category[%s]: %w", id, err)
		}

		return web.Respond(ctx, w, cat, http.StatusOK)
	}
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var cn CategoryNew
		if err := web.Decode(w, r, &cn); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding category: %w", err))
		}

		if err := validate.Check(cn); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		if cn.Slug == "" {
			cn.Slug = slug.Make(cn.Name)
		}

		now := time.Now().UTC()
		cat := Category{
			ID:        validate.GenerateID(),
			Name:      cn.Name,
			Slug:      cn.Slug,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := Create(ctx, db, cat); err != nil {
			if errors.Is(err, ErrUniqueSlug) {
				return weberr.Unprocessable(err, "slug is already in use")
			}
			return fmt.Errorf("creating category: %w", err)
		}

		return web.Respond(ctx, w, cat, http.StatusCreated)
	}
}

func HandleUpdate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		var cu CategoryUp
		if err := web.Decode(w, r, &cu); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding category update: %w", err))
		}

		cat, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching category[%s]: %w", id, err)
		}

		if cu.Name != nil {
			cat.Name = *cu.Name
		}
		if cu.Slug != nil {
			cat.Slug = *cu.Slug
		}
		cat.UpdatedAt = time.Now().UTC()

		if err := Update(ctx, db, cat); err != nil {
			if errors.Is(err, ErrUniqueSlug) {
				return weberr.Unprocessable(err, "slug is already in use")
			}
			return fmt.Errorf("updating category[%s]: %w", id, err)
		}

		return web.Respond(ctx, w, cat, http.StatusOK)
	}
}

func HandleDelete(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		if err := Delete(ctx, db, id); err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("deleting category[%s]: %w", id, err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
