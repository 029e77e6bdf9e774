package product

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ismellshop/shop/api/web"
	"github.com/ismellshop/shop/api/weberr"
	"github.com/ismellshop/shop/core/category"
	"github.com/ismellshop/shop/random"
	"github.com/ismellshop/shop/slug"
	"github.com/ismellshop/shop/validate"
	"github.com/jmoiron/sqlx"
)

const (
	defaultPerPage = 12
	maxPerPage     = 100

	maxImageBytes = 5 << 20
)

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		page, perPage, err := pageParams(r)
		if err != nil {
			return weberr.BadRequest(err)
		}

		pg, err := List(ctx, db, page, perPage)
		if err != nil {
			return fmt.Errorf("listing products: %w", err)
		}

		return web.Respond(ctx, w, pg, http.StatusOK)
	}
}

func HandleSearch(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		term := r.URL.Query().Get("q")
		if term == "" {
			return weberr.BadRequest(errors.New("missing search term 'q'"))
		}

		prods, err := Search(ctx, db, term)
		if err != nil {
			return fmt.Errorf("searching products for %q: %w", term, err)
		}

		return web.Respond(ctx, w, prods, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		prod, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching product[%s]: %w", id, err)
		}

		return web.Respond(ctx, w, prod, http.StatusOK)
	}
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var pn ProductNew
		if err := web.Decode(w, r, &pn); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding product: %w", err))
		}

		if err := validate.Check(pn); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		if pn.Price.IsNegative() {
			return weberr.Unprocessable(errors.New("negative price"), "price must not be negative")
		}

		if _, err := category.Fetch(ctx, db, pn.CategoryID); err != nil {
			if errors.Is(err, category.ErrNotFound) {
				return weberr.Unprocessable(err, "category does not exist")
			}
			return fmt.Errorf("fetching category[%s]: %w", pn.CategoryID, err)
		}

		if pn.Slug == "" {
			pn.Slug = slug.Make(pn.Name) + "-" + random.String(6)
		}

		now := time.Now().UTC()
		prod := Product{
			ID:          validate.GenerateID(),
			CategoryID:  pn.CategoryID,
			Name:        pn.Name,
			Slug:        pn.Slug,
			Description: pn.Description,
			Price:       pn.Price,
			Stock:       pn.Stock,
			ImageURL:    pn.ImageURL,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := Create(ctx, db, prod); err != nil {
			if errors.Is(err, ErrUniqueSlug) {
				return weberr.Unprocessable(err, "slug is already in use")
			}
			return fmt.Errorf("creating product: %w", err)
		}

		return web.Respond(ctx, w, prod, http.StatusCreated)
	}
}

func HandleUpdate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		var pu ProductUp
		if err := web.Decode(w, r, &pu); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding product update: %w", err))
		}

		if err := validate.Check(pu); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		prod, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching product[%s]: %w", id, err)
		}

		if pu.CategoryID != nil {
			if _, err := category.Fetch(ctx, db, *pu.CategoryID); err != nil {
				if errors.Is(err, category.ErrNotFound) {
					return weberr.Unprocessable(err, "category does not exist")
				}
				return fmt.Errorf("fetching category[%s]: %w", *pu.CategoryID, err)
			}
			prod.CategoryID = *pu.CategoryID
		}
		if pu.Name != nil {
			prod.Name = *pu.Name
		}
		if pu.Slug != nil {
			prod.Slug = *pu.Slug
		}
		if pu.Description != nil {
			prod.Description = *pu.Description
		}
		if pu.Price != nil {
			if pu.Price.IsNegative() {
				return weberr.Unprocessable(errors.New("negative price"), "price must not be negative")
			}
			prod.Price = *pu.Price
		}
		if pu.Stock != nil {
			prod.Stock = *pu.Stock
		}
		if pu.ImageURL != nil {
			prod.ImageURL = *pu.ImageURL
		}
		prod.UpdatedAt = time.Now().UTC()

		if err := Update(ctx, db, prod); err != nil {
			if errors.Is(err, ErrUniqueSlug) {
				return weberr.Unprocessable(err, "slug is already in use")
			}
			return fmt.Errorf("updating product[%s]: %w", id, err)
		}

		return web.Respond(ctx, w, prod, http.StatusOK)
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
			return fmt.Errorf("deleting product[%s]: %w", id, err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

// HandleUploadImage stores a product picture on disk and points the product
// at its public URL.
func HandleUploadImage(db *sqlx.DB, dir string) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		prod, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching product[%s]: %w", id, err)
		}

		if err := r.ParseMultipartForm(maxImageBytes); err != nil {
			return weberr.BadRequest(fmt.Errorf("parsing multipart form: %w", err))
		}

		file, header, err := r.FormFile("image")
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("missing 'image' form file: %w", err))
		}
		defer file.Close()

		ext := filepath.Ext(header.Filename)
		switch ext {
		case ".jpg", ".jpeg", ".png", ".webp":
		default:
			return weberr.Unprocessable(fmt.Errorf("unsupported image extension %q", ext), "unsupported image type")
		}

		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating upload dir: %w", err)
		}

		name := prod.ID + "-" + random.String(8) + ext
		dst, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("creating image file: %w", err)
		}
		defer dst.Close()

		if _, err := io.Copy(dst, file); err != nil {
			return fmt.Errorf("writing image file: %w", err)
		}

		prod.ImageURL = "/static/products/" + name
		prod.UpdatedAt = time.Now().UTC()

		if err := Update(ctx, db, prod); err != nil {
			return fmt.Errorf("updating product image: %w", err)
		}

		return web.Respond(ctx, w, prod, http.StatusOK)
	}
}

func pageParams(r *http.Request) (page int, perPage int, err error) {
	page, perPage = 1, defaultPerPage

	if v := r.URL.Query().Get("page"); v != "" {
		page, err = strconv.Atoi(v)
		if err != nil || page < 1 {
			return 0, 0, fmt.Errorf("invalid page %q", v)
		}
	}

	if v := r.URL.Query().Get("per_page"); v != "" {
		perPage, err = strconv.Atoi(v)
		if err != nil || perPage < 1 || perPage > maxPerPage {
			return 0, 0, fmt.Errorf("invalid per_page %q", v)
		}
	}

	return page, perPage, nil
}
