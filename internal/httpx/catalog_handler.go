package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ariefcatur/shop-orders/internal/catalog"
)

// CatalogHandler serves products, categories and users as stored.
type CatalogHandler struct {
	Catalog *catalog.Service
	Log     *slog.Logger
}

func (h *CatalogHandler) Register(r chi.Router) {
	r.Get("/api/products", list(h, h.Catalog.Products))
	r.Post("/api/products", create(h, h.Catalog.AddProduct))
	r.Delete("/api/products/{id}", remove(h, h.Catalog.DeleteProduct))

	r.Get("/api/categories", list(h, h.Catalog.Categories))
	r.Post("/api/categories", create(h, h.Catalog.AddCategory))
	r.Delete("/api/categories/{id}", remove(h, h.Catalog.DeleteCategory))

	r.Get("/api/users", list(h, h.Catalog.Users))
	r.Post("/api/users", create(h, h.Catalog.AddUser))
}

func list[T any](h *CatalogHandler, fn func(context.Context) ([]T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		items, err := fn(ctx)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func create[T any](h *CatalogHandler, fn func(context.Context, T) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in T
		if err := decode(w, r, &in); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid json")
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		out, err := fn(ctx, in)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

func remove(h *CatalogHandler, fn func(context.Context, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := fn(ctx, chi.URLParam(r, "id")); err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func (h *CatalogHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		h.Log.Error("catalog request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "err", err)
		writeError(w, r, code, "internal error")
		return
	}
	writeError(w, r, code, err.Error())
}
