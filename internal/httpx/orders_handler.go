package httpx

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/shop-orders/internal/intake"
	"github.com/ariefcatur/shop-orders/internal/notify"
	"github.com/ariefcatur/shop-orders/internal/orders"
	"github.com/ariefcatur/shop-orders/internal/redisx"
)

// OrderService is satisfied by intake.Service.
type OrderService interface {
	Submit(ctx context.Context, o orders.Order, source, traceID string) (orders.Order, error)
	List(ctx context.Context) ([]orders.Order, error)
	Get(ctx context.Context, id int64) (orders.Order, error)
	UpdateStatus(ctx context.Context, id int64, to orders.Status, traceID string) (orders.Order, error)
}

// StatusCache is the part of the Redis client used to cache order status.
type StatusCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

type OrdersHandler struct {
	Orders OrderService
	Cache  StatusCache // optional
	Log    *slog.Logger
}

type CreateOrderResp struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

type UpdateStatusReq struct {
	Status string `json:"status"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Post("/", h.createOrder)
		r.Get("/", h.listOrders)
		r.Get("/{id}", h.getOrder)
		r.Get("/{id}/status", h.getStatus)
		r.Patch("/{id}/status", h.updateStatus)
	})
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req orders.Order
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	o, err := h.Orders.Submit(ctx, req, intake.SourceAPI, middleware.GetReqID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateOrderResp{ID: o.ID, Message: notify.SubmissionMessage(o.ID)})
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	all, err := h.Orders.List(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Orders.Get(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// getStatus answers from the cache when it can and fills it on a miss. The
// intake service refreshes the cache on every transition, whoever makes it.
func (h *OrdersHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if h.Cache != nil {
		if s, err := h.Cache.Get(ctx, intake.StatusKey(id)).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	o, err := h.Orders.Get(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.fillCache(ctx, o)
	writeJSON(w, http.StatusOK, intake.StatusEntry{Status: o.CurrentStatus(), UpdatedAt: o.UpdatedAt})
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var req UpdateStatusReq
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	to, err := orders.ParseStatus(req.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	o, err := h.Orders.UpdateStatus(ctx, id, to, middleware.GetReqID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) fillCache(ctx context.Context, o orders.Order) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.Set(ctx, intake.StatusKey(o.ID), intake.EncodeStatus(o), redisx.TTLStatusCache).Err(); err != nil {
		h.Log.Warn("cache order status", "order_id", o.ID, "err", err)
	}
}

func (h *OrdersHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		h.Log.Error("order request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "err", err)
		writeError(w, r, code, "internal error")
		return
	}
	writeError(w, r, code, err.Error())
}

func orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, http.StatusBadRequest, "invalid order id")
		return 0, false
	}
	return id, true
}
