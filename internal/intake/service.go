// Package intake is the single write path for orders. It stores through the
// order log first, then refreshes the status cache, notifies the operations
// chat in the background and publishes lifecycle events. None of those can
// fail a stored order.
package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/shop-orders/internal/orders"
	"github.com/ariefcatur/shop-orders/internal/redisx"
)

const (
	SourceAPI = "api"
	SourceBot = "bot"
)

// Notifier is satisfied by notify.Dispatcher.
type Notifier interface {
	NotifyOrder(ctx context.Context, o orders.Order)
	NotifyStatus(ctx context.Context, o orders.Order)
}

// Events is satisfied by kafka.Producer. A nil Events disables publishing.
type Events interface {
	PublishEvent(topic string, env orders.Envelope)
}

// StatusCache is the part of the Redis client that holds order_status keys.
type StatusCache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// StatusEntry is the cached answer of GET /api/orders/{id}/status.
type StatusEntry struct {
	Status    orders.Status `json:"status"`
	UpdatedAt string        `json:"updated_at,omitempty"`
}

func EncodeStatus(o orders.Order) []byte {
	b, _ := json.Marshal(StatusEntry{Status: o.CurrentStatus(), UpdatedAt: o.UpdatedAt})
	return b
}

func StatusKey(id int64) string { return fmt.Sprintf(redisx.KeyOrderStatus, id) }

type Service struct {
	log      *orders.Log
	notify   Notifier
	events   Events
	cache    StatusCache
	producer string
	logger   *slog.Logger

	inflight sync.WaitGroup
}

type Option func(*Service)

// WithEvents publishes lifecycle events under producer name.
func WithEvents(e Events, producer string) Option {
	return func(s *Service) {
		s.events = e
		s.producer = producer
	}
}

// WithStatusCache refreshes the status cache after every stored transition.
func WithStatusCache(c StatusCache) Option {
	return func(s *Service) { s.cache = c }
}

func NewService(l *orders.Log, n Notifier, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{log: l, notify: n, logger: logger}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Submit stores a directly placed order and notifies the chat. The
// notification runs after Submit returns.
func (s *Service) Submit(ctx context.Context, o orders.Order, source, traceID string) (orders.Order, error) {
	stored, err := s.log.Append(ctx, o)
	if err != nil {
		return orders.Order{}, err
	}
	if o.Total != 0 && o.Total != stored.Total {
		s.logger.Warn("client total replaced by item sum", "order_id", stored.ID, "client_total", o.Total, "total", stored.Total)
	}
	s.logger.Info("order stored", "order_id", stored.ID, "source", source, "total", stored.Total)
	s.cacheStatus(ctx, stored)
	s.detach(ctx, func(ctx context.Context) { s.notify.NotifyOrder(ctx, stored) })
	s.publish(traceID, orders.TopicOrderCreated, orders.EventOrderCreated, stored.ID, orders.CreatedPayload(stored, source))
	return stored, nil
}

// Open materializes a checkout cart as a pending order. The chat hears about
// it only once it is confirmed.
func (s *Service) Open(ctx context.Context, o orders.Order) (orders.Order, error) {
	stored, err := s.log.Append(ctx, o)
	if err != nil {
		return orders.Order{}, err
	}
	s.logger.Info("checkout order opened", "order_id", stored.ID, "user_id", stored.UserID)
	s.cacheStatus(ctx, stored)
	s.publish("", orders.TopicOrderCreated, orders.EventOrderCreated, stored.ID, orders.CreatedPayload(stored, SourceBot))
	return stored, nil
}

// Confirm commits the contact details of a checkout order, confirms it and
// notifies the chat with the final order.
func (s *Service) Confirm(ctx context.Context, id int64, phone, location string) (orders.Order, error) {
	o, err := s.log.Confirm(ctx, id, phone, location)
	if err != nil {
		return orders.Order{}, err
	}
	s.logger.Info("order confirmed", "order_id", o.ID)
	s.cacheStatus(ctx, o)
	s.detach(ctx, func(ctx context.Context) { s.notify.NotifyOrder(ctx, o) })
	s.statusChanged("", orders.StatusPending, o)
	return o, nil
}

// Cancel moves a pending or confirmed order to cancelled.
func (s *Service) Cancel(ctx context.Context, id int64) (orders.Order, error) {
	return s.UpdateStatus(ctx, id, orders.StatusCancelled, "")
}

// UpdateStatus applies an admin or API status change.
func (s *Service) UpdateStatus(ctx context.Context, id int64, to orders.Status, traceID string) (orders.Order, error) {
	var from orders.Status
	o, err := s.log.Update(ctx, id, func(o *orders.Order) error {
		from = o.CurrentStatus()
		if !orders.CanTransition(from, to) {
			return orders.IllegalTransition(o.ID, from, to)
		}
		o.Status = to
		return nil
	})
	if err != nil {
		return orders.Order{}, err
	}
	s.logger.Info("order status changed", "order_id", o.ID, "from", from, "to", to)
	s.cacheStatus(ctx, o)
	s.detach(ctx, func(ctx context.Context) { s.notify.NotifyStatus(ctx, o) })
	s.statusChanged(traceID, from, o)
	return o, nil
}

func (s *Service) List(ctx context.Context) ([]orders.Order, error) {
	return s.log.ListAll(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (orders.Order, error) {
	return s.log.Get(ctx, id)
}

// Wait blocks until every notification started so far has finished.
func (s *Service) Wait() { s.inflight.Wait() }

// detach runs fn off the caller's goroutine with ctx's values but not its
// cancellation; the Dispatcher bounds each send on its own.
func (s *Service) detach(ctx context.Context, fn func(context.Context)) {
	ctx = context.WithoutCancel(ctx)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("notification panicked", "panic", r)
			}
		}()
		fn(ctx)
	}()
}

func (s *Service) cacheStatus(ctx context.Context, o orders.Order) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.cache.Set(ctx, StatusKey(o.ID), EncodeStatus(o), redisx.TTLStatusCache).Err(); err != nil {
		s.logger.Warn("cache order status", "order_id", o.ID, "err", err)
	}
}

func (s *Service) statusChanged(traceID string, from orders.Status, o orders.Order) {
	s.publish(traceID, orders.TopicOrderStatusChanged, orders.EventOrderStatusChanged, o.ID,
		orders.OrderStatusChangedPayload{OrderID: o.ID, From: from, To: o.CurrentStatus()})
}

func (s *Service) publish(traceID, topic, eventType string, orderID int64, payload any) {
	if s.events == nil {
		return
	}
	env, err := orders.NewEnvelope(eventType, s.producer, traceID, orderID, payload)
	if err != nil {
		s.logger.Error("build event", "order_id", orderID, "event", eventType, "err", err)
		return
	}
	s.events.PublishEvent(topic, env)
}
