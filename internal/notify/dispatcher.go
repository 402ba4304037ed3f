// Package notify sends order and report messages to the operations chat.
// Business code talks to the Dispatcher only; delivery failures are logged
// here and never returned.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ariefcatur/shop-orders/internal/orders"
	"github.com/ariefcatur/shop-orders/internal/sheet"
)

type Dispatcher struct {
	ch      Channel
	chatID  int64
	timeout time.Duration
	log     *slog.Logger
	now     func() time.Time
	render  func(orders.Order) ([]byte, error)
}

type Option func(*Dispatcher)

// WithTimeout bounds each text/location send; documents get twice as long.
func WithTimeout(d time.Duration) Option {
	return func(x *Dispatcher) { x.timeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(x *Dispatcher) { x.now = now }
}

// WithRenderer replaces the xlsx renderer used for order documents.
func WithRenderer(fn func(orders.Order) ([]byte, error)) Option {
	return func(x *Dispatcher) { x.render = fn }
}

func NewDispatcher(ch Channel, chatID int64, log *slog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		ch:      ch,
		chatID:  chatID,
		timeout: 5 * time.Second,
		log:     log,
		now:     time.Now,
		render:  sheet.RenderOrder,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// NotifyOrder sends the location pin (when the order has a valid one), the
// text summary and the xlsx document. Each part is attempted independently.
func (d *Dispatcher) NotifyOrder(ctx context.Context, o orders.Order) {
	if loc := o.Customer.Location; loc != "" {
		if lat, lon, err := orders.ParseLocation(loc); err == nil {
			d.do(ctx, d.timeout, "location", o.ID, func(ctx context.Context) error {
				return d.ch.SendLocation(ctx, d.chatID, lat, lon)
			})
		} else {
			d.log.Debug("skip location pin", "order_id", o.ID, "err", err)
		}
	}

	d.do(ctx, d.timeout, "text", o.ID, func(ctx context.Context) error {
		return d.ch.SendText(ctx, d.chatID, OrderText(o))
	})

	data, err := d.render(o)
	if err != nil {
		d.log.Error("render order document", "order_id", o.ID, "err", err)
		return
	}
	d.do(ctx, 2*d.timeout, "document", o.ID, func(ctx context.Context) error {
		return d.ch.SendDocument(ctx, d.chatID, data, sheet.Filename(o.ID, d.now()), sheet.Caption(o.ID))
	})
}

// NotifyStatus tells the chat an order moved to a new status.
func (d *Dispatcher) NotifyStatus(ctx context.Context, o orders.Order) {
	d.do(ctx, d.timeout, "status", o.ID, func(ctx context.Context) error {
		return d.ch.SendText(ctx, d.chatID, StatusText(o))
	})
}

// SendText posts a report body.
func (d *Dispatcher) SendText(ctx context.Context, body string) {
	d.do(ctx, d.timeout, "text", 0, func(ctx context.Context) error {
		return d.ch.SendText(ctx, d.chatID, body)
	})
}

// SendDocument posts a generated file with a caption.
func (d *Dispatcher) SendDocument(ctx context.Context, data []byte, filename, caption string) {
	d.do(ctx, 2*d.timeout, "document", 0, func(ctx context.Context) error {
		return d.ch.SendDocument(ctx, d.chatID, data, filename, caption)
	})
}

func (d *Dispatcher) do(ctx context.Context, timeout time.Duration, kind string, orderID int64, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := safeCall(ctx, fn)
	if err == nil {
		return
	}
	err = fmt.Errorf("%w: %s: %w", ErrDispatch, kind, err)
	attrs := []any{"kind", kind, "chat_id", d.chatID, "err", err}
	if orderID != 0 {
		attrs = append(attrs, "order_id", orderID)
	}
	d.log.Error("notification not delivered", attrs...)
}

func safeCall(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}
