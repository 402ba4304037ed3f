package orders

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ariefcatur/shop-orders/internal/store"
)

// Log is the append-only order collection. Every read-modify-write of the
// collection happens under mu; readers load a snapshot without it.
type Log struct {
	orders *store.Collection[Order]
	now    func() time.Time

	mu sync.Mutex
}

type LogOption func(*Log)

// WithClock replaces time.Now for id/timestamp assignment.
func WithClock(now func() time.Time) LogOption {
	return func(l *Log) { l.now = now }
}

func NewLog(b store.Backend, opts ...LogOption) *Log {
	l := &Log{
		orders: store.NewCollection[Order](b, store.Orders),
		now:    time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Append validates o, assigns id = max(existing)+1, stamps created_at and
// stores it as pending.
func (l *Log) Append(ctx context.Context, o Order) (Order, error) {
	if err := Validate(&o); err != nil {
		return Order{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	all, err := l.orders.All(ctx)
	if err != nil {
		return Order{}, err
	}
	var maxID int64
	for _, existing := range all {
		if existing.ID > maxID {
			maxID = existing.ID
		}
	}

	o.ID = maxID + 1
	o.CreatedAt = FormatTimestamp(l.now())
	o.UpdatedAt = ""
	o.Status = StatusPending

	all = append(all, o)
	if err := l.orders.Replace(ctx, all); err != nil {
		return Order{}, err
	}
	return o, nil
}

// ListAll returns orders in insertion order.
func (l *Log) ListAll(ctx context.Context) ([]Order, error) {
	return l.orders.All(ctx)
}

func (l *Log) Get(ctx context.Context, id int64) (Order, error) {
	all, err := l.orders.All(ctx)
	if err != nil {
		return Order{}, err
	}
	for _, o := range all {
		if o.ID == id {
			return o, nil
		}
	}
	return Order{}, fmt.Errorf("%w: #%d", ErrNotFound, id)
}

// UpdateStatus moves order id to status to if the transition is allowed.
func (l *Log) UpdateStatus(ctx context.Context, id int64, to Status) (Order, error) {
	return l.Update(ctx, id, func(o *Order) error {
		return transition(o, to)
	})
}

// Update applies fn to order id under the write lock and persists the result.
// An error from fn aborts without writing.
func (l *Log) Update(ctx context.Context, id int64, fn func(*Order) error) (Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	all, err := l.orders.All(ctx)
	if err != nil {
		return Order{}, err
	}
	idx := -1
	for i := range all {
		if all[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Order{}, fmt.Errorf("%w: #%d", ErrNotFound, id)
	}

	o := all[idx]
	if err := fn(&o); err != nil {
		return Order{}, err
	}
	o.ID = id
	o.UpdatedAt = FormatTimestamp(l.now())
	all[idx] = o
	if err := l.orders.Replace(ctx, all); err != nil {
		return Order{}, err
	}
	return o, nil
}

func transition(o *Order, to Status) error {
	from := o.CurrentStatus()
	if !CanTransition(from, to) {
		return IllegalTransition(o.ID, from, to)
	}
	o.Status = to
	return nil
}

// IllegalTransition builds the ErrIllegalTransition error for order id.
func IllegalTransition(id int64, from, to Status) error {
	return fmt.Errorf("%w: #%d %s -> %s", ErrIllegalTransition, id, from, to)
}

// Confirm commits checkout contact details and moves a pending order to
// confirmed in one write.
func (l *Log) Confirm(ctx context.Context, id int64, phone, location string) (Order, error) {
	return l.Update(ctx, id, func(o *Order) error {
		if err := transition(o, StatusConfirmed); err != nil {
			return err
		}
		o.Customer.Phone = phone
		o.Customer.Location = location
		return nil
	})
}
