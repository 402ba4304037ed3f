// Package checkout drives a chat user from cart to confirmed order. States
// and events are closed enums and every legal move is a row in one
// transition table, checked when the machine is built.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/shop-orders/internal/orders"
)

// ErrIllegalEvent is returned for an event the current state has no row for.
// The session is left untouched.
var ErrIllegalEvent = errors.New("checkout: event not allowed in this state")

// Orders is the order side of checkout; intake.Service satisfies it.
type Orders interface {
	Open(ctx context.Context, o orders.Order) (orders.Order, error)
	Confirm(ctx context.Context, id int64, phone, location string) (orders.Order, error)
	Cancel(ctx context.Context, id int64) (orders.Order, error)
}

type Machine struct {
	table    Table
	sessions Store
	orders   Orders
	locks    *userLocks
	now      func() time.Time
}

type Option func(*Machine)

func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithTable replaces the default table. It is validated like the default.
func WithTable(t Table) Option {
	return func(m *Machine) { m.table = t }
}

func NewMachine(sessions Store, o Orders, opts ...Option) (*Machine, error) {
	m := &Machine{
		table:    defaultTable(),
		sessions: sessions,
		orders:   o,
		locks:    newUserLocks(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.table.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Session returns the open session of userID. A user without one is Idle.
func (m *Machine) Session(ctx context.Context, userID string) (Session, error) {
	s, ok, err := m.sessions.Get(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{UserID: userID, State: Idle}, nil
	}
	return s, nil
}

// Fire applies ev to the session of userID. Events for the same user are
// applied one at a time. A rejected guard is not an error: the state stays
// and the outcome carries the re-prompt.
func (m *Machine) Fire(ctx context.Context, userID string, ev Event) (Outcome, error) {
	unlock := m.locks.lock(userID)
	defer unlock()

	s, err := m.Session(ctx, userID)
	if err != nil {
		return Outcome{}, err
	}
	from := s.State

	tr, ok := m.table[key{from, ev.Kind}]
	if !ok {
		return Outcome{From: from, To: from, Session: s}, fmt.Errorf("%w: %s on %s", ErrIllegalEvent, ev.Kind, from)
	}
	if tr.Guard != nil && !tr.Guard(&s, ev) {
		return Outcome{From: from, To: from, Prompt: tr.Reject, Session: s}, nil
	}

	next := s
	next.Cart = append([]orders.OrderItem(nil), s.Cart...)
	if tr.Effect != nil {
		if err := tr.Effect(ctx, m, &next, ev); err != nil {
			return Outcome{From: from, To: from, Session: s}, fmt.Errorf("checkout %s on %s: %w", ev.Kind, from, err)
		}
	}
	next.State = tr.To
	next.UpdatedAt = m.now()

	out := Outcome{From: from, To: tr.To, Prompt: tr.Prompt, Session: next, Order: next.last}
	if tr.To.Terminal() {
		err = m.sessions.Delete(ctx, userID)
	} else {
		err = m.sessions.Put(ctx, next)
	}
	if err != nil {
		return out, fmt.Errorf("save session: %w", err)
	}
	return out, nil
}
