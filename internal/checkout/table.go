package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ariefcatur/shop-orders/internal/orders"
)

type key struct {
	from State
	on   EventKind
}

// Transition is one row of the table. A Guard returning false keeps the
// session in its state and answers with Reject. Effect runs before the new
// state is saved; an Effect error aborts the transition.
type Transition struct {
	To     State
	Prompt Prompt
	Guard  func(s *Session, ev Event) bool
	Reject Prompt
	Effect func(ctx context.Context, m *Machine, s *Session, ev Event) error
}

type Table map[key]Transition

func (t Table) On(from State, on EventKind, tr Transition) Table {
	t[key{from, on}] = tr
	return t
}

func defaultTable() Table {
	t := Table{}
	t.On(Idle, AddItem, Transition{To: Browsing, Prompt: PromptItemAdded, Guard: validItem, Reject: PromptInvalidItem, Effect: addItem})
	t.On(Browsing, AddItem, Transition{To: Browsing, Prompt: PromptItemAdded, Guard: validItem, Reject: PromptInvalidItem, Effect: addItem})
	t.On(Browsing, ShowCart, Transition{To: CartReview, Prompt: PromptCart, Guard: cartNotEmpty, Reject: PromptCartEmpty})
	t.On(CartReview, AddItem, Transition{To: Browsing, Prompt: PromptItemAdded, Guard: validItem, Reject: PromptInvalidItem, Effect: addItem})
	t.On(CartReview, ShowCart, Transition{To: CartReview, Prompt: PromptCart})
	t.On(CartReview, Checkout, Transition{To: AwaitingLocation, Prompt: PromptAskLocation, Guard: cartNotEmpty, Reject: PromptCartEmpty, Effect: openOrder})
	t.On(AwaitingLocation, Location, Transition{To: AwaitingPhone, Prompt: PromptAskPhone, Guard: validLocation, Reject: PromptInvalidLocation, Effect: keepLocation})
	t.On(AwaitingPhone, Phone, Transition{To: Confirmed, Prompt: PromptConfirmed, Guard: validPhone, Reject: PromptInvalidPhone, Effect: confirmOrder})

	for _, s := range []State{Idle, Browsing, CartReview, AwaitingLocation, AwaitingPhone} {
		t.On(s, Cancel, Transition{To: Cancelled, Prompt: PromptCancelled, Effect: cancelOrder})
	}
	return t
}

// validate checks the table: targets are known states, terminal states
// have no exits, every non-terminal state accepts Cancel and rows that
// can reject name a prompt.
func (t Table) validate() error {
	for k, tr := range t {
		if !k.from.valid() || !tr.To.valid() {
			return fmt.Errorf("checkout: %s on %s targets unknown state %d", k.from, k.on, tr.To)
		}
		if k.from.Terminal() {
			return fmt.Errorf("checkout: terminal state %s has a transition on %s", k.from, k.on)
		}
		if tr.Guard != nil && tr.Reject == PromptNone {
			return fmt.Errorf("checkout: %s on %s has a guard but no reject prompt", k.from, k.on)
		}
	}
	for s := Idle; s <= Cancelled; s++ {
		if s.Terminal() {
			continue
		}
		if tr, ok := t[key{s, Cancel}]; !ok || tr.To != Cancelled {
			return fmt.Errorf("checkout: state %s cannot be cancelled", s)
		}
	}
	return nil
}

func validItem(_ *Session, ev Event) bool {
	return strings.TrimSpace(ev.Item.Name) != "" && ev.Item.Quantity > 0 && ev.Item.UnitPrice() >= 0
}

func cartNotEmpty(s *Session, _ Event) bool { return len(s.Cart) > 0 }

func validLocation(_ *Session, ev Event) bool {
	_, _, err := orders.ParseLocation(ev.Text)
	return err == nil
}

func validPhone(_ *Session, ev Event) bool { return strings.TrimSpace(ev.Text) != "" }

// addItem merges repeated products into one cart line.
func addItem(_ context.Context, _ *Machine, s *Session, ev Event) error {
	for i := range s.Cart {
		if s.Cart[i].Name == ev.Item.Name && s.Cart[i].UnitPrice() == ev.Item.UnitPrice() {
			s.Cart[i].Quantity += ev.Item.Quantity
			return nil
		}
	}
	s.Cart = append(s.Cart, ev.Item)
	return nil
}

func openOrder(ctx context.Context, m *Machine, s *Session, ev Event) error {
	if ev.Customer != (orders.CustomerInfo{}) {
		s.Customer = ev.Customer
	}
	if s.OrderID != 0 {
		return nil
	}
	o, err := m.orders.Open(ctx, orders.Order{
		UserID:   s.UserID,
		Customer: s.Customer,
		Items:    append([]orders.OrderItem(nil), s.Cart...),
	})
	if err != nil {
		return err
	}
	s.OrderID = o.ID
	return nil
}

func keepLocation(_ context.Context, _ *Machine, s *Session, ev Event) error {
	s.PendingLocation = strings.TrimSpace(ev.Text)
	return nil
}

func confirmOrder(ctx context.Context, m *Machine, s *Session, ev Event) error {
	s.PendingPhone = strings.TrimSpace(ev.Text)
	o, err := m.orders.Confirm(ctx, s.OrderID, s.PendingPhone, s.PendingLocation)
	if err != nil {
		return err
	}
	s.Customer = o.Customer
	s.last = &o
	return nil
}

// cancelOrder cancels the stored order, if any. An order that is already
// gone or closed elsewhere does not keep the session open.
func cancelOrder(ctx context.Context, m *Machine, s *Session, _ Event) error {
	if s.OrderID == 0 {
		return nil
	}
	o, err := m.orders.Cancel(ctx, s.OrderID)
	if errors.Is(err, orders.ErrIllegalTransition) || errors.Is(err, orders.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	s.last = &o
	return nil
}
