package checkout

import (
	"time"

	"github.com/ariefcatur/shop-orders/internal/orders"
)

type State int

const (
	Idle State = iota
	Browsing
	CartReview
	AwaitingLocation
	AwaitingPhone
	Confirmed
	Cancelled
)

var stateNames = [...]string{"idle", "browsing", "cart_review", "awaiting_location", "awaiting_phone", "confirmed", "cancelled"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

func (s State) Terminal() bool { return s == Confirmed || s == Cancelled }

func (s State) valid() bool { return s >= Idle && s <= Cancelled }

type EventKind int

const (
	AddItem EventKind = iota + 1
	ShowCart
	Checkout
	Location
	Phone
	Cancel
)

var eventNames = [...]string{"", "add_item", "show_cart", "checkout", "location", "phone", "cancel"}

func (k EventKind) String() string {
	if k <= 0 || int(k) >= len(eventNames) {
		return "unknown"
	}
	return eventNames[k]
}

// Event is one user action. Item is read for AddItem, Text for Location
// ("lat,lon") and Phone, Customer for Checkout.
type Event struct {
	Kind     EventKind
	Item     orders.OrderItem
	Text     string
	Customer orders.CustomerInfo
}

// Session is the per-user checkout state. OrderID is set once the cart has
// been stored as a pending order.
type Session struct {
	UserID          string              `json:"user_id"`
	State           State               `json:"state"`
	Customer        orders.CustomerInfo `json:"customer"`
	Cart            []orders.OrderItem  `json:"cart"`
	OrderID         int64               `json:"order_id,omitempty"`
	PendingLocation string              `json:"pending_location,omitempty"`
	PendingPhone    string              `json:"pending_phone,omitempty"`
	UpdatedAt       time.Time           `json:"updated_at"`

	last *orders.Order
}

// CartTotal sums the cart lines.
func (s Session) CartTotal() float64 {
	var sum float64
	for _, it := range s.Cart {
		sum += it.Subtotal()
	}
	return sum
}

// Prompt tells the front end what to say after a transition.
type Prompt int

const (
	PromptNone Prompt = iota
	PromptItemAdded
	PromptInvalidItem
	PromptCart
	PromptCartEmpty
	PromptAskLocation
	PromptInvalidLocation
	PromptAskPhone
	PromptInvalidPhone
	PromptConfirmed
	PromptCancelled
)

// Outcome is the result of firing an event.
type Outcome struct {
	From, To State
	Prompt   Prompt
	Session  Session
	Order    *orders.Order
}
