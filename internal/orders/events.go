package orders

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // one of the consts above
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g. "shop-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type ItemLine struct {
	Name      string  `json:"name"`
	Qty       int     `json:"qty"`
	UnitPrice float64 `json:"unit_price"`
}

type OrderCreatedPayload struct {
	OrderID int64      `json:"order_id"`
	UserID  string     `json:"user_id,omitempty"`
	Source  string     `json:"source"` // api | bot
	Items   []ItemLine `json:"items"`
	Total   float64    `json:"total"`
}

type OrderStatusChangedPayload struct {
	OrderID int64  `json:"order_id"`
	From    Status `json:"from"`
	To      Status `json:"to"`
}

// NewEnvelope wraps payload in a v1 envelope correlated by order id.
func NewEnvelope(eventType, producer, traceID string, orderID int64, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		TraceID:       traceID,
		CorrelationID: orderKey(orderID),
		Payload:       b,
	}, nil
}

func CreatedPayload(o Order, source string) OrderCreatedPayload {
	items := make([]ItemLine, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, ItemLine{Name: it.Name, Qty: it.Quantity, UnitPrice: it.UnitPrice()})
	}
	return OrderCreatedPayload{OrderID: o.ID, UserID: o.UserID, Source: source, Items: items, Total: o.Total}
}
