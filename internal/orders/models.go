package orders

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

type CustomerInfo struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Location string `json:"location,omitempty"` // "lat,lon"
}

// ProductRef is the product snapshot some clients nest inside an item.
type ProductRef struct {
	ID    string   `json:"id,omitempty"`
	Name  string   `json:"name,omitempty"`
	Price *float64 `json:"price,omitempty"`
}

// OrderItem carries the product name as it was at order time.
type OrderItem struct {
	Name     string      `json:"name"`
	Quantity int         `json:"quantity"`
	Price    *float64    `json:"price,omitempty"`
	Product  *ProductRef `json:"product,omitempty"`
}

// UnitPrice resolves the explicit price first, then the nested product price.
func (it OrderItem) UnitPrice() float64 {
	if it.Price != nil {
		return *it.Price
	}
	if it.Product != nil && it.Product.Price != nil {
		return *it.Product.Price
	}
	return 0
}

func (it OrderItem) Subtotal() float64 {
	return float64(it.Quantity) * it.UnitPrice()
}

type Order struct {
	ID        int64        `json:"id"`
	CreatedAt string       `json:"created_at"`
	UpdatedAt string       `json:"updated_at,omitempty"`
	Customer  CustomerInfo `json:"customerInfo"`
	Items     []OrderItem  `json:"items"`
	Total     float64      `json:"total"`
	Status    Status       `json:"status"`
	UserID    string       `json:"user_id,omitempty"`
}

// CurrentStatus treats records written without a status as pending.
func (o Order) CurrentStatus() Status {
	if o.Status == "" {
		return StatusPending
	}
	return o.Status
}

func (o Order) ItemsTotal() float64 {
	var sum float64
	for _, it := range o.Items {
		sum += it.Subtotal()
	}
	return sum
}

// Layouts accepted for created_at. Values without an offset are read in the
// caller's location.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// CreatedTime parses CreatedAt. Missing or malformed values return ErrParse.
func (o Order) CreatedTime(loc *time.Location) (time.Time, error) {
	return ParseTimestamp(o.CreatedAt, loc)
}

func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty timestamp", ErrParse)
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: timestamp %q", ErrParse, s)
}

func FormatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// ParseLocation accepts exactly "<float>,<float>" (spaces around parts allowed).
func ParseLocation(s string) (lat, lon float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: location %q", ErrParse, s)
	}
	lat, err = parseCoord(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: latitude in %q", ErrParse, s)
	}
	lon, err = parseCoord(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: longitude in %q", ErrParse, s)
	}
	return lat, lon, nil
}

func parseCoord(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not finite")
	}
	return v, nil
}

// FormatAmount prints whole sums without a fraction ("10000"), others as-is.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
