package orders

import (
	"fmt"
	"strings"
)

// Validate checks an incoming order and recomputes its total from the items.
func Validate(o *Order) error {
	if len(o.Items) == 0 {
		return fmt.Errorf("%w: order has no items", ErrValidation)
	}
	for i, it := range o.Items {
		if strings.TrimSpace(it.Name) == "" {
			return fmt.Errorf("%w: item %d has no name", ErrValidation, i+1)
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("%w: quantity for %q must be positive", ErrValidation, it.Name)
		}
		if it.UnitPrice() < 0 {
			return fmt.Errorf("%w: price for %q must not be negative", ErrValidation, it.Name)
		}
	}
	o.Total = o.ItemsTotal()
	return nil
}
