// Package report computes order statistics over time windows and renders
// them as chat text.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/ariefcatur/shop-orders/internal/orders"
)

const unknownCustomer = "Noma'lum"

type Totals struct {
	Quantity int
	Total    float64
}

// WindowReport summarizes the orders created in [Start, End).
type WindowReport struct {
	Start, End time.Time

	Products map[string]Totals
	Names    []string // product names in first-seen order

	GrandTotal float64
	OrderCount int
	Customers  []string
}

// Empty reports whether no product was sold in the window.
func (r WindowReport) Empty() bool { return len(r.Products) == 0 }

// Aggregate is pure: it reads orders and returns a fresh report. Orders whose
// created_at is missing or unparseable are skipped. Timestamps without an
// offset are read in loc.
func Aggregate(all []orders.Order, start, end time.Time, loc *time.Location) WindowReport {
	r := WindowReport{Start: start, End: end, Products: map[string]Totals{}}
	for _, o := range all {
		at, err := o.CreatedTime(loc)
		if err != nil {
			continue
		}
		if at.Before(start) || !at.Before(end) {
			continue
		}
		r.add(o)
	}
	return r
}

func (r *WindowReport) add(o orders.Order) {
	r.OrderCount++
	parts := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		t, seen := r.Products[it.Name]
		if !seen {
			r.Names = append(r.Names, it.Name)
		}
		sub := it.Subtotal()
		t.Quantity += it.Quantity
		t.Total += sub
		r.Products[it.Name] = t
		r.GrandTotal += sub
		parts = append(parts, fmt.Sprintf("%s — %d dona", it.Name, it.Quantity))
	}
	name := strings.TrimSpace(o.Customer.Name)
	if name == "" {
		name = unknownCustomer
	}
	r.Customers = append(r.Customers, fmt.Sprintf("%s (#%d): %s", name, o.ID, strings.Join(parts, ", ")))
}

// writeBody renders the product, totals and customer blocks shared by the
// daypart and weekly texts.
func writeBody(b *strings.Builder, r WindowReport) {
	b.WriteString("Mahsulotlar:\n")
	for _, name := range r.Names {
		t := r.Products[name]
		fmt.Fprintf(b, "%s — %d dona, %s so'm\n", name, t.Quantity, orders.FormatAmount(t.Total))
	}
	fmt.Fprintf(b, "\nJami buyurtmalar: %d ta\n", r.OrderCount)
	fmt.Fprintf(b, "Jami summa: %s so'm\n", orders.FormatAmount(r.GrandTotal))
	if len(r.Customers) > 0 {
		b.WriteString("\nMijozlar:\n")
		for _, c := range r.Customers {
			fmt.Fprintf(b, "- %s\n", c)
		}
	}
}
