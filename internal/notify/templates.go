package notify

import (
	"fmt"
	"strings"

	"github.com/ariefcatur/shop-orders/internal/orders"
)

// OrderText is the operations-chat summary of a stored order.
func OrderText(o orders.Order) string {
	c := o.Customer
	var b strings.Builder
	fmt.Fprintf(&b, "🛒 #%d-chi buyurtma!\n", o.ID)
	fmt.Fprintf(&b, "Ism: %s\n", orDash(c.Name))
	fmt.Fprintf(&b, "Telefon: %s\n", orDash(c.Phone))
	fmt.Fprintf(&b, "Manzil: %s\n", orDash(c.Address))
	if c.Location != "" {
		fmt.Fprintf(&b, "Lokatsiya: %s\n", c.Location)
	}
	b.WriteString("Mahsulotlar:\n")
	for _, it := range o.Items {
		fmt.Fprintf(&b, "- %s %d dona = %s so'm\n", it.Name, it.Quantity, orders.FormatAmount(it.Subtotal()))
	}
	fmt.Fprintf(&b, "\nJami: %s so'm", orders.FormatAmount(o.Total))
	return b.String()
}

// SubmissionMessage is returned to the client that placed order id.
func SubmissionMessage(id int64) string {
	return fmt.Sprintf("Buyurtma muvaffaqiyatli yuborildi! #%d-chi buyurtma. Tez orada siz bilan bog'lanamiz.", id)
}

// StatusText announces a status change made by an admin.
func StatusText(o orders.Order) string {
	return fmt.Sprintf("ℹ️ #%d-chi buyurtma holati: %s", o.ID, o.CurrentStatus())
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
