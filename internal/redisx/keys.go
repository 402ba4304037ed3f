package redisx

import "time"

const (
	// Checkout session per user: checkout:session:{user_id} -> JSON session
	KeyCheckoutSession = "checkout:session:%s"

	// Cached order status: order_status:{order_id} -> {"status": "...", "updated_at": "..."}
	KeyOrderStatus = "order_status:%d"
)

var (
	TTLSession     = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
)
