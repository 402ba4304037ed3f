package orders

import "strconv"

const (
	TopicOrderCreated       = "order.created"
	TopicOrderStatusChanged = "order.status.changed"
)

// orderKey is the correlation id and partition key: all events of one order
// land on one partition and keep their order.
func orderKey(id int64) string { return strconv.FormatInt(id, 10) }
