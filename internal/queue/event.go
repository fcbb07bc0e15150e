// Package queue defines message payloads exchanged over the message broker.
package queue

import "time"

// OrderStatusQueueName is the durable queue carrying order status
// transitions from the kitchen to customer feeds.
const OrderStatusQueueName = "order.status"

// OrderStatusEvent is published whenever an order moves to a new
// status. It contains enough information for downstream consumers to
// notify the right customer session without querying the primary
// database. Events are ephemeral: consumers surface them once and
// discard them. No per-event id is guaranteed, so consumers must not
// assume deduplication is possible.
type OrderStatusEvent struct {
	OrderID      uint64    `json:"order_id"`
	OrderNumber  string    `json:"order_number"`
	SessionKey   string    `json:"session_key"`
	RestaurantID uint64    `json:"restaurant_id"`
	NewStatus    string    `json:"new_status"`
	OccurredAt   time.Time `json:"occurred_at"`
}
