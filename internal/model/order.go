package model

import "time"

// Order status values.  Transitions are driven by kitchen staff
// through the order status endpoint; each transition is published to
// the message broker so customer feeds can surface it.
const (
	OrderPending   = "pending"
	OrderPreparing = "preparing"
	OrderReady     = "ready"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
)

// KnownOrderStatus reports whether s is a valid order status value.
func KnownOrderStatus(s string) bool {
	switch s {
	case OrderPending, OrderPreparing, OrderReady, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// Order is a customer order placed from a table session.  Menu line
// items live in a separate table and are not needed by this service's
// core flows, so they are not modelled here.
//
// Fields:
//  ID           – primary key identifier.
//  OrderNumber  – human-friendly number shown to the customer.
//  SessionKey   – table session the order belongs to.
//  RestaurantID – restaurant that received the order.
//  Status       – one of the Order* constants above.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Order struct {
	ID           uint64    // orders.id
	OrderNumber  string    // orders.order_number
	SessionKey   string    // orders.session_key
	RestaurantID uint64    // orders.restaurant_id
	Status       string    // orders.status
	CreatedAt    time.Time // orders.created_at
	UpdatedAt    time.Time // orders.updated_at
}
