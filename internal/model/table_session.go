package model

import "time"

// TableSession records one seated party's lifetime at a table.  It is
// distinct from the authentication session: a table session is opened
// by a staff member when a walk-in customer is seated and closed when
// the party leaves.  At most one active session may exist per table at
// any time; the storage layer enforces this with a unique index on
// (table_id, active).
//
// Fields:
//  ID            – primary key identifier.
//  SessionKey    – opaque key printed on the customer's order slip and
//                  used by the customer-facing feed to scope events.
//  TableID       – table the party is seated at.
//  RestaurantID  – restaurant owning the table.
//  StaffID       – staff member who opened the session.
//  CustomerName  – name of the party (required).
//  CustomerPhone – optional contact phone.
//  CustomerEmail – optional contact email.
//  StartedAt     – when the party was seated.
//  ClosedAt      – when the session was released (null while active).
type TableSession struct {
	ID            uint64     // sessions.id
	SessionKey    string     // sessions.session_key
	TableID       uint64     // sessions.table_id
	RestaurantID  uint64     // sessions.restaurant_id
	StaffID       uint64     // sessions.staff_id
	CustomerName  string     // sessions.customer_name
	CustomerPhone string     // sessions.customer_phone
	CustomerEmail string     // sessions.customer_email
	StartedAt     time.Time  // sessions.started_at
	ClosedAt      *time.Time // sessions.closed_at (nullable)
}

// Active reports whether the session currently occupies its table.
func (s TableSession) Active() bool {
	return s.ClosedAt == nil
}
