package model

import "time"

// Reservation status values for a table.  The status is derived from
// the existence of an active occupancy session and is never stored in
// the tables table itself.
const (
	TableAvailable = "available"
	TableReserved  = "reserved"
)

// Table describes a physical seating unit in a restaurant.  Tables
// are uniquely identified within their restaurant by number.  The
// location field is a free-text zone label ("terrace", "window", ...).
//
// Fields:
//  ID           – primary key identifier.
//  RestaurantID – restaurant to which this table belongs.
//  Number       – table number shown on the printed QR card.
//  Capacity     – number of guests the table seats.
//  Location     – free-text zone label.
//  IsActive     – whether the table is in service.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Table struct {
	ID           uint64    // tables.id
	RestaurantID uint64    // tables.restaurant_id
	Number       uint32    // tables.number
	Capacity     uint32    // tables.capacity
	Location     string    // tables.location
	IsActive     bool      // tables.is_active
	CreatedAt    time.Time // tables.created_at
	UpdatedAt    time.Time // tables.updated_at
}
