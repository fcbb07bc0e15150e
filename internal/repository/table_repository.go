package repository

import (
	"context"
	"database/sql"

	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/model"
)

// TableRepo provides read access to the tables table. Tables are
// seeded by the owner dashboard (out of scope here); this service
// only lists them and verifies their existence when opening an
// occupancy session. Note that the reservation status of a table is
// not a column: it is derived from active sessions by the
// reservation package.
type TableRepo struct {
	db *sql.DB
}

// NewTableRepo returns a new TableRepo bound to the given database.
func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{db: db} }

// ListByRestaurant returns all in-service tables of a restaurant
// ordered by table number for deterministic output.
func (r *TableRepo) ListByRestaurant(ctx context.Context, restaurantID uint64) ([]model.Table, error) {
	const q = `SELECT id, restaurant_id, number, capacity, location, is_active, created_at, updated_at
	           FROM tables
	           WHERE restaurant_id = ? AND is_active = 1
	           ORDER BY number`
	rows, err := r.db.QueryContext(ctx, q, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tables := make([]model.Table, 0)
	for rows.Next() {
		var t model.Table
		if err := rows.Scan(&t.ID, &t.RestaurantID, &t.Number, &t.Capacity, &t.Location, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tables, nil
}

// GetByID fetches a single table. It returns ErrNotFound when the
// table does not exist or has been taken out of service.
func (r *TableRepo) GetByID(ctx context.Context, tableID uint64) (model.Table, error) {
	const q = `SELECT id, restaurant_id, number, capacity, location, is_active, created_at, updated_at
	           FROM tables
	           WHERE id = ? AND is_active = 1
	           LIMIT 1`
	var t model.Table
	err := r.db.QueryRowContext(ctx, q, tableID).Scan(
		&t.ID, &t.RestaurantID, &t.Number, &t.Capacity, &t.Location, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Table{}, ErrNotFound
	}
	return t, err
}
