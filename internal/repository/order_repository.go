package repository

import (
	"context"
	"database/sql"

	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/model"
)

// OrderRepo provides the minimal order access this service needs:
// fetching an order and moving it between statuses. Menu line items
// and payment state belong to other services.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// GetByID fetches a single order or ErrNotFound.
func (r *OrderRepo) GetByID(ctx context.Context, orderID uint64) (model.Order, error) {
	const q = `SELECT id, order_number, session_key, restaurant_id, status, created_at, updated_at
	           FROM orders WHERE id = ? LIMIT 1`
	var o model.Order
	err := r.db.QueryRowContext(ctx, q, orderID).Scan(
		&o.ID, &o.OrderNumber, &o.SessionKey, &o.RestaurantID, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Order{}, ErrNotFound
	}
	return o, err
}

// UpdateStatus moves an order to a new status and returns the updated
// row. ErrNotFound is returned when the order does not exist.
func (r *OrderRepo) UpdateStatus(ctx context.Context, orderID uint64, status string) (model.Order, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE orders SET status=?, updated_at=UTC_TIMESTAMP() WHERE id=?",
		status, orderID)
	if err != nil {
		return model.Order{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Order{}, err
	}
	if n == 0 {
		// Distinguish "no such order" from "status unchanged".
		if _, err := r.GetByID(ctx, orderID); err != nil {
			return model.Order{}, err
		}
	}
	return r.GetByID(ctx, orderID)
}
