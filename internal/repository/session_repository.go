package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/model"
)

// SessionRepo provides data access to the sessions table (table
// occupancy sessions, not authentication sessions). The schema
// carries a generated `active` column that is 1 while closed_at is
// NULL and NULL afterwards, together with a unique index on
// (table_id, active). That index is the real guarantee that at most
// one active session exists per table; the service-level availability
// check on reserve is a UX optimization, not the safety mechanism.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo returns a new SessionRepo bound to the given database.
func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

// Create opens a new occupancy session. The insert relies on the
// unique (table_id, active) index to reject a second active session
// for the same table; the MySQL 1062 duplicate-key error is mapped
// onto ErrConflict so the service layer can report "table already
// reserved" even when two staff members race. On success the
// generated ID and timestamps are populated on the provided record.
func (r *SessionRepo) Create(ctx context.Context, s *model.TableSession) error {
	const q = `INSERT INTO sessions (session_key, table_id, restaurant_id, staff_id, customer_name, customer_phone, customer_email, started_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	s.StartedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, q,
		s.SessionKey, s.TableID, s.RestaurantID, s.StaffID,
		s.CustomerName, s.CustomerPhone, s.CustomerEmail,
		s.StartedAt.Format("2006-01-02 15:04:05"))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// ActiveByTable returns the active session for a table, or
// ErrNotFound when the table is free.
func (r *SessionRepo) ActiveByTable(ctx context.Context, tableID uint64) (model.TableSession, error) {
	const q = `SELECT id, session_key, table_id, restaurant_id, staff_id, customer_name, customer_phone, customer_email, started_at, closed_at
	           FROM sessions
	           WHERE table_id = ? AND closed_at IS NULL
	           LIMIT 1`
	return r.scanOne(r.db.QueryRowContext(ctx, q, tableID))
}

// ActiveByKey returns the active session with the given session key,
// or ErrNotFound. The customer feed uses this to verify a session key
// before attaching a subscription.
func (r *SessionRepo) ActiveByKey(ctx context.Context, sessionKey string) (model.TableSession, error) {
	const q = `SELECT id, session_key, table_id, restaurant_id, staff_id, customer_name, customer_phone, customer_email, started_at, closed_at
	           FROM sessions
	           WHERE session_key = ? AND closed_at IS NULL
	           LIMIT 1`
	return r.scanOne(r.db.QueryRowContext(ctx, q, sessionKey))
}

// ListActiveByRestaurant returns all active sessions for a
// restaurant, ordered by start time. Used when deriving table status
// for a listing in a single query pair instead of one lookup per
// table.
func (r *SessionRepo) ListActiveByRestaurant(ctx context.Context, restaurantID uint64) ([]model.TableSession, error) {
	const q = `SELECT id, session_key, table_id, restaurant_id, staff_id, customer_name, customer_phone, customer_email, started_at, closed_at
	           FROM sessions
	           WHERE restaurant_id = ? AND closed_at IS NULL
	           ORDER BY started_at`
	rows, err := r.db.QueryContext(ctx, q, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sessions := make([]model.TableSession, 0)
	for rows.Next() {
		s, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Close marks the given session closed iff it is still the active
// session for the given table. The zero-rows case maps onto
// ErrNotFound: releasing an already-closed session is a bug signal,
// not a no-op, so the second release of the same session must fail.
func (r *SessionRepo) Close(ctx context.Context, tableID, sessionID uint64) error {
	const q = `UPDATE sessions SET closed_at = UTC_TIMESTAMP()
	           WHERE id = ? AND table_id = ? AND closed_at IS NULL`
	res, err := r.db.ExecContext(ctx, q, sessionID, tableID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SessionRepo) scanOne(row *sql.Row) (model.TableSession, error) {
	var s model.TableSession
	var closedAt sql.NullTime
	err := row.Scan(&s.ID, &s.SessionKey, &s.TableID, &s.RestaurantID, &s.StaffID,
		&s.CustomerName, &s.CustomerPhone, &s.CustomerEmail, &s.StartedAt, &closedAt)
	if err == sql.ErrNoRows {
		return model.TableSession{}, ErrNotFound
	}
	if err != nil {
		return model.TableSession{}, err
	}
	if closedAt.Valid {
		t := closedAt.Time
		s.ClosedAt = &t
	}
	return s, nil
}

func (r *SessionRepo) scanRow(rows *sql.Rows) (model.TableSession, error) {
	var s model.TableSession
	var closedAt sql.NullTime
	err := rows.Scan(&s.ID, &s.SessionKey, &s.TableID, &s.RestaurantID, &s.StaffID,
		&s.CustomerName, &s.CustomerPhone, &s.CustomerEmail, &s.StartedAt, &closedAt)
	if err != nil {
		return model.TableSession{}, err
	}
	if closedAt.Valid {
		t := closedAt.Time
		s.ClosedAt = &t
	}
	return s, nil
}
