// Package reservation implements the staff-side table lifecycle:
// listing a restaurant's tables with live occupancy status, seating a
// walk-in party, and releasing the table when the party leaves. A
// table's status is never stored; it is derived from the existence of
// an active occupancy session, which is what keeps status and session
// state from drifting apart.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/model"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/repository"
)

// TableStore is the read surface the manager needs over tables.
// Satisfied by repository.TableRepo.
type TableStore interface {
	ListByRestaurant(ctx context.Context, restaurantID uint64) ([]model.Table, error)
	GetByID(ctx context.Context, tableID uint64) (model.Table, error)
}

// SessionStore is the occupancy-session surface. Satisfied by
// repository.SessionRepo. Create must return repository.ErrConflict
// when an active session already exists for the table, and Close must
// return repository.ErrNotFound when the given session is not the
// active session for the table.
type SessionStore interface {
	Create(ctx context.Context, s *model.TableSession) error
	Close(ctx context.Context, tableID, sessionID uint64) error
	ActiveByTable(ctx context.Context, tableID uint64) (model.TableSession, error)
	ListActiveByRestaurant(ctx context.Context, restaurantID uint64) ([]model.TableSession, error)
}

// Customer is the walk-in party information captured when a table is
// reserved. Name is required; phone and email are optional contact
// details.
type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// TableView is a table decorated with its derived reservation status
// and, when reserved, a summary of the active session. Partitioning
// into available/reserved lists is a view concern left to the caller.
type TableView struct {
	Table          model.Table
	Status         string
	CurrentSession *model.TableSession
}

// Manager drives the table-reservation state machine. Operations
// return typed errors from the repository taxonomy; transient backend
// failures are never retried here because a blind retry without an
// idempotency key could double-create sessions.
type Manager struct {
	tables   TableStore
	sessions SessionStore
	timeout  time.Duration
}

// NewManager binds the manager to its stores. timeout bounds every
// backend call.
func NewManager(tables TableStore, sessions SessionStore, timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Manager{tables: tables, sessions: sessions, timeout: timeout}
}

// DeriveStatus computes a table's reservation status from the set of
// active sessions. It is the single definition of "is this table
// reserved"; callers must not recompute it inline.
func DeriveStatus(table model.Table, active []model.TableSession) (string, *model.TableSession) {
	for i := range active {
		if active[i].TableID == table.ID && active[i].Active() {
			return model.TableReserved, &active[i]
		}
	}
	return model.TableAvailable, nil
}

// ListTables returns the restaurant's tables with derived status and,
// for reserved tables, the active session summary. One query per
// store rather than one session lookup per table.
func (m *Manager) ListTables(ctx context.Context, restaurantID uint64) ([]TableView, error) {
	opCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	tables, err := m.tables.ListByRestaurant(opCtx, restaurantID)
	if err != nil {
		return nil, repository.AsTransient(err)
	}
	active, err := m.sessions.ListActiveByRestaurant(opCtx, restaurantID)
	if err != nil {
		return nil, repository.AsTransient(err)
	}
	views := make([]TableView, 0, len(tables))
	for _, t := range tables {
		status, current := DeriveStatus(t, active)
		views = append(views, TableView{Table: t, Status: status, CurrentSession: current})
	}
	return views, nil
}

// Reserve seats a walk-in party at a table. The customer name must be
// non-empty after trimming; validation fails before any write. The
// table's availability is re-checked at write time rather than
// trusting whatever listing the staff client last rendered, and the
// storage layer's unique active-session index backs that check under
// true concurrency: if two staff members race, exactly one insert
// succeeds and the other observes ErrConflict.
func (m *Manager) Reserve(ctx context.Context, tableID, restaurantID, staffID uint64, cust Customer) (model.TableSession, error) {
	name := strings.TrimSpace(cust.Name)
	if name == "" {
		return model.TableSession{}, fmt.Errorf("%w: customer name is required", repository.ErrValidation)
	}

	opCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	table, err := m.tables.GetByID(opCtx, tableID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.TableSession{}, fmt.Errorf("%w: table %d", repository.ErrNotFound, tableID)
		}
		return model.TableSession{}, repository.AsTransient(err)
	}
	if table.RestaurantID != restaurantID {
		return model.TableSession{}, fmt.Errorf("%w: table belongs to another restaurant", repository.ErrForbidden)
	}

	// Server-side availability re-check. The unique index is the real
	// safety mechanism; this turns the common stale-UI case
	// into a clean conflict before an insert is attempted.
	if _, err := m.sessions.ActiveByTable(opCtx, tableID); err == nil {
		return model.TableSession{}, fmt.Errorf("%w: table already reserved", repository.ErrConflict)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return model.TableSession{}, repository.AsTransient(err)
	}

	session := model.TableSession{
		SessionKey:    uuid.NewString(),
		TableID:       tableID,
		RestaurantID:  restaurantID,
		StaffID:       staffID,
		CustomerName:  name,
		CustomerPhone: strings.TrimSpace(cust.Phone),
		CustomerEmail: strings.TrimSpace(cust.Email),
		StartedAt:     time.Now().UTC(),
	}
	if err := m.sessions.Create(opCtx, &session); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return model.TableSession{}, fmt.Errorf("%w: table already reserved", repository.ErrConflict)
		}
		return model.TableSession{}, repository.AsTransient(err)
	}
	return session, nil
}

// Release closes the active session for a table. The session must be
// the table's currently active session; releasing an already-closed
// session fails with ErrNotFound because a double release is a bug
// signal, not a no-op. The table's derived status flips back to
// available purely as a consequence of the session closing. The
// returned restaurant ID identifies the listing the release changed,
// so callers can drop cached copies of it.
func (m *Manager) Release(ctx context.Context, tableID, sessionID uint64) (uint64, error) {
	opCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	table, err := m.tables.GetByID(opCtx, tableID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, fmt.Errorf("%w: table %d", repository.ErrNotFound, tableID)
		}
		return 0, repository.AsTransient(err)
	}
	if err := m.sessions.Close(opCtx, tableID, sessionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, fmt.Errorf("%w: no active session for this table", repository.ErrNotFound)
		}
		return 0, repository.AsTransient(err)
	}
	return table.RestaurantID, nil
}
