package reservation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/model"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/repository"
)

// fakeTables serves a fixed table set.
type fakeTables struct {
	tables []model.Table
	err    error
}

func (f *fakeTables) ListByRestaurant(ctx context.Context, restaurantID uint64) ([]model.Table, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Table
	for _, t := range f.tables {
		if t.RestaurantID == restaurantID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTables) GetByID(ctx context.Context, tableID uint64) (model.Table, error) {
	if f.err != nil {
		return model.Table{}, f.err
	}
	for _, t := range f.tables {
		if t.ID == tableID {
			return t, nil
		}
	}
	return model.Table{}, repository.ErrNotFound
}

// fakeSessions stores sessions in memory and enforces the one-active-
// session-per-table rule the same way the unique index does: inside
// Create, under a lock.
type fakeSessions struct {
	mu        sync.Mutex
	nextID    uint64
	active    map[uint64]*model.TableSession // keyed by table ID
	creates   int
	staleRead bool // when set, ActiveByTable always reports no session
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{nextID: 1, active: map[uint64]*model.TableSession{}}
}

func (f *fakeSessions) Create(ctx context.Context, s *model.TableSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if _, busy := f.active[s.TableID]; busy {
		return repository.ErrConflict
	}
	s.ID = f.nextID
	f.nextID++
	cp := *s
	f.active[s.TableID] = &cp
	return nil
}

func (f *fakeSessions) Close(ctx context.Context, tableID, sessionID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.active[tableID]
	if !ok || cur.ID != sessionID {
		return repository.ErrNotFound
	}
	delete(f.active, tableID)
	return nil
}

func (f *fakeSessions) ActiveByTable(ctx context.Context, tableID uint64) (model.TableSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.staleRead {
		return model.TableSession{}, repository.ErrNotFound
	}
	if s, ok := f.active[tableID]; ok {
		return *s, nil
	}
	return model.TableSession{}, repository.ErrNotFound
}

func (f *fakeSessions) ListActiveByRestaurant(ctx context.Context, restaurantID uint64) ([]model.TableSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.TableSession
	for _, s := range f.active {
		if s.RestaurantID == restaurantID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func testTables() *fakeTables {
	return &fakeTables{tables: []model.Table{
		{ID: 1, RestaurantID: 100, Number: 1, Capacity: 2, IsActive: true},
		{ID: 2, RestaurantID: 100, Number: 2, Capacity: 4, IsActive: true},
		{ID: 3, RestaurantID: 200, Number: 1, Capacity: 6, IsActive: true},
	}}
}

func TestListTablesDerivesStatusFromSessions(t *testing.T) {
	sessions := newFakeSessions()
	m := NewManager(testTables(), sessions, time.Second)
	ctx := context.Background()

	_, err := m.Reserve(ctx, 1, 100, 42, Customer{Name: "Amina"})
	require.NoError(t, err)

	views, err := m.ListTables(ctx, 100)
	require.NoError(t, err)
	require.Len(t, views, 2)

	byID := map[uint64]TableView{}
	for _, v := range views {
		byID[v.Table.ID] = v
	}
	assert.Equal(t, model.TableReserved, byID[1].Status)
	require.NotNil(t, byID[1].CurrentSession)
	assert.Equal(t, "Amina", byID[1].CurrentSession.CustomerName)
	assert.Equal(t, model.TableAvailable, byID[2].Status)
	assert.Nil(t, byID[2].CurrentSession)
}

func TestReserveRejectsBlankNameBeforeAnyWrite(t *testing.T) {
	sessions := newFakeSessions()
	m := NewManager(testTables(), sessions, time.Second)

	_, err := m.Reserve(context.Background(), 1, 100, 42, Customer{Name: "   "})

	assert.ErrorIs(t, err, repository.ErrValidation)
	assert.Zero(t, sessions.creates, "validation must fail before the store is touched")
}

func TestReserveTrimsCustomerFields(t *testing.T) {
	m := NewManager(testTables(), newFakeSessions(), time.Second)

	s, err := m.Reserve(context.Background(), 1, 100, 42, Customer{
		Name:  "  Amina  ",
		Phone: " 555-0100 ",
	})

	require.NoError(t, err)
	assert.Equal(t, "Amina", s.CustomerName)
	assert.Equal(t, "555-0100", s.CustomerPhone)
	assert.NotEmpty(t, s.SessionKey)
	assert.Equal(t, uint64(42), s.StaffID)
}

func TestReserveUnknownTable(t *testing.T) {
	m := NewManager(testTables(), newFakeSessions(), time.Second)

	_, err := m.Reserve(context.Background(), 99, 100, 42, Customer{Name: "Amina"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestReserveForeignTableIsForbidden(t *testing.T) {
	m := NewManager(testTables(), newFakeSessions(), time.Second)

	// Table 3 belongs to restaurant 200.
	_, err := m.Reserve(context.Background(), 3, 100, 42, Customer{Name: "Amina"})
	assert.ErrorIs(t, err, repository.ErrForbidden)
}

func TestReserveOccupiedTableConflicts(t *testing.T) {
	sessions := newFakeSessions()
	m := NewManager(testTables(), sessions, time.Second)
	ctx := context.Background()

	_, err := m.Reserve(ctx, 1, 100, 42, Customer{Name: "Amina"})
	require.NoError(t, err)

	_, err = m.Reserve(ctx, 1, 100, 43, Customer{Name: "Bram"})
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestConcurrentReserveAdmitsExactlyOne(t *testing.T) {
	sessions := newFakeSessions()
	// Both callers see the table as free; only the insert decides.
	sessions.staleRead = true
	m := NewManager(testTables(), sessions, time.Second)

	const racers = 2
	errs := make([]error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.Reserve(context.Background(), 2, 100, uint64(50+i), Customer{Name: "Walk-in"})
		}(i)
	}
	wg.Wait()

	var ok, conflict int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, repository.ErrConflict):
			conflict++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflict)
}

func TestReleaseClosesSessionAndFreesTable(t *testing.T) {
	sessions := newFakeSessions()
	m := NewManager(testTables(), sessions, time.Second)
	ctx := context.Background()

	s, err := m.Reserve(ctx, 1, 100, 42, Customer{Name: "Amina"})
	require.NoError(t, err)

	restaurantID, err := m.Release(ctx, 1, s.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), restaurantID)

	views, err := m.ListTables(ctx, 100)
	require.NoError(t, err)
	for _, v := range views {
		if v.Table.ID == 1 {
			assert.Equal(t, model.TableAvailable, v.Status)
		}
	}
}

func TestDoubleReleaseFails(t *testing.T) {
	sessions := newFakeSessions()
	m := NewManager(testTables(), sessions, time.Second)
	ctx := context.Background()

	s, err := m.Reserve(ctx, 1, 100, 42, Customer{Name: "Amina"})
	require.NoError(t, err)
	_, err = m.Release(ctx, 1, s.ID)
	require.NoError(t, err)

	// The second release reports the missing session instead of
	// silently succeeding; the caller's view of the table is stale.
	_, err = m.Release(ctx, 1, s.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBackendFailuresSurfaceAsTransient(t *testing.T) {
	broken := &fakeTables{err: errors.New("dial tcp: connection refused")}
	m := NewManager(broken, newFakeSessions(), time.Second)

	_, err := m.ListTables(context.Background(), 100)
	assert.ErrorIs(t, err, repository.ErrTransient)

	_, err = m.Reserve(context.Background(), 1, 100, 42, Customer{Name: "Amina"})
	assert.ErrorIs(t, err, repository.ErrTransient)
}
