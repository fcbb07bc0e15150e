package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/middleware"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/model"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/repository"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/reservation"
)

// memTables serves a fixed table set to the manager.
type memTables struct {
	tables []model.Table
}

func (f *memTables) ListByRestaurant(ctx context.Context, restaurantID uint64) ([]model.Table, error) {
	var out []model.Table
	for _, t := range f.tables {
		if t.RestaurantID == restaurantID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *memTables) GetByID(ctx context.Context, tableID uint64) (model.Table, error) {
	for _, t := range f.tables {
		if t.ID == tableID {
			return t, nil
		}
	}
	return model.Table{}, repository.ErrNotFound
}

// memSessions keeps at most one active session per table, like the
// unique index does in storage.
type memSessions struct {
	mu     sync.Mutex
	nextID uint64
	active map[uint64]*model.TableSession
}

func newMemSessions() *memSessions {
	return &memSessions{nextID: 1, active: map[uint64]*model.TableSession{}}
}

func (f *memSessions) Create(ctx context.Context, s *model.TableSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.active[s.TableID]; busy {
		return repository.ErrConflict
	}
	s.ID = f.nextID
	f.nextID++
	cp := *s
	f.active[s.TableID] = &cp
	return nil
}

func (f *memSessions) Close(ctx context.Context, tableID, sessionID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.active[tableID]
	if !ok || cur.ID != sessionID {
		return repository.ErrNotFound
	}
	delete(f.active, tableID)
	return nil
}

func (f *memSessions) ActiveByTable(ctx context.Context, tableID uint64) (model.TableSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cur, ok := f.active[tableID]; ok {
		return *cur, nil
	}
	return model.TableSession{}, repository.ErrNotFound
}

func (f *memSessions) ListActiveByRestaurant(ctx context.Context, restaurantID uint64) ([]model.TableSession, error) {
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

// recordingCache records which listing paths were invalidated.
type recordingCache struct {
	dropped []string
}

func (r *recordingCache) Invalidate(ctx context.Context, path string) {
	r.dropped = append(r.dropped, path)
}

func newTableFixture() (*TableHandler, *memSessions, *recordingCache) {
	tables := &memTables{tables: []model.Table{
		{ID: 1, RestaurantID: 100, Number: 4, Capacity: 2, Location: "window", IsActive: true},
	}}
	sessions := newMemSessions()
	cache := &recordingCache{}
	m := reservation.NewManager(tables, sessions, time.Second)
	return NewTableHandler(m, cache), sessions, cache
}

func doTable(t *testing.T, h *TableHandler, target, body string, call func(echo.Context) error) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/tables/:id/" + target[strings.LastIndex(target, "/")+1:])
	c.SetParamNames("id")
	c.SetParamValues("1")
	c.Set(middleware.CtxUserID, uint64(42))
	require.NoError(t, call(c))
	return rec
}

func TestReserveDropsCachedListing(t *testing.T) {
	h, _, cache := newTableFixture()

	rec := doTable(t, h, "/v1/tables/1/reserve",
		`{"restaurant_id":100,"customer":{"name":"Walk-in"}}`, h.Reserve)

	assert.Equal(t, http.StatusCreated, rec.Code)
	// The listing is invalidated under the restaurant recorded on the
	// table row, so the next GET sees the table as reserved instead of
	// waiting out the cache TTL.
	assert.Equal(t, []string{"/v1/restaurants/100/tables"}, cache.dropped)
}

func TestReleaseDropsCachedListing(t *testing.T) {
	h, sessions, cache := newTableFixture()

	rec := doTable(t, h, "/v1/tables/1/reserve",
		`{"restaurant_id":100,"customer":{"name":"Walk-in"}}`, h.Reserve)
	require.Equal(t, http.StatusCreated, rec.Code)
	active, err := sessions.ActiveByTable(context.Background(), 1)
	require.NoError(t, err)

	rec = doTable(t, h, "/v1/tables/1/release",
		`{"session_id":`+strconv.FormatUint(active.ID, 10)+`}`, h.Release)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{
		"/v1/restaurants/100/tables",
		"/v1/restaurants/100/tables",
	}, cache.dropped)
}

func TestReserveConflictLeavesCacheAlone(t *testing.T) {
	h, _, cache := newTableFixture()

	rec := doTable(t, h, "/v1/tables/1/reserve",
		`{"restaurant_id":100,"customer":{"name":"First"}}`, h.Reserve)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doTable(t, h, "/v1/tables/1/reserve",
		`{"restaurant_id":100,"customer":{"name":"Second"}}`, h.Reserve)

	assert.Equal(t, http.StatusConflict, rec.Code)
	// Only the winning reserve invalidated; the loser changed nothing.
	assert.Len(t, cache.dropped, 1)
}
