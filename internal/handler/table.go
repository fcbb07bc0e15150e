package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/middleware"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/model"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/reservation"
)

// ListingCache drops a cached GET response once a write has made it
// stale. Satisfied by middleware.CacheInvalidator.
type ListingCache interface {
	Invalidate(ctx context.Context, path string)
}

// TableHandler exposes the staff table-management operations. Role
// enforcement happens in middleware; handlers only translate between
// HTTP and the reservation manager. Cache may be nil; when set, every
// successful reserve or release drops the restaurant's cached table
// listing so the next staff refresh reflects the write instead of
// waiting out the cache TTL.
type TableHandler struct {
	Manager *reservation.Manager
	Cache   ListingCache
}

func NewTableHandler(m *reservation.Manager, cache ListingCache) *TableHandler {
	return &TableHandler{Manager: m, Cache: cache}
}

// listingPath is the concrete path the cache middleware keys the
// table listing under; invalidation must target the exact same path.
func listingPath(restaurantID uint64) string {
	return fmt.Sprintf("/v1/restaurants/%d/tables", restaurantID)
}

func (h *TableHandler) dropListing(ctx context.Context, restaurantID uint64) {
	if h.Cache != nil {
		h.Cache.Invalidate(ctx, listingPath(restaurantID))
	}
}

// tableResp is the wire shape of one table with derived status. The
// session summary is present only while the table is reserved.
type tableResp struct {
	ID             uint64         `json:"id"`
	Number         uint32         `json:"number"`
	Capacity       uint32         `json:"capacity"`
	Location       string         `json:"location"`
	Status         string         `json:"reservation_status"`
	CurrentSession *occupancyResp `json:"current_session,omitempty"`
}

type occupancyResp struct {
	ID            uint64 `json:"id"`
	SessionKey    string `json:"session_key"`
	TableID       uint64 `json:"table_id"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`
	StartedAt     string `json:"started_at"`
}

func toSessionResp(s model.TableSession) *occupancyResp {
	return &occupancyResp{
		ID:            s.ID,
		SessionKey:    s.SessionKey,
		TableID:       s.TableID,
		CustomerName:  s.CustomerName,
		CustomerPhone: s.CustomerPhone,
		CustomerEmail: s.CustomerEmail,
		StartedAt:     s.StartedAt.UTC().Format(time.RFC3339),
	}
}

// ListTables handles GET /v1/restaurants/:id/tables. The response is
// the unpartitioned list; splitting into available/reserved columns
// is the client's concern.
func (h *TableHandler) ListTables(c echo.Context) error {
	restaurantID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || restaurantID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	views, err := h.Manager.ListTables(c.Request().Context(), restaurantID)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]tableResp, 0, len(views))
	for _, v := range views {
		tr := tableResp{
			ID:       v.Table.ID,
			Number:   v.Table.Number,
			Capacity: v.Table.Capacity,
			Location: v.Table.Location,
			Status:   v.Status,
		}
		if v.CurrentSession != nil {
			tr.CurrentSession = toSessionResp(*v.CurrentSession)
		}
		out = append(out, tr)
	}
	return c.JSON(http.StatusOK, echo.Map{"tables": out})
}

type reserveReq struct {
	RestaurantID uint64               `json:"restaurant_id"`
	Customer     reservation.Customer `json:"customer"`
}

// Reserve handles POST /v1/tables/:id/reserve. On conflict the client
// is expected to refresh its table list; the 409 body says so
// explicitly because the stale-snapshot race is the common cause.
func (h *TableHandler) Reserve(c echo.Context) error {
	tableID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || tableID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	var req reserveReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.RestaurantID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "restaurant_id is required"})
	}
	staffID, _ := c.Get(middleware.CtxUserID).(uint64)
	if staffID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	session, err := h.Manager.Reserve(c.Request().Context(), tableID, req.RestaurantID, staffID, req.Customer)
	if err != nil {
		return respondError(c, err)
	}
	h.dropListing(c.Request().Context(), session.RestaurantID)
	return c.JSON(http.StatusCreated, echo.Map{"session": toSessionResp(session)})
}

type releaseReq struct {
	SessionID uint64 `json:"session_id"`
}

// Release handles POST /v1/tables/:id/release.
func (h *TableHandler) Release(c echo.Context) error {
	tableID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || tableID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	var req releaseReq
	if err := c.Bind(&req); err != nil || req.SessionID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "session_id is required"})
	}
	restaurantID, err := h.Manager.Release(c.Request().Context(), tableID, req.SessionID)
	if err != nil {
		return respondError(c, err)
	}
	h.dropListing(c.Request().Context(), restaurantID)
	return c.JSON(http.StatusOK, echo.Map{"released": true})
}
