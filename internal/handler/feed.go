package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/feed"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/model"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/queue"
)

// SessionSource resolves a customer's session key to its active table
// session. Satisfied by repository.SessionRepo.
type SessionSource interface {
	ActiveByKey(ctx context.Context, sessionKey string) (model.TableSession, error)
}

// FeedHandler streams order status updates for one table session over
// Server-Sent Events. The customer page opens the stream right after
// placing an order and keeps it for the life of the visit.
type FeedHandler struct {
	Feed     *feed.Feed
	Sessions SessionSource
	Timeout  time.Duration
}

func NewFeedHandler(f *feed.Feed, sessions SessionSource, timeout time.Duration) *FeedHandler {
	return &FeedHandler{Feed: f, Sessions: sessions, Timeout: timeout}
}

// Stream handles GET /v1/orders/feed?session_key=...
//
// The subscription is torn down on every exit path; closing the tab,
// a proxy timeout and a server shutdown all release the slot exactly
// once.
func (h *FeedHandler) Stream(c echo.Context) error {
	sessionKey := c.QueryParam("session_key")
	if sessionKey == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "session_key is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	sess, err := h.Sessions.ActiveByKey(ctx, sessionKey)
	cancel()
	if err != nil {
		return respondError(c, err)
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	// The dispatcher invokes callbacks synchronously, so buffer enough
	// events that a slow client does not stall deliveries to other
	// sessions. When even the buffer fills, the stream ends instead of
	// skipping events: a status update lost mid-stream would leave the
	// customer's page showing the wrong state until the next update,
	// whereas a reconnect re-reads the current state.
	events := make(chan queue.OrderStatusEvent, 16)
	overflow := make(chan struct{})
	var overflowOnce sync.Once
	sub := h.Feed.Subscribe(sess.SessionKey, func(ev queue.OrderStatusEvent) {
		select {
		case events <- ev:
		default:
			overflowOnce.Do(func() { close(overflow) })
		}
	})
	defer sub.Unsubscribe()

	flusher, ok := res.Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "streaming unsupported")
	}

	// Heartbeat comments keep intermediaries from closing an idle stream.
	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	clientGone := c.Request().Context().Done()
	for {
		select {
		case <-clientGone:
			return nil
		case <-overflow:
			return nil
		case <-heartbeat.C:
			if _, err := fmt.Fprint(res.Writer, ": ping\n\n"); err != nil {
				return nil
			}
			flusher.Flush()
		case ev := <-events:
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(res.Writer, "event: order_status\ndata: %s\n\n", payload); err != nil {
				return nil
			}
			flusher.Flush()
		}
	}
}
