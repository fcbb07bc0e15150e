package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/feed"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/model"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/queue"
	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/repository"
)

// fakeSessionSource resolves exactly one session key.
type fakeSessionSource struct {
	session model.TableSession
}

func (f *fakeSessionSource) ActiveByKey(ctx context.Context, sessionKey string) (model.TableSession, error) {
	if sessionKey == f.session.SessionKey {
		return f.session, nil
	}
	return model.TableSession{}, repository.ErrNotFound
}

// stallWriter blocks the first body write until gate is closed,
// simulating a client that stops reading mid-stream.
type stallWriter struct {
	*httptest.ResponseRecorder
	gate    chan struct{}
	stalled chan struct{}
	once    sync.Once
}

func (w *stallWriter) Write(p []byte) (int, error) {
	w.once.Do(func() {
		close(w.stalled)
		<-w.gate
	})
	return w.ResponseRecorder.Write(p)
}

func newFeedFixture() (*FeedHandler, *feed.Feed) {
	f := feed.New()
	sessions := &fakeSessionSource{session: model.TableSession{
		ID:           1,
		SessionKey:   "sk-1",
		TableID:      1,
		RestaurantID: 100,
	}}
	return NewFeedHandler(f, sessions, time.Second), f
}

func statusEvent(id uint64) queue.OrderStatusEvent {
	return queue.OrderStatusEvent{
		OrderID:      id,
		OrderNumber:  "A-1",
		SessionKey:   "sk-1",
		RestaurantID: 100,
		NewStatus:    "preparing",
		OccurredAt:   time.Now(),
	}
}

func TestStreamRequiresSessionKey(t *testing.T) {
	h, _ := newFeedFixture()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/orders/feed", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, h.Stream(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStreamRejectsUnknownSessionKey(t *testing.T) {
	h, _ := newFeedFixture()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/orders/feed?session_key=nope", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, h.Stream(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStreamEndsWhenClientGoes(t *testing.T) {
	h, f := newFeedFixture()
	e := echo.New()
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/v1/orders/feed?session_key=sk-1", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan error, 1)
	go func() { done <- h.Stream(e.NewContext(req, rec)) }()

	require.Eventually(t, func() bool {
		return f.SubscriberCount("sk-1") == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("stream did not end after client disconnect")
	}
	assert.Equal(t, 0, f.SubscriberCount("sk-1"))
}

func TestStreamEndsInsteadOfSkippingEvents(t *testing.T) {
	h, f := newFeedFixture()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/orders/feed?session_key=sk-1", nil)
	w := &stallWriter{
		ResponseRecorder: httptest.NewRecorder(),
		gate:             make(chan struct{}),
		stalled:          make(chan struct{}),
	}

	done := make(chan error, 1)
	go func() { done <- h.Stream(e.NewContext(req, w)) }()

	require.Eventually(t, func() bool {
		return f.SubscriberCount("sk-1") == 1
	}, time.Second, 5*time.Millisecond)

	// First event reaches the write, which stalls like a client that
	// stopped reading.
	f.Dispatch(statusEvent(1))
	select {
	case <-w.stalled:
	case <-time.After(time.Second):
		t.Fatal("first event never reached the writer")
	}

	// Fill the delivery buffer, then push one event past it. A stream
	// this far behind ends rather than silently missing a status; the
	// client reconnects and re-reads current state.
	for i := uint64(2); i <= 18; i++ {
		f.Dispatch(statusEvent(i))
	}
	close(w.gate)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("stream kept running after falling behind")
	}
	assert.Equal(t, 0, f.SubscriberCount("sk-1"))
}
