// Package feed delivers order-status change notifications to
// customer-session subscribers. It is a small in-process dispatcher:
// the broker consumer pushes every event it receives into Dispatch,
// and each subscriber registered for the event's session key gets a
// callback in arrival order. The feed makes no deduplication
// guarantee beyond what the broker provides: there is no stable
// per-event id to dedupe on, so a twice-delivered status reaches the
// subscriber twice.
package feed

import (
	"sync"

	"github.com/google/uuid"

	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/queue"
)

// Feed fans order-status events out to per-session subscribers. Safe
// for concurrent use.
type Feed struct {
	mu   sync.Mutex
	subs map[string]map[string]*Subscription // session key -> subscription id -> sub
}

// New returns an empty feed.
func New() *Feed {
	return &Feed{subs: make(map[string]map[string]*Subscription)}
}

// Subscription is a handle to one subscriber's registration.
// Unsubscribe is idempotent and must be called exactly once per
// component teardown; the HTTP layer defers it so every exit path,
// error paths included, releases the registration.
type Subscription struct {
	feed       *Feed
	sessionKey string
	id         string
	onEvent    func(queue.OrderStatusEvent)
	once       sync.Once
}

// Unsubscribe stops delivery. Calling it more than once is safe and
// does nothing after the first call.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.feed.mu.Lock()
		defer s.feed.mu.Unlock()
		if m, ok := s.feed.subs[s.sessionKey]; ok {
			delete(m, s.id)
			if len(m) == 0 {
				delete(s.feed.subs, s.sessionKey)
			}
		}
	})
}

// Subscribe registers onEvent for all order-status events scoped to
// the given customer session key and returns the handle that stops
// delivery.
func (f *Feed) Subscribe(sessionKey string, onEvent func(queue.OrderStatusEvent)) *Subscription {
	sub := &Subscription{
		feed:       f,
		sessionKey: sessionKey,
		id:         uuid.NewString(),
		onEvent:    onEvent,
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.subs[sessionKey]
	if !ok {
		m = make(map[string]*Subscription)
		f.subs[sessionKey] = m
	}
	m[sub.id] = sub
	return sub
}

// Dispatch delivers an event to every subscriber of its session key.
// Callbacks run synchronously on the dispatching goroutine, which is
// what preserves broker arrival order per subscriber.
func (f *Feed) Dispatch(ev queue.OrderStatusEvent) {
	f.mu.Lock()
	targets := make([]*Subscription, 0, 4)
	for _, sub := range f.subs[ev.SessionKey] {
		targets = append(targets, sub)
	}
	f.mu.Unlock()
	for _, sub := range targets {
		sub.onEvent(ev)
	}
}

// SubscriberCount reports how many subscriptions are registered for a
// session key. Used by tests and the health surface.
func (f *Feed) SubscriberCount(sessionKey string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[sessionKey])
}
