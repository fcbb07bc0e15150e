package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/queue"
)

func statusEvent(sessionKey, status string, orderID uint64) queue.OrderStatusEvent {
	return queue.OrderStatusEvent{
		OrderID:      orderID,
		OrderNumber:  "A-001",
		SessionKey:   sessionKey,
		RestaurantID: 100,
		NewStatus:    status,
		OccurredAt:   time.Now().UTC(),
	}
}

func TestDispatchPreservesArrivalOrder(t *testing.T) {
	f := New()
	var got []string
	sub := f.Subscribe("sess-1", func(ev queue.OrderStatusEvent) {
		got = append(got, ev.NewStatus)
	})
	defer sub.Unsubscribe()

	for _, s := range []string{"pending", "preparing", "ready", "delivered"} {
		f.Dispatch(statusEvent("sess-1", s, 1))
	}

	assert.Equal(t, []string{"pending", "preparing", "ready", "delivered"}, got)
}

func TestDispatchScopesBySessionKey(t *testing.T) {
	f := New()
	var mine, theirs int
	s1 := f.Subscribe("sess-1", func(queue.OrderStatusEvent) { mine++ })
	defer s1.Unsubscribe()
	s2 := f.Subscribe("sess-2", func(queue.OrderStatusEvent) { theirs++ })
	defer s2.Unsubscribe()

	f.Dispatch(statusEvent("sess-1", "ready", 1))
	f.Dispatch(statusEvent("sess-1", "delivered", 1))
	f.Dispatch(statusEvent("sess-2", "pending", 2))

	assert.Equal(t, 2, mine)
	assert.Equal(t, 1, theirs)
}

func TestUnsubscribeStopsDeliveryAndIsIdempotent(t *testing.T) {
	f := New()
	var got int
	sub := f.Subscribe("sess-1", func(queue.OrderStatusEvent) { got++ })

	f.Dispatch(statusEvent("sess-1", "pending", 1))
	sub.Unsubscribe()
	sub.Unsubscribe() // second call must be a no-op
	f.Dispatch(statusEvent("sess-1", "ready", 1))

	assert.Equal(t, 1, got)
	assert.Zero(t, f.SubscriberCount("sess-1"))
}

func TestUnsubscribeLeavesOtherSubscribersAlone(t *testing.T) {
	f := New()
	var a, b int
	subA := f.Subscribe("sess-1", func(queue.OrderStatusEvent) { a++ })
	subB := f.Subscribe("sess-1", func(queue.OrderStatusEvent) { b++ })
	defer subB.Unsubscribe()

	subA.Unsubscribe()
	f.Dispatch(statusEvent("sess-1", "ready", 1))

	assert.Zero(t, a)
	assert.Equal(t, 1, b)
	assert.Equal(t, 1, f.SubscriberCount("sess-1"))
}

func TestDuplicateDeliveryReachesSubscriberTwice(t *testing.T) {
	f := New()
	var got int
	sub := f.Subscribe("sess-1", func(queue.OrderStatusEvent) { got++ })
	defer sub.Unsubscribe()

	ev := statusEvent("sess-1", "ready", 1)
	f.Dispatch(ev)
	f.Dispatch(ev) // broker redelivery is passed through, not deduped

	assert.Equal(t, 2, got)
}
