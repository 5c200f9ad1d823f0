package broadcast

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	connID  string
	event   string
	payload interface{}
}

// fakeSender records deliveries and can fail for specific connections.
type fakeSender struct {
	mu       sync.Mutex
	sent     []sentMessage
	failConn string
}

func (f *fakeSender) Send(connID, event string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if connID == f.failConn {
		return errors.New("connection gone")
	}
	f.sent = append(f.sent, sentMessage{connID: connID, event: event, payload: payload})
	return nil
}

func (f *fakeSender) deliveries() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentMessage, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeSender) deliveriesFor(connID string) []sentMessage {
	var out []sentMessage
	for _, m := range f.deliveries() {
		if m.connID == connID {
			out = append(out, m)
		}
	}
	return out
}

func TestPublish_OnlyReachesOrderSubscribers(t *testing.T) {
	sender := &fakeSender{}
	router := NewRouter(sender)

	router.Subscribe("conn-a", "order-1")
	router.Subscribe("conn-b", "order-1")
	router.Subscribe("conn-c", "order-2")

	router.Publish("order-1", "driver-location-update", "payload-1")

	assert.Len(t, sender.deliveriesFor("conn-a"), 1)
	assert.Len(t, sender.deliveriesFor("conn-b"), 1)
	assert.Empty(t, sender.deliveriesFor("conn-c"))
}

func TestPublish_NoSubscribersIsNoOp(t *testing.T) {
	sender := &fakeSender{}
	router := NewRouter(sender)

	router.Publish("order-1", "driver-location-update", "payload")

	assert.Empty(t, sender.deliveries())
}

func TestPublish_DeadSubscriberDoesNotBlockOthers(t *testing.T) {
	sender := &fakeSender{failConn: "conn-dead"}
	router := NewRouter(sender)

	router.Subscribe("conn-dead", "order-1")
	router.Subscribe("conn-live", "order-1")

	router.Publish("order-1", "driver-location-update", "payload")

	require.Len(t, sender.deliveriesFor("conn-live"), 1)
	assert.Equal(t, "driver-location-update", sender.deliveriesFor("conn-live")[0].event)
}

func TestSubscribe_Idempotent(t *testing.T) {
	sender := &fakeSender{}
	router := NewRouter(sender)

	router.Subscribe("conn-a", "order-1")
	router.Subscribe("conn-a", "order-1")

	assert.Equal(t, 1, router.SubscriberCount("order-1"))

	router.Publish("order-1", "driver-location-update", "payload")
	assert.Len(t, sender.deliveriesFor("conn-a"), 1)
}

func TestSubscribe_MultipleOrdersPerConnection(t *testing.T) {
	sender := &fakeSender{}
	router := NewRouter(sender)

	router.Subscribe("conn-a", "order-1")
	router.Subscribe("conn-a", "order-2")

	router.Publish("order-1", "driver-location-update", "p1")
	router.Publish("order-2", "driver-location-update", "p2")

	assert.Len(t, sender.deliveriesFor("conn-a"), 2)
}

func TestUnsubscribeAll_RemovesEveryMembership(t *testing.T) {
	sender := &fakeSender{}
	router := NewRouter(sender)

	router.Subscribe("conn-a", "order-1")
	router.Subscribe("conn-a", "order-2")
	router.Subscribe("conn-b", "order-1")

	router.UnsubscribeAll("conn-a")

	assert.Equal(t, 1, router.SubscriberCount("order-1"))
	assert.Equal(t, 0, router.SubscriberCount("order-2"))

	router.Publish("order-1", "driver-location-update", "payload")
	router.Publish("order-2", "driver-location-update", "payload")

	assert.Empty(t, sender.deliveriesFor("conn-a"))
	assert.Len(t, sender.deliveriesFor("conn-b"), 1)
}

func TestUnsubscribeAll_UnknownConnectionIsNoOp(t *testing.T) {
	router := NewRouter(&fakeSender{})

	router.UnsubscribeAll("never-subscribed")
}

func TestPublish_PerOrderDeliveryOrder(t *testing.T) {
	sender := &fakeSender{}
	router := NewRouter(sender)
	router.Subscribe("conn-a", "order-1")

	router.Publish("order-1", "driver-location-update", "first")
	router.Publish("order-1", "driver-location-update", "second")

	got := sender.deliveriesFor("conn-a")
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].payload)
	assert.Equal(t, "second", got[1].payload)
}
