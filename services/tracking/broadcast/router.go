package broadcast

import (
	"sync"

	"github.com/kurirapp/kurir/internal/pkg/logger"
)

// Sender pushes an event to a single connection. A failed send only affects
// that connection.
type Sender interface {
	Send(connID, event string, payload interface{}) error
}

// Router maintains per-order subscriber groups and pushes updates only to
// connections watching that order. Delivery is best-effort, at most once per
// subscriber; per-order updates go out in Publish call order.
type Router struct {
	mu      sync.RWMutex
	byOrder map[string]map[string]struct{}
	byConn  map[string]map[string]struct{}
	sender  Sender
}

// NewRouter creates a router that delivers through the given sender.
func NewRouter(sender Sender) *Router {
	return &Router{
		byOrder: make(map[string]map[string]struct{}),
		byConn:  make(map[string]map[string]struct{}),
		sender:  sender,
	}
}

// Subscribe adds the connection to the order's subscriber set. Idempotent.
func (r *Router) Subscribe(connID, orderID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.byOrder[orderID] == nil {
		r.byOrder[orderID] = make(map[string]struct{})
	}
	r.byOrder[orderID][connID] = struct{}{}

	if r.byConn[connID] == nil {
		r.byConn[connID] = make(map[string]struct{})
	}
	r.byConn[connID][orderID] = struct{}{}
}

// UnsubscribeAll removes the connection from every subscriber set it belongs
// to, called on disconnect.
func (r *Router) UnsubscribeAll(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for orderID := range r.byConn[connID] {
		delete(r.byOrder[orderID], connID)
		if len(r.byOrder[orderID]) == 0 {
			delete(r.byOrder, orderID)
		}
	}
	delete(r.byConn, connID)
}

// Publish delivers the update to every current subscriber of the order.
// A dead subscriber is logged and skipped; the publisher never sees an
// error.
func (r *Router) Publish(orderID, event string, update interface{}) {
	r.mu.RLock()
	subscribers := make([]string, 0, len(r.byOrder[orderID]))
	for connID := range r.byOrder[orderID] {
		subscribers = append(subscribers, connID)
	}
	r.mu.RUnlock()

	for _, connID := range subscribers {
		if err := r.sender.Send(connID, event, update); err != nil {
			logger.Warn("Broadcast delivery failed",
				logger.String("order_id", orderID),
				logger.String("conn_id", connID),
				logger.Err(err))
		}
	}
}

// SubscriberCount returns the number of connections watching an order.
func (r *Router) SubscriberCount(orderID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byOrder[orderID])
}
