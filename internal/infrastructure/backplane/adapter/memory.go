package adapter

import (
	"context"
	"sync"

	"conversa/internal/infrastructure/backplane/port"
)

// Hub is the in-process Backplane: a lock-protected map from group name to
// subscriber set. Delivery happens inline under a read lock; subscribers
// enqueue into their own buffered channels, so Publish never blocks on a
// slow client.
type Hub struct {
	mu     sync.RWMutex
	groups map[string]map[string]port.Subscriber
}

func NewHub() *Hub {
	return &Hub{groups: make(map[string]map[string]port.Subscriber)}
}

var _ port.Backplane = (*Hub)(nil)

// Join adds sub to the group. Joining twice is a no-op.
func (h *Hub) Join(ctx context.Context, group string, sub port.Subscriber) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.groups[group]
	if set == nil {
		set = make(map[string]port.Subscriber)
		h.groups[group] = set
	}
	set[sub.SubscriberID()] = sub
	return nil
}

// Leave removes sub from the group. Leaving a group it never joined is a
// no-op.
func (h *Hub) Leave(ctx context.Context, group string, sub port.Subscriber) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.groups[group]
	delete(set, sub.SubscriberID())
	if len(set) == 0 {
		delete(h.groups, group)
	}
	return nil
}

// Publish delivers payload to every current subscriber of the group.
func (h *Hub) Publish(ctx context.Context, group string, payload []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.groups[group] {
		sub.Deliver(payload)
	}
	return nil
}

// Members reports the current subscriber count of a group.
func (h *Hub) Members(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}
