// Package feed delivers the full current Item set of an owner to live
// subscribers on every committed mutation.
package feed

import (
	"sync"

	"stockledger/internal/model"
)

const subscriptionBuffer = 8

// Hub fans item-set snapshots out to per-owner subscriptions. Publishing
// never blocks: a subscriber that cannot keep up is dropped instead of
// applying backpressure to writers.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}
}

type Subscription struct {
	// C carries the owner's full Item set on every change. It is closed
	// when the subscription is cancelled or dropped.
	C chan []model.Item

	hub     *Hub
	ownerID string
	once    sync.Once
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*Subscription]struct{})}
}

func (h *Hub) Subscribe(ownerID string) *Subscription {
	s := &Subscription{
		C:       make(chan []model.Item, subscriptionBuffer),
		hub:     h,
		ownerID: ownerID,
	}
	h.mu.Lock()
	owner, ok := h.subs[ownerID]
	if !ok {
		owner = make(map[*Subscription]struct{})
		h.subs[ownerID] = owner
	}
	owner[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Publish delivers items to every subscription for the owner. Subscribers
// whose buffers are full are unsubscribed and their channels closed.
func (h *Hub) Publish(ownerID string, items []model.Item) {
	h.mu.RLock()
	var dropped []*Subscription
	for s := range h.subs[ownerID] {
		select {
		case s.C <- items:
		default:
			dropped = append(dropped, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range dropped {
		s.Close()
	}
}

// SubscriberCount reports the active subscriptions for an owner.
func (h *Hub) SubscriberCount(ownerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[ownerID])
}

// Close unsubscribes and closes C. Safe to call more than once and
// concurrently with Publish.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		owner := s.hub.subs[s.ownerID]
		delete(owner, s)
		if len(owner) == 0 {
			delete(s.hub.subs, s.ownerID)
		}
		// Closed under the write lock so a concurrent Publish, which sends
		// under the read lock, can never hit a closed channel.
		close(s.C)
		s.hub.mu.Unlock()
	})
}
