package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

const subscriberBuffer = 16

// Hub is the in-process Notifier: a mutex-guarded map of one open channel
// per user. It is process-local by design; a second instance of the service
// has its own hub and never sees this one's subscribers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]*Subscription
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subs:   make(map[string]*Subscription),
		logger: logger,
	}
}

// Subscribe opens a channel for userID. A second subscribe for the same user
// replaces the first, closing its channel.
func (h *Hub) Subscribe(userID string) *Subscription {
	sub := &Subscription{
		UserID: userID,
		C:      make(chan Event, subscriberBuffer),
	}

	h.mu.Lock()
	if prev, ok := h.subs[userID]; ok {
		close(prev.C)
	}
	h.subs[userID] = sub
	h.mu.Unlock()

	return sub
}

func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.subs[sub.UserID]; ok && current == sub {
		delete(h.subs, sub.UserID)
		close(sub.C)
	}
}

// Publish sends event to the user's channel if one is open. No subscriber,
// or a subscriber whose buffer is full, means the event is dropped.
//
// The read lock is held across the send: every close of a subscriber
// channel happens under the write lock, so a channel found in the map here
// cannot be closed until the send has either completed or fallen through.
func (h *Hub) Publish(_ context.Context, userID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sub, ok := h.subs[userID]
	if !ok {
		return
	}

	select {
	case sub.C <- event:
	default:
		h.logger.Warn("dropping event for slow subscriber",
			zap.String("user_id", userID),
			zap.String("event_type", string(event.Type)))
	}
}

// Close drops every subscriber, closing their channels. Called on shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, sub := range h.subs {
		close(sub.C)
		delete(h.subs, userID)
	}
}
