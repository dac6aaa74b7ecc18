// Package notify delivers best-effort order lifecycle events to connected
// clients. Delivery is fire-and-forget: events are not queued, replayed or
// acknowledged, and publishing to a user with no open channel is a no-op.
package notify

import "context"

type EventType string

const (
	EventOrderCreating EventType = "ORDER_CREATING"
	EventOrderCreated  EventType = "ORDER_CREATED"
	EventOrderFailed   EventType = "ORDER_FAILED"
)

type Event struct {
	Type         EventType `json:"type"`
	OrderGroupID string    `json:"orderGroupId,omitempty"`
	TotalAmount  string    `json:"totalAmount,omitempty"`
	Message      string    `json:"message,omitempty"`
}

// Subscription is one open push channel for one user. Events arrive on C
// until Unsubscribe closes it.
type Subscription struct {
	UserID string
	C      chan Event

	cancel func()
}

// Notifier is the seam between the pipeline and whatever transport carries
// events to clients. The in-process Hub serves a single instance; the Redis
// implementation drops in for multi-instance deployments.
type Notifier interface {
	Subscribe(userID string) *Subscription
	Unsubscribe(sub *Subscription)
	Publish(ctx context.Context, userID string, event Event)
}
