package notify

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const channelPrefix = "orders:events:"

// RedisNotifier carries lifecycle events over Redis pub/sub so a webhook
// handled on one instance reaches a client streaming from another. Same
// best-effort contract as the Hub: no replay, no persistence.
type RedisNotifier struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisNotifier(addr string, logger *zap.Logger) *RedisNotifier {
	return &RedisNotifier{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		logger: logger,
	}
}

func (n *RedisNotifier) Subscribe(userID string) *Subscription {
	ctx, cancel := context.WithCancel(context.Background())
	pubsub := n.client.Subscribe(ctx, channelPrefix+userID)

	sub := &Subscription{
		UserID: userID,
		C:      make(chan Event, subscriberBuffer),
		cancel: func() {
			cancel()
			_ = pubsub.Close()
		},
	}

	go func() {
		defer close(sub.C)
		for msg := range pubsub.Channel() {
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				n.logger.Warn("discarding malformed notifier payload",
					zap.String("user_id", userID), zap.Error(err))
				continue
			}
			select {
			case sub.C <- event:
			default:
			}
		}
	}()

	return sub
}

func (n *RedisNotifier) Unsubscribe(sub *Subscription) {
	if sub.cancel != nil {
		sub.cancel()
	}
}

func (n *RedisNotifier) Publish(ctx context.Context, userID string, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("marshal notifier event", zap.Error(err))
		return
	}

	if err := n.client.Publish(ctx, channelPrefix+userID, payload).Err(); err != nil {
		n.logger.Warn("publish notifier event",
			zap.String("user_id", userID), zap.Error(err))
	}
}

func (n *RedisNotifier) Close() error {
	return n.client.Close()
}
