package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mern-eats/my-user-gateway/internal/api/metrics"
	"github.com/mern-eats/my-user-gateway/internal/core/domain"
	"github.com/mern-eats/my-user-gateway/internal/core/ports"
)

const maxPending = 50

// NotificationQueue is a per-session FIFO of toasts. Unread entries expire
// with the list.
// Key format: notifications:<session_id>
type NotificationQueue struct {
	client *redis.Client
	ttl    time.Duration
}

var (
	_ ports.Notifier          = (*NotificationQueue)(nil)
	_ ports.NotificationInbox = (*NotificationQueue)(nil)
)

func NewNotificationQueue(client *redis.Client, ttl time.Duration) *NotificationQueue {
	return &NotificationQueue{client: client, ttl: ttl}
}

// Notify appends n, keeping at most maxPending entries.
func (q *NotificationQueue) Notify(ctx context.Context, sessionID string, n domain.Notification) error {
	buf, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	key := notificationsKey(sessionID)
	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, buf)
		pipe.LTrim(ctx, key, -maxPending, -1)
		pipe.Expire(ctx, key, q.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("push notification: %w", err)
	}

	metrics.NotificationsTotal.WithLabelValues(string(n.Level)).Inc()
	return nil
}

// Drain returns and removes all pending notifications, oldest first.
func (q *NotificationQueue) Drain(ctx context.Context, sessionID string) ([]domain.Notification, error) {
	key := notificationsKey(sessionID)

	var items *redis.StringSliceCmd
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		items = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("drain notifications: %w", err)
	}

	raw := items.Val()
	out := make([]domain.Notification, 0, len(raw))
	for _, r := range raw {
		var n domain.Notification
		if err := json.Unmarshal([]byte(r), &n); err != nil {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}
