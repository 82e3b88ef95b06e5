package ports

import (
	"context"

	"github.com/mern-eats/my-user-gateway/internal/core/domain"
)

// Notifier delivers toasts to a session. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, sessionID string, n domain.Notification) error
}

// NotificationInbox is the read side of the notification channel.
type NotificationInbox interface {
	Drain(ctx context.Context, sessionID string) ([]domain.Notification, error)
}
