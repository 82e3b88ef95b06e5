package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mern-eats/my-user-gateway/internal/core/ports"
)

// ProvisioningGuard is the session-scoped one-shot flag for user creation,
// set atomically with SETNX and living as long as the session.
// Key format: provisioned:<session_id>
type ProvisioningGuard struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.ProvisioningGuard = (*ProvisioningGuard)(nil)

func NewProvisioningGuard(client *redis.Client, ttl time.Duration) *ProvisioningGuard {
	return &ProvisioningGuard{client: client, ttl: ttl}
}

// Acquire reports true only for the first caller of a session.
func (g *ProvisioningGuard) Acquire(ctx context.Context, sessionID string) (bool, error) {
	ok, err := g.client.SetNX(ctx, guardKey(sessionID), "1", g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire provisioning guard: %w", err)
	}
	return ok, nil
}

// Reset clears the flag, e.g. at logout.
func (g *ProvisioningGuard) Reset(ctx context.Context, sessionID string) error {
	if err := g.client.Del(ctx, guardKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("reset provisioning guard: %w", err)
	}
	return nil
}
