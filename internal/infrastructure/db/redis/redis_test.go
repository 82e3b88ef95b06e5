package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// newTestClient starts an in-process Redis and connects to it through Connect.
func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), Config{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestPinger(t *testing.T) {
	mr, client := newTestClient(t)
	p := Pinger{Client: client}

	if err := p.Ping(context.Background()); err != nil {
		t.Fatalf("expected ping to succeed, got %v", err)
	}

	mr.Close()
	if err := p.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping to fail once the server is gone")
	}
}
