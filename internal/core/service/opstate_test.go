package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/mern-eats/my-user-gateway/internal/core/domain"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTrackerAt(ttl time.Duration) (*StateTracker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	tr := NewStateTracker(ttl)
	tr.now = clock.now
	return tr, clock
}

func TestStateTracker_ExpiredStateReadsIdle(t *testing.T) {
	tr, clock := newTrackerAt(time.Hour)
	tr.Begin("s1", domain.OpFetchCurrentUser)
	tr.Succeed("s1", domain.OpFetchCurrentUser)

	clock.t = clock.t.Add(59 * time.Minute)
	if st := tr.Get("s1", domain.OpFetchCurrentUser); st.Status != StatusSuccess {
		t.Fatalf("expected success within TTL, got %s", st.Status)
	}

	clock.t = clock.t.Add(2 * time.Minute)
	if st := tr.Get("s1", domain.OpFetchCurrentUser); st.Status != StatusIdle {
		t.Fatalf("expected idle past TTL, got %s", st.Status)
	}
	if n := tr.Len(); n != 0 {
		t.Fatalf("expected expired entry dropped on read, %d retained", n)
	}
}

func TestStateTracker_ExpiredSessionsSweptWithoutLogout(t *testing.T) {
	tr, clock := newTrackerAt(time.Hour)

	for i := 0; i < 10000; i++ {
		sid := fmt.Sprintf("s%d", i)
		tr.Begin(sid, domain.OpCreateUser)
		tr.Succeed(sid, domain.OpCreateUser)
	}
	if n := tr.Len(); n != 10000 {
		t.Fatalf("expected 10000 live entries, got %d", n)
	}

	clock.t = clock.t.Add(time.Hour + time.Second)
	tr.Begin("fresh", domain.OpFetchCurrentUser)

	if n := tr.Len(); n != 1 {
		t.Fatalf("expected only the fresh entry after TTL, %d retained", n)
	}
	if st := tr.Get("s42", domain.OpCreateUser); st.Status != StatusIdle {
		t.Fatalf("expected idle for expired session, got %s", st.Status)
	}
}

func TestStateTracker_ActiveSessionSurvivesSweep(t *testing.T) {
	tr, clock := newTrackerAt(time.Hour)
	tr.Succeed("old", domain.OpFetchCurrentUser)

	clock.t = clock.t.Add(50 * time.Minute)
	tr.Succeed("active", domain.OpUpdateUser)

	clock.t = clock.t.Add(20 * time.Minute)
	tr.Begin("other", domain.OpFetchCurrentUser)

	if st := tr.Get("active", domain.OpUpdateUser); st.Status != StatusSuccess {
		t.Fatalf("active session state lost: %s", st.Status)
	}
	if st := tr.Get("old", domain.OpFetchCurrentUser); st.Status != StatusIdle {
		t.Fatalf("expected old session expired, got %s", st.Status)
	}
}

func TestStateTracker_DefaultTTL(t *testing.T) {
	if tr := NewStateTracker(0); tr.ttl != defaultStateTTL {
		t.Fatalf("expected default TTL %s, got %s", defaultStateTTL, tr.ttl)
	}
}
