package service

import (
	"sync"
	"time"

	"github.com/mern-eats/my-user-gateway/internal/core/domain"
)

const defaultStateTTL = 24 * time.Hour

// Status is the lifecycle of one operation for one session.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// OperationState is a snapshot of a single operation.
type OperationState struct {
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type stateKey struct {
	session string
	op      string
}

// StateTracker keeps independent in-flight/error/success state per session and
// per operation. Operations never share a state machine.
//
// An entry lives for ttl after its last change, the same lifetime as the
// session it belongs to. Expired entries read as idle and are swept on write,
// so sessions that simply time out without a logout do not accumulate.
type StateTracker struct {
	mu        sync.Mutex
	states    map[stateKey]OperationState
	ttl       time.Duration
	nextSweep time.Time
	now       func() time.Time
}

func NewStateTracker(ttl time.Duration) *StateTracker {
	if ttl <= 0 {
		ttl = defaultStateTTL
	}
	return &StateTracker{states: make(map[stateKey]OperationState), ttl: ttl, now: time.Now}
}

func (t *StateTracker) Begin(sessionID, op string) {
	t.set(sessionID, op, OperationState{Status: StatusLoading})
}

func (t *StateTracker) Succeed(sessionID, op string) {
	t.set(sessionID, op, OperationState{Status: StatusSuccess})
}

func (t *StateTracker) Fail(sessionID, op string, err error) {
	t.set(sessionID, op, OperationState{Status: StatusError, Error: userMessage(err)})
}

// Reset returns the operation to idle.
func (t *StateTracker) Reset(sessionID, op string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.states, stateKey{sessionID, op})
}

// Get returns the state of op, idle when never run, reset or expired.
func (t *StateTracker) Get(sessionID, op string) OperationState {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := stateKey{sessionID, op}
	st, ok := t.states[key]
	if !ok {
		return OperationState{Status: StatusIdle}
	}
	if t.expired(st, t.now()) {
		delete(t.states, key)
		return OperationState{Status: StatusIdle}
	}
	return st
}

// Snapshot returns the state of every known operation for a session.
func (t *StateTracker) Snapshot(sessionID string) map[string]OperationState {
	return map[string]OperationState{
		domain.OpFetchCurrentUser: t.Get(sessionID, domain.OpFetchCurrentUser),
		domain.OpCreateUser:       t.Get(sessionID, domain.OpCreateUser),
		domain.OpUpdateUser:       t.Get(sessionID, domain.OpUpdateUser),
	}
}

// Forget drops all state for a session, e.g. on logout.
func (t *StateTracker) Forget(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k := range t.states {
		if k.session == sessionID {
			delete(t.states, k)
		}
	}
}

// Len reports the number of retained entries, expired ones included until
// the next sweep.
func (t *StateTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.states)
}

func (t *StateTracker) set(sessionID, op string, st OperationState) {
	now := t.now()
	st.UpdatedAt = now.UTC()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.states[stateKey{sessionID, op}] = st
	if !now.Before(t.nextSweep) {
		t.sweep(now)
	}
}

// sweep drops expired entries. Callers hold t.mu. Sweeps run at most every
// quarter TTL, so retained state is bounded by sessions active within
// 1.25 TTL.
func (t *StateTracker) sweep(now time.Time) {
	for k, st := range t.states {
		if t.expired(st, now) {
			delete(t.states, k)
		}
	}
	t.nextSweep = now.Add(t.ttl / 4)
}

func (t *StateTracker) expired(st OperationState, now time.Time) bool {
	return now.Sub(st.UpdatedAt) >= t.ttl
}
