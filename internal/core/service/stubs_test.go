package service

import (
	"context"
	"errors"
	"sync"

	"github.com/mern-eats/my-user-gateway/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubUserAPI struct {
	user      *domain.User
	fetchErr  error
	createErr error
	updateErr error

	fetchCalls int
	created    []domain.CreateUserRequest
	createCtx  []context.Context
	updated    []domain.UpdateUserRequest
}

func (a *stubUserAPI) FetchCurrentUser(_ context.Context) (*domain.User, error) {
	a.fetchCalls++
	if a.fetchErr != nil {
		return nil, a.fetchErr
	}
	return a.user, nil
}

func (a *stubUserAPI) CreateUser(ctx context.Context, req domain.CreateUserRequest) error {
	a.created = append(a.created, req)
	a.createCtx = append(a.createCtx, ctx)
	return a.createErr
}

func (a *stubUserAPI) UpdateUser(_ context.Context, req domain.UpdateUserRequest) (*domain.User, error) {
	a.updated = append(a.updated, req)
	if a.updateErr != nil {
		return nil, a.updateErr
	}
	// Conforming server: echo the submitted profile.
	return &domain.User{
		Email:   "a@b.com",
		Name:    req.Name,
		Address: req.Address,
		City:    req.City,
		Country: req.Country,
	}, nil
}

type stubNotifier struct {
	err  error
	sent []domain.Notification
}

func (n *stubNotifier) Notify(_ context.Context, _ string, note domain.Notification) error {
	n.sent = append(n.sent, note)
	return n.err
}

func (n *stubNotifier) count(level domain.NotificationLevel) int {
	c := 0
	for _, s := range n.sent {
		if s.Level == level {
			c++
		}
	}
	return c
}

type stubGuard struct {
	mu       sync.Mutex
	taken    map[string]bool
	err      error
	resets   []string
	acquires int
}

func newStubGuard() *stubGuard {
	return &stubGuard{taken: make(map[string]bool)}
}

func (g *stubGuard) Acquire(_ context.Context, sessionID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.acquires++
	if g.err != nil {
		return false, g.err
	}
	if g.taken[sessionID] {
		return false, nil
	}
	g.taken[sessionID] = true
	return true, nil
}

func (g *stubGuard) Reset(_ context.Context, sessionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.taken, sessionID)
	g.resets = append(g.resets, sessionID)
	return nil
}

type stubQueue struct {
	err  error
	jobs []domain.ProvisioningJob
}

func (q *stubQueue) Enqueue(_ context.Context, job domain.ProvisioningJob) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type stubProvisioningRepo struct {
	recordErr error
	records   []*domain.ProvisioningRecord
}

func (r *stubProvisioningRepo) Record(_ context.Context, rec *domain.ProvisioningRecord) error {
	if r.recordErr != nil {
		return r.recordErr
	}
	r.records = append(r.records, rec)
	return nil
}

func (r *stubProvisioningRepo) ListBySubject(_ context.Context, subject string, limit int64) ([]*domain.ProvisioningRecord, error) {
	var out []*domain.ProvisioningRecord
	for i := len(r.records) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		if r.records[i].Subject == subject {
			out = append(out, r.records[i])
		}
	}
	return out, nil
}

var errBoom = errors.New("boom")

func requestFailed(op, msg string, code int) error {
	return &domain.RequestFailedError{Operation: op, Message: msg, StatusCode: code}
}
