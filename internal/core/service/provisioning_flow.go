package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mern-eats/my-user-gateway/internal/core/domain"
	"github.com/mern-eats/my-user-gateway/internal/core/ports"
)

// Decision describes what one evaluation of the provisioning flow did.
type Decision string

const (
	DecisionEnqueued           Decision = "enqueued"
	DecisionAlreadyProvisioned Decision = "already_provisioned"
	DecisionIncompleteIdentity Decision = "incomplete_identity"
	DecisionGuardUnavailable   Decision = "guard_unavailable"
	DecisionQueueUnavailable   Decision = "queue_unavailable"
)

// ProvisioningFlow runs after login: it makes sure a remote user record is
// requested at most once per session and always sends the user to the root
// route. The create call is detached; navigation never waits for it.
type ProvisioningFlow struct {
	guard ports.ProvisioningGuard
	queue ports.ProvisioningQueue
	log   zerolog.Logger
}

func NewProvisioningFlow(guard ports.ProvisioningGuard, queue ports.ProvisioningQueue, log zerolog.Logger) *ProvisioningFlow {
	return &ProvisioningFlow{guard: guard, queue: queue, log: log}
}

// Evaluate returns the route to navigate to, which is always domain.RootRoute,
// together with what happened to the create request.
func (f *ProvisioningFlow) Evaluate(ctx context.Context, sess *domain.Session) (string, Decision) {
	if sess == nil || !sess.Identity.Complete() {
		return domain.RootRoute, DecisionIncompleteIdentity
	}

	acquired, err := f.guard.Acquire(ctx, sess.ID)
	if err != nil {
		f.log.Warn().Err(err).Str("session_id", sess.ID).Msg("provisioning guard unavailable, skipping create")
		return domain.RootRoute, DecisionGuardUnavailable
	}
	if !acquired {
		return domain.RootRoute, DecisionAlreadyProvisioned
	}

	job := domain.ProvisioningJob{
		ID:      uuid.NewString(),
		Session: *sess,
		Request: domain.CreateUserRequest{Auth0ID: sess.Identity.Subject, Email: sess.Identity.Email},
	}
	if err := f.queue.Enqueue(ctx, job); err != nil {
		f.log.Error().Err(err).Str("session_id", sess.ID).Str("auth0_id", job.Request.Auth0ID).Msg("failed to enqueue provisioning job")
		// Give the next evaluation in this session another chance.
		if rerr := f.guard.Reset(ctx, sess.ID); rerr != nil {
			f.log.Warn().Err(rerr).Str("session_id", sess.ID).Msg("failed to reset provisioning guard")
		}
		return domain.RootRoute, DecisionQueueUnavailable
	}

	return domain.RootRoute, DecisionEnqueued
}

// JobRunner executes detached provisioning jobs. Failures never reach the
// user; they are logged and written to the audit trail.
type JobRunner struct {
	users *UserService
	repo  ports.ProvisioningRepository
	log   zerolog.Logger
	now   func() time.Time
}

func NewJobRunner(users *UserService, repo ports.ProvisioningRepository, log zerolog.Logger) *JobRunner {
	return &JobRunner{users: users, repo: repo, log: log, now: time.Now}
}

// Provision runs job with the job's session bound to ctx so the token source
// can authorise the request.
func (r *JobRunner) Provision(ctx context.Context, job domain.ProvisioningJob) error {
	sess := job.Session
	ctx = domain.ContextWithSession(ctx, &sess)

	start := r.now()
	err := r.users.CreateMyUser(ctx, sess.ID, job.Request)

	rec := &domain.ProvisioningRecord{
		JobID:     job.ID,
		SessionID: sess.ID,
		Subject:   job.Request.Auth0ID,
		Email:     job.Request.Email,
		Outcome:   domain.ProvisioningCreated,
		Duration:  r.now().Sub(start),
		CreatedAt: start.UTC(),
	}
	if err != nil {
		rec.Outcome = domain.ProvisioningFailed
		rec.Error = err.Error()
	}
	if rerr := r.repo.Record(ctx, rec); rerr != nil {
		r.log.Warn().Err(rerr).Str("job_id", job.ID).Msg("failed to record provisioning attempt")
	}

	if err != nil {
		r.log.Error().Err(err).
			Str("job_id", job.ID).
			Str("auth0_id", job.Request.Auth0ID).
			Msg("user provisioning failed")
		return fmt.Errorf("provision %s: %w", job.Request.Auth0ID, err)
	}

	r.log.Info().Str("job_id", job.ID).Str("auth0_id", job.Request.Auth0ID).Msg("user provisioned")
	return nil
}

// History returns the audit records for subject, newest first.
func (r *JobRunner) History(ctx context.Context, subject string, limit int64) ([]*domain.ProvisioningRecord, error) {
	recs, err := r.repo.ListBySubject(ctx, subject, limit)
	if err != nil {
		return nil, fmt.Errorf("provisioning history: %w", err)
	}
	return recs, nil
}
