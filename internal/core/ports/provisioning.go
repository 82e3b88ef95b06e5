package ports

import (
	"context"

	"github.com/mern-eats/my-user-gateway/internal/core/domain"
)

// ProvisioningGuard is the session-scoped one-shot flag for user creation.
type ProvisioningGuard interface {
	// Acquire returns true exactly once per session until Reset is called.
	Acquire(ctx context.Context, sessionID string) (bool, error)
	Reset(ctx context.Context, sessionID string) error
}

// ProvisioningQueue accepts detached create-user jobs.
type ProvisioningQueue interface {
	Enqueue(ctx context.Context, job domain.ProvisioningJob) error
}

// ProvisioningRepository stores the audit trail of provisioning attempts.
type ProvisioningRepository interface {
	Record(ctx context.Context, rec *domain.ProvisioningRecord) error
	ListBySubject(ctx context.Context, subject string, limit int64) ([]*domain.ProvisioningRecord, error)
}

// Provisioner runs a single provisioning job to completion.
type Provisioner interface {
	Provision(ctx context.Context, job domain.ProvisioningJob) error
}
