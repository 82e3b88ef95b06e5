package domain

import "time"

// RootRoute is where the provisioning flow always sends the user.
const RootRoute = "/"

// ProvisioningOutcome is the result of one detached create-user attempt.
type ProvisioningOutcome string

const (
	ProvisioningCreated ProvisioningOutcome = "created"
	ProvisioningFailed  ProvisioningOutcome = "failed"
)

// ProvisioningJob is a fire-and-forget create-user request bound to the
// session whose token authorises it.
type ProvisioningJob struct {
	ID      string
	Session Session
	Request CreateUserRequest
}

// ProvisioningRecord is the audit entry written for every attempt.
type ProvisioningRecord struct {
	ID        string              `json:"id"`
	JobID     string              `json:"job_id"`
	SessionID string              `json:"-"`
	Subject   string              `json:"auth0Id"`
	Email     string              `json:"email"`
	Outcome   ProvisioningOutcome `json:"outcome"`
	Error     string              `json:"error,omitempty"`
	Duration  time.Duration       `json:"duration_ns"`
	CreatedAt time.Time           `json:"created_at"`
}
