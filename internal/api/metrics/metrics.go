// Package metrics defines every custom Prometheus collector of the gateway.
// Collectors register with the default registry on import; HTTP request
// metrics come from the echoprometheus middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portal"

// ── User API metrics ──────────────────────────────────────────────────────────

// UserAPIRequestsTotal counts outbound calls to the user-profile API.
// Labels:
//   - operation: fetchCurrentUser, createUser, updateUser
//   - outcome: "success", "http_error", "transport_error", "token_error"
var UserAPIRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "userapi_requests_total",
		Help:      "Total number of requests sent to the user-profile API.",
	},
	[]string{"operation", "outcome"},
)

// UserAPIRequestDuration measures round-trip time including token acquisition.
var UserAPIRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "userapi_request_duration_seconds",
		Help:      "Duration of user-profile API calls, token acquisition included.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation"},
)

// ── Provisioning metrics ──────────────────────────────────────────────────────

// ProvisioningDecisionsTotal counts evaluations of the post-login flow.
// Label:
//   - decision: enqueued, already_provisioned, incomplete_identity,
//     guard_unavailable, queue_unavailable
var ProvisioningDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provisioning_decisions_total",
		Help:      "Evaluations of the post-login provisioning flow, by decision.",
	},
	[]string{"decision"},
)

// ProvisioningJobsTotal counts finished detached create-user jobs.
// Label:
//   - outcome: "created" or "failed"
var ProvisioningJobsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provisioning_jobs_total",
		Help:      "Finished provisioning jobs, by outcome.",
	},
	[]string{"outcome"},
)

// ProvisioningQueueDepth tracks pending jobs per dispatcher worker.
var ProvisioningQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "provisioning_queue_depth",
		Help:      "Current number of provisioning jobs pending in each worker channel.",
	},
	[]string{"worker_id"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsTotal counts toasts queued for sessions.
// Label:
//   - level: "success" or "error"
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Notifications queued for delivery, by level.",
	},
	[]string{"level"},
)
