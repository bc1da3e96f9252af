// Package metrics defines and registers the custom Prometheus metrics of the
// auth API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default registry through promauto when the
// package is first imported.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "auth"

// ── Auth flow metrics ─────────────────────────────────────────────────────────

// AuthOperationsTotal counts auth flow outcomes.
// Labels:
//   - operation: "signup", "signin", "oauth_callback", "refresh", "signout"
//   - result: "success", "pending_confirmation", "rejected", "error"
var AuthOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operations_total",
		Help:      "Total number of auth flow invocations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// AuthOperationDuration measures auth flow latency including provider round trips.
var AuthOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "operation_duration_seconds",
		Help:      "Duration of auth flows, including identity provider calls.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation"},
)

// UserAdminActionsTotal counts admin mutations on users.
// Label:
//   - action: "role_change" or "delete"
var UserAdminActionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "user_admin_actions_total",
		Help:      "Total number of admin actions applied to users.",
	},
	[]string{"action"},
)

// ── Rate limit metrics ────────────────────────────────────────────────────────

// RateLimitedTotal counts requests rejected with 429.
// Label:
//   - scope: limiter name ("global", "auth")
var RateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by the rate limiter.",
	},
	[]string{"scope"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditQueueDepth tracks events waiting in each audit worker channel.
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each worker channel.",
	},
	[]string{"worker_id"},
)

// AuditEventsTotal counts audit events by outcome.
// Labels:
//   - type: auth event type
//   - result: "persisted", "dropped", "failed"
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of audit events, by type and outcome.",
	},
	[]string{"type", "result"},
)
