// Package metrics defines and registers the custom Prometheus metrics of the
// catalog API. It is the single source of truth for metric names, labels,
// and help strings.
//
// All metrics are registered with the default registry through promauto, so
// importing the package is enough; /metrics exposes them alongside the
// echoprometheus request metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "catalog"

// ── Catalog metrics ───────────────────────────────────────────────────────────

// EntitiesCreatedTotal counts successfully created catalog entities.
// Label:
//   - entity: "category", "subcategory", or "product"
var EntitiesCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "entities_created_total",
		Help:      "Total number of catalog entities created, by entity type.",
	},
	[]string{"entity"},
)

// ── Cascade metrics ───────────────────────────────────────────────────────────

// CascadeOperationsTotal counts cascade deletes by result.
// Labels:
//   - entity: type of the removal target
//   - mode: "soft" or "hard"
//   - outcome: "completed", "partial", or "failed"
var CascadeOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cascade_operations_total",
		Help:      "Total number of cascade delete operations, by target, mode and outcome.",
	},
	[]string{"entity", "mode", "outcome"},
)

// CascadeAffectedTotal sums descendants touched by completed cascades.
// Labels:
//   - kind: "subcategory" or "product"
//   - mode: "soft" or "hard"
var CascadeAffectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cascade_affected_total",
		Help:      "Total number of descendants deactivated or deleted by cascades.",
	},
	[]string{"kind", "mode"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditQueueDepth tracks audit records waiting in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of cascade audit records pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// AuditDroppedTotal counts audit records discarded because the dispatcher
// was stopped or its queue was full.
var AuditDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_dropped_total",
		Help:      "Total number of cascade audit records dropped before persistence.",
	},
)
