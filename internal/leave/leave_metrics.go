package leave

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sourceFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "leave",
		Subsystem: "source",
		Name:      "fetches_total",
		Help:      "Fetches of the remote leave request collection broken down by origin and result.",
	}, []string{"origin", "result"})

	decisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "leave",
		Subsystem: "review",
		Name:      "decisions_total",
		Help:      "Local approve/reject decisions broken down by status.",
	}, []string{"status"})

	overrideConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "leave",
		Subsystem: "review",
		Name:      "override_conflicts_total",
		Help:      "Fetched terminal statuses that disagreed with a local decision.",
	})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "leave",
		Subsystem: "review",
		Name:      "active_sessions",
		Help:      "Reviewer sessions currently held in memory.",
	})
)
