// Package telemetry exposes the engine's Prometheus metrics. Collectors
// are registered on the default registry and served by the diagnostics
// listener at /metrics.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesAppended counts messages entering conversation sequences,
	// labeled by direction (outgoing/incoming).
	MessagesAppended = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatcore_messages_appended_total",
		Help: "Messages appended to conversation sequences.",
	}, []string{"direction"})

	// DeliveryTransitions counts applied delivery-state transitions,
	// labeled by the state entered.
	DeliveryTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatcore_delivery_transitions_total",
		Help: "Delivery-state transitions applied.",
	}, []string{"state"})

	// RejectedMutations counts mutations discarded by the store's no-op
	// policy (unknown ids, guard violations, backward transitions).
	RejectedMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatcore_rejected_mutations_total",
		Help: "Mutations discarded by the no-op policy.",
	}, []string{"op"})

	// RepliesSimulated counts injected simulated peer replies.
	RepliesSimulated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatcore_replies_simulated_total",
		Help: "Simulated incoming replies injected.",
	})

	// TimersCancelled counts pending simulator timers cancelled by
	// conversation disposal or shutdown.
	TimersCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatcore_timers_cancelled_total",
		Help: "Pending simulator timers cancelled.",
	})

	// PendingTimers tracks simulator timers currently scheduled.
	PendingTimers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chatcore_pending_timers",
		Help: "Simulator timers currently pending.",
	})

	// SnapshotWrites counts persistence adapter writes; errors are
	// labeled separately since the adapter never propagates them into
	// core mutations.
	SnapshotWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatcore_snapshot_writes_total",
		Help: "Persistence adapter write attempts.",
	}, []string{"outcome"})
)
