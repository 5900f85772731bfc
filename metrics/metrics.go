// Package metrics exposes the engine's Prometheus collectors. The per-node
// authoritative counters live on each node's private state; these mirror
// them for scraping.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesTotal counts dispatched flow messages per node and type.
	MessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "erlang_red",
		Subsystem: "node",
		Name:      "messages_total",
		Help:      "Flow messages dispatched to node behaviors, by node id and message type.",
	}, []string{"node_id", "type"})

	// DispatchErrors counts messages a node behavior did not recognize.
	DispatchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "erlang_red",
		Subsystem: "node",
		Name:      "dispatch_errors_total",
		Help:      "Messages left unhandled by a node behavior.",
	}, []string{"node_id"})

	// SubtreeRestarts counts supervisor-node subtree spin-ups triggered by
	// a restart action.
	SubtreeRestarts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "erlang_red",
		Subsystem: "supervisor",
		Name:      "subtree_restarts_total",
		Help:      "Subtree restarts requested on supervisor nodes.",
	}, []string{"node_id"})
)
