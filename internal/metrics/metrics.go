// Package metrics defines the Prometheus instrumentation for the
// authorization core and the realtime distribution layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	// HTTPErrorsTotal tracks HTTP errors by type
	HTTPErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total HTTP errors by error type",
		},
		[]string{"type"},
	)
)

// Authorization Metrics
var (
	// GuardDenialsTotal tracks guard denials by resource kind and reason
	GuardDenialsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guard_denials_total",
			Help: "Total guard denials by resource kind and reason",
		},
		[]string{"kind", "reason"},
	)

	// ContextResolutionsTotal tracks security context resolutions by outcome
	ContextResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "security_context_resolutions_total",
			Help: "Total security context resolutions by outcome",
		},
		[]string{"outcome"},
	)

	// MembershipLookupFailures tracks degraded membership lookups
	MembershipLookupFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "membership_lookup_failures_total",
			Help: "Total membership lookups that degraded to an empty set",
		},
	)
)

// Realtime Metrics
var (
	// ConnectedClients tracks the number of registered websocket connections
	ConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_connected_clients",
			Help: "Number of registered websocket connections",
		},
	)

	// ActiveRooms tracks the number of rooms with at least one member
	ActiveRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_active_rooms",
			Help: "Number of rooms with at least one member",
		},
	)

	// BroadcastsTotal tracks dispatched events by entity and action
	BroadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_broadcasts_total",
			Help: "Total dispatched events by entity and action",
		},
		[]string{"entity", "action"},
	)

	// BroadcastsAbortedTotal tracks broadcasts aborted for missing or
	// mismatched school resolution. Security-relevant.
	BroadcastsAbortedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_broadcasts_aborted_total",
			Help: "Total broadcasts aborted before emission by reason",
		},
		[]string{"reason"},
	)

	// BroadcastRecipients observes recipient counts per emitted event
	BroadcastRecipients = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "realtime_broadcast_recipients",
			Help:    "Recipient count per emitted event",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		},
	)

	// UnroutedEventsTotal tracks event types missing from the routing table
	UnroutedEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_unrouted_events_total",
			Help: "Total events routed by the staff-only default because their type is unmapped",
		},
		[]string{"event_type"},
	)

	// RelayRejectionsTotal tracks client-originated events rejected by validation
	RelayRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "realtime_relay_rejections_total",
			Help: "Total client-originated events rejected as structurally invalid",
		},
	)

	// LivenessEvictionsTotal tracks connections evicted by the health sweep
	LivenessEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "realtime_liveness_evictions_total",
			Help: "Total connections evicted after a missed liveness cycle",
		},
	)

	// SlowClientEvictionsTotal tracks connections evicted for full send buffers
	SlowClientEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "realtime_slow_client_evictions_total",
			Help: "Total connections evicted because their send buffer was full at emit time",
		},
	)

	// HubCommandChannelDepth tracks the hub actor's command backlog
	HubCommandChannelDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_hub_command_channel_depth",
			Help: "Current depth of the hub actor command channel",
		},
	)
)
