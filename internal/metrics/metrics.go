package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ============================================
	// Bridge transfer metrics
	// ============================================
	TransfersInitiated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_transfers_initiated_total",
		Help: "Total number of cross-chain transfers initiated",
	})

	TransferTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_transfer_transitions_total",
			Help: "Total number of bridge transaction state transitions",
		},
		[]string{"status"},
	)

	TransferStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bridge_transfer_stage_duration_seconds",
			Help:    "Duration of each bridge pipeline stage in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	// ============================================
	// Proof registry metrics
	// ============================================
	ProofsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_proofs_submitted_total",
		Help: "Total number of proofs accepted by the registry",
	})

	ProofsVerified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_proofs_verified_total",
			Help: "Total number of proofs verified, labelled by outcome",
		},
		[]string{"result"},
	)

	ProofsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_proofs_rejected_total",
			Help: "Total number of proof submissions or verifications rejected",
		},
		[]string{"reason"},
	)

	// ============================================
	// Header relay metrics
	// ============================================
	RelayTipHeight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bridge_relay_tip_height",
		Help: "Current height of the header relay chain tip",
	})

	RelayEmergencyMode = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bridge_relay_emergency_mode",
		Help: "Whether the header relay is in emergency mode (1=paused, 0=active)",
	})

	// ============================================
	// Event delivery metrics
	// ============================================
	NATSEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_nats_events_published_total",
			Help: "Total number of transaction events published to NATS",
		},
		[]string{"stage"},
	)

	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bridge_websocket_connections",
		Help: "Number of active websocket status subscribers",
	})
)
