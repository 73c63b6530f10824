package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WebSocket connection metrics
var (
	// ConnectionsActive tracks currently attached connections by role
	ConnectionsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "displaysync_connections_active",
			Help: "Currently attached WebSocket connections by role",
		},
		[]string{"role"},
	)

	// MessagesReceivedTotal tracks inbound protocol messages by type and status
	MessagesReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "displaysync_messages_received_total",
			Help: "Inbound protocol messages by type and status",
		},
		[]string{"type", "status"},
	)

	// BroadcastsSentTotal tracks fan-out broadcasts by payload type and target role
	BroadcastsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "displaysync_broadcasts_sent_total",
			Help: "Fan-out broadcasts by payload type and target role",
		},
		[]string{"type", "role"},
	)

	// MessageSendDuration tracks WebSocket write latency in seconds
	MessageSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "displaysync_message_send_duration_seconds",
			Help:    "WebSocket message write duration in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		},
	)

	// PingFailures tracks failed keepalive pings
	PingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "displaysync_ping_failures_total",
			Help: "Failed WebSocket keepalive pings",
		},
	)

	// SlowClientDisconnects tracks clients dropped because their send buffer filled
	SlowClientDisconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "displaysync_slow_client_disconnects_total",
			Help: "Clients dropped because their send buffer filled up",
		},
	)
)

// Library and upload metrics
var (
	// LibraryOperationsTotal tracks library store operations by kind and status
	LibraryOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "displaysync_library_operations_total",
			Help: "Library store operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	// ImageUploadsTotal tracks image uploads by namespace and status
	ImageUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "displaysync_image_uploads_total",
			Help: "Image uploads by namespace and status",
		},
		[]string{"namespace", "status"},
	)
)
