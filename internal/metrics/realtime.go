package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	startTime = time.Now()

	Uptime = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "tactics_uptime_seconds",
			Help: "Console server uptime in seconds",
		}, func() float64 {
			return time.Since(startTime).Seconds()
		})

	ConnectionErrs = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tactics_websocket_connection_errors",
			Help: "Number of connection errors",
		})

	AuthFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tactics_realtime_auth_failures_total",
			Help: "Total number of rejected websocket handshakes",
		})

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tactics_realtime_active_sessions",
			Help: "Current number of active sessions (connected players)",
		},
	)

	TotalSessions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tactics_realtime_total_sessions",
			Help: "Total number of sessions ever created",
		},
	)

	PlayersInWorld = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tactics_realtime_players_in_world",
			Help: "Current number of sessions bound to a character",
		},
	)

	MessagesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tactics_realtime_messages_received_total",
			Help: "Total number of messages received by type",
		},
		[]string{"type"},
	)

	ChatMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tactics_realtime_chat_messages_total",
			Help: "Total number of chat messages routed by channel",
		},
		[]string{"channel"},
	)

	ChatErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tactics_realtime_chat_errors_total",
			Help: "Total number of chat errors returned to senders by reason",
		},
		[]string{"reason"},
	)

	ChatDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tactics_realtime_chat_dropped_total",
			Help: "Total number of chat messages silently dropped by reason",
		},
		[]string{"reason"},
	)

	FailedMessageSends = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tactics_realtime_failed_message_sends_total",
			Help: "Total number of failed message sends per reason",
		},
		[]string{"reason"},
	)

	WebSocketDisconnects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tactics_realtime_websocket_disconnects_total",
			Help: "Total number of websocket disconnects by reason",
		},
		[]string{"reason"},
	)

	UnhandledMessageTypes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tactics_realtime_unhandled_message_types_total",
			Help: "Total number of unhandled message types",
		},
		[]string{"type"},
	)

	InvalidPayloads = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tactics_realtime_invalid_payloads_total",
			Help: "Total number of invalid payloads received",
		},
	)

	PlayerSessionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tactics_realtime_player_session_duration_seconds",
			Help:    "Duration of player sessions in seconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 8),
		},
	)
)

func InitConsole() {
	prometheus.MustRegister(Uptime, ConnectionErrs, AuthFailures)
}

func InitRealtime() {
	prometheus.MustRegister(
		ActiveSessions,
		TotalSessions,
		PlayersInWorld,
		MessagesReceived,
		ChatMessages,
		ChatErrors,
		ChatDropped,
		FailedMessageSends,
		WebSocketDisconnects,
		UnhandledMessageTypes,
		InvalidPayloads,
		PlayerSessionDuration,
	)
}
