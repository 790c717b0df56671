/*
Package metrics registers and exposes the Prometheus instrumentation for the
real-time subsystem: live connection counts, delivered and dropped events,
and per-type websocket event totals.
*/
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	activeConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_ws_active_connections",
			Help: "Number of live websocket connections.",
		},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_ws_events_total",
			Help: "Total number of websocket events by direction and type.",
		},
		[]string{"direction", "event"},
	)
	messagesSentTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_messages_sent_total",
			Help: "Total number of messages accepted by the fan-out engine.",
		},
	)
	deliveriesDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_deliveries_dropped_total",
			Help: "Total number of per-subscriber deliveries dropped (full or closed outbound queue).",
		},
	)
)

func init() {
	prometheus.MustRegister(
		activeConnections,
		wsEventsTotal,
		messagesSentTotal,
		deliveriesDroppedTotal,
	)
}

// ConnOpened records a new live connection.
func ConnOpened() { activeConnections.Inc() }

// ConnClosed records a closed live connection.
func ConnClosed() { activeConnections.Dec() }

// IncInboundEvent counts one client-to-server event of the given type.
func IncInboundEvent(event string) { wsEventsTotal.WithLabelValues("in", event).Inc() }

// IncOutboundEvent counts one server-to-client event of the given type.
func IncOutboundEvent(event string) { wsEventsTotal.WithLabelValues("out", event).Inc() }

// IncMessageSent counts one committed message send.
func IncMessageSent() { messagesSentTotal.Inc() }

// IncDeliveryDropped counts one dropped per-subscriber delivery.
func IncDeliveryDropped() { deliveriesDroppedTotal.Inc() }
