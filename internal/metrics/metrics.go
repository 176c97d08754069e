// Package metrics registers the prometheus instruments served on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gigmarket_orders_created_total",
		Help: "Orders created.",
	})

	PaymentVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gigmarket_payment_verifications_total",
		Help: "Admin payment verification decisions.",
	}, []string{"result"}) // verified | rejected

	MessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gigmarket_chat_messages_total",
		Help: "Chat messages persisted, by transport.",
	}, []string{"transport"}) // http | ws

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gigmarket_ws_connections",
		Help: "Live websocket connections.",
	})
)
