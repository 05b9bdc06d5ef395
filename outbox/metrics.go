package outbox

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SentMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bridge",
		Subsystem: "outbox",
		Name:      "sent_messages_total",
		Help:      "Number of messages queued for the other side.",
	}, []string{"bridge_id"})
	DeliveredMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bridge",
		Subsystem: "outbox",
		Name:      "delivered_messages_total",
		Help:      "Number of messages handed to the receiving bridge.",
	}, []string{"bridge_id", "status"})
	TokenOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bridge",
		Subsystem: "outbox",
		Name:      "token_operations_total",
		Help:      "Number of queued token operations.",
	}, []string{"bridge_id", "operation"})
)
