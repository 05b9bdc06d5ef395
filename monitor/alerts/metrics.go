package alerts

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NewAlertUndeliveredMessage = func(bridge string) *prometheus.GaugeVec {
		return promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "alert",
			Subsystem:   "monitor",
			Name:        "undelivered_message",
			Help:        "Shows messages of the paired bridge waiting for delivery longer than the threshold, value is the age in seconds.",
			ConstLabels: prometheus.Labels{"bridge_id": bridge},
		}, []string{"source_bridge_id", "message_id"})
	}
	NewAlertFailedMessageExecution = func(bridge string) *prometheus.GaugeVec {
		return promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "alert",
			Subsystem:   "monitor",
			Name:        "failed_message_execution",
			Help:        "Shows received messages which could not be executed and wait for a fix from the sending side.",
			ConstLabels: prometheus.Labels{"bridge_id": bridge},
		}, []string{"tx_hash", "message_id", "recipient"})
	}
	NewAlertAmountLimitExceeded = func(bridge string) *prometheus.GaugeVec {
		return promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "alert",
			Subsystem:   "monitor",
			Name:        "amount_limit_exceeded",
			Help:        "Shows deferred executions still holding assets above the execution limits, value is the remaining amount.",
			ConstLabels: prometheus.Labels{"bridge_id": bridge},
		}, []string{"tx_hash", "recipient"})
	}
)
