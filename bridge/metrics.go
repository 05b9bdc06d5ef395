package bridge

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/omni/tokenbridge-core/bridgeerr"
)

var (
	Operations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bridge",
		Subsystem: "core",
		Name:      "operations_total",
		Help:      "Number of processed bridge calls, partitioned by the error category of rejected calls.",
	}, []string{"bridge_id", "operation", "status"})
	OperationDurations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bridge",
		Subsystem: "core",
		Name:      "operation_duration_seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"bridge_id", "operation"})
	OutOfLimitAmount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "bridge",
		Subsystem: "limits",
		Name:      "out_of_limit_amount",
		Help:      "Shows the total value of messages deferred above the execution limits, in token units.",
	}, []string{"bridge_id"})
	PendingExcess = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "bridge",
		Subsystem: "limits",
		Name:      "pending_excess",
		Help:      "Shows the number of deferred messages waiting for the owner to fix them.",
	}, []string{"bridge_id"})
	RequiredSignatures = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "bridge",
		Subsystem: "validators",
		Name:      "required_signatures",
		Help:      "Shows the current validator quorum.",
	}, []string{"bridge_id"})
	Validators = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "bridge",
		Subsystem: "validators",
		Name:      "count",
		Help:      "Shows the number of registered validators.",
	}, []string{"bridge_id"})
)

func ObserveDuration(bridgeID, operation string) func() time.Duration {
	return prometheus.NewTimer(OperationDurations.WithLabelValues(bridgeID, operation)).ObserveDuration
}

func ObserveOperation(bridgeID, operation string, err error) {
	Operations.WithLabelValues(bridgeID, operation, bridgeerr.Label(err)).Inc()
}
