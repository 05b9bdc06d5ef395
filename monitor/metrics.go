package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LatestHeadBlock = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "monitor",
		Subsystem: "chain",
		Name:      "latest_head_block",
		Help:      "Shows the latest head block of the chain the bridge is deployed to.",
	}, []string{"bridge_id", "chain_id"})
	LastStateRefresh = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "monitor",
		Subsystem: "state",
		Name:      "last_refresh_timestamp",
		Help:      "Shows the unix time of the latest successful bridge state gauges refresh.",
	}, []string{"bridge_id"})
)
