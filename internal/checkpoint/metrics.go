package checkpoint

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// checkpointOps counts saves and loads by agent type and result
	checkpointOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oai_checkpoint_ops_total",
		Help: "Checkpoint saves and loads by operation, agent type and result",
	}, []string{"op", "agent_type", "result"})
)

func observe(op, agentType string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	checkpointOps.WithLabelValues(op, agentType, result).Inc()
}
