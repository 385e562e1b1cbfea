package orchestration

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	turnsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "agentrelay",
		Subsystem: "orchestration",
		Name:      "turns_total",
		Help:      "Total agent turns executed across all orchestrations.",
	})

	handoffsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentrelay",
		Subsystem: "orchestration",
		Name:      "handoffs_total",
		Help:      "Total accepted handoffs by source and target agent.",
	}, []string{"from", "to"})

	humanPromptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "agentrelay",
		Subsystem: "orchestration",
		Name:      "human_prompts_total",
		Help:      "Total human-in-the-loop suspensions.",
	})

	failuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentrelay",
		Subsystem: "orchestration",
		Name:      "failures_total",
		Help:      "Total failed orchestration invocations by error code.",
	}, []string{"code"})
)
