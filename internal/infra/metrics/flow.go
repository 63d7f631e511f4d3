// File: internal/infra/metrics/flow.go
package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(flowTransitionsTotal) }

var flowTransitionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "flow_transitions_total",
		Help: "Buy-flow state transitions by action kind and resulting state.",
	},
	[]string{"action", "state"},
)

func IncFlowTransition(action, state string) {
	flowTransitionsTotal.WithLabelValues(norm(action), norm(state)).Inc()
}
