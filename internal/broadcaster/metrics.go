package broadcaster

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the atomic counters spec.md §5 Redundancy names (total,
// successful, failed, expected_rejects), implemented as real
// prometheus.Counters — grounded on the teacher's internal/metrics
// package idiom of per-concern Prometheus collector structs.
type Metrics struct {
	Total           prometheus.Counter
	Successful      prometheus.Counter
	Failed          prometheus.Counter
	ExpectedRejects prometheus.Counter
}

// NewMetrics registers the broadcaster's counters on registry. Pass
// prometheus.NewRegistry(), or nil to leave the counters unregistered.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		Total: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "execution_core",
			Subsystem: "broadcaster",
			Name:      "submits_total",
			Help:      "Total submit attempts fanned out to adapter clients.",
		}),
		Successful: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "execution_core",
			Subsystem: "broadcaster",
			Name:      "submits_successful",
			Help:      "Submits where an adapter client won the race.",
		}),
		Failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "execution_core",
			Subsystem: "broadcaster",
			Name:      "submits_failed",
			Help:      "Submits where every adapter client failed.",
		}),
		ExpectedRejects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "execution_core",
			Subsystem: "broadcaster",
			Name:      "expected_rejects",
			Help:      "Duplicate-id rejections from losing adapter clients, logged at debug not counted as failures.",
		}),
	}
	if registry != nil {
		registry.MustRegister(m.Total, m.Successful, m.Failed, m.ExpectedRejects)
	}
	return m
}
