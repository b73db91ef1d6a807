package reporter

import "github.com/prometheus/client_golang/prometheus"

// Counters tracks per-kind telemetry call outcomes for the /metrics endpoint.
// Params: registerer for the counter vector.
// Returns: counter set, nil-safe in all methods.
type Counters struct {
	reports *prometheus.CounterVec
}

// NewCounters registers the reporter counter vector.
// Params: reg prometheus registerer, usually the intake server registry.
// Returns: counter set.
func NewCounters(reg prometheus.Registerer) *Counters {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "buildreport_reports_total",
		Help: "Telemetry API calls by payload kind and outcome.",
	}, []string{"kind", "outcome"})
	reg.MustRegister(vec)
	return &Counters{reports: vec}
}

// observe records one call outcome.
// Params: kind payload kind label; failed call outcome.
// Returns: none.
func (c *Counters) observe(kind string, failed bool) {
	if c == nil {
		return
	}
	outcome := "success"
	if failed {
		outcome = "failure"
	}
	c.reports.WithLabelValues(kind, outcome).Inc()
}
