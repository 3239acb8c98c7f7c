package metric

import "github.com/prometheus/client_golang/prometheus"

// SessionCollector reports whether a session is currently stored. The
// state is read at collection time, so changes made by other processes
// are reflected.
type SessionCollector struct {
	authenticated func() bool
	desc          *prometheus.Desc
}

// NewSessionCollector creates a collector backed by the given probe.
func NewSessionCollector(authenticated func() bool) *SessionCollector {
	return &SessionCollector{
		authenticated: authenticated,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "session", "authenticated"),
			"1 if an access token is stored for the active profile.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *SessionCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *SessionCollector) Collect(ch chan<- prometheus.Metric) {
	v := 0.0
	if c.authenticated() {
		v = 1
	}
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, v)
}
