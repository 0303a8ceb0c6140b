// Package observability exposes Prometheus metrics for decision runs and
// scans, served at /metrics in daemon mode.
package observability

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"git.home.luguber.info/inful/relver/internal/engine"
)

// Metrics holds the collectors for one process. Construct once and share.
type Metrics struct {
	registry *prom.Registry

	decisionsTotal   *prom.CounterVec
	runFailuresTotal *prom.CounterVec
	scansTotal       prom.Counter
	scanDuration     prom.Histogram
}

// NewMetrics builds a registry with process/go collectors plus relver's own.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prom.NewRegistry(),
		decisionsTotal: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "relver", Name: "decisions_total",
			Help: "Decision runs by terminal outcome",
		}, []string{"decision"}),
		runFailuresTotal: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "relver", Name: "run_failures_total",
			Help: "Failed decision runs by error category",
		}, []string{"category"}),
		scansTotal: prom.NewCounter(prom.CounterOpts{
			Namespace: "relver", Name: "scans_total",
			Help: "Workspace scans executed",
		}),
		scanDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "relver", Name: "scan_duration_seconds",
			Help:    "Wall time of workspace scans",
			Buckets: prom.DefBuckets,
		}),
	}

	m.registry.MustRegister(m.decisionsTotal, m.runFailuresTotal, m.scansTotal, m.scanDuration)
	m.registry.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	return m
}

// ObserveDecision records a completed decision run.
func (m *Metrics) ObserveDecision(dec *engine.Decision) {
	m.decisionsTotal.WithLabelValues(string(dec.Kind)).Inc()
}

// ObserveRunFailure records a failed decision run.
func (m *Metrics) ObserveRunFailure(category string) {
	m.runFailuresTotal.WithLabelValues(category).Inc()
}

// ObserveScan records one workspace scan and its duration in seconds.
func (m *Metrics) ObserveScan(seconds float64) {
	m.scansTotal.Inc()
	m.scanDuration.Observe(seconds)
}

// Handler serves the registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
