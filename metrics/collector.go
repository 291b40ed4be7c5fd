// Package metrics implements the Observability Collector: a Prometheus
// registry wrapper exposing a fixed set of metric families and labels
// for flow execution, plus an HTTP exporter and a CI assertion gate.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// stepLatencyBuckets is the fixed 12-bucket list (milliseconds) every
// step_latency_ms histogram uses.
var stepLatencyBuckets = []float64{50, 100, 200, 400, 800, 1500, 3000, 5000, 8000, 12000, 20000, 40000}

// Collector wraps a Prometheus registry with the flow_* and step_*
// metric families. It implements flow.Collector structurally so a
// *Collector can be passed directly to flow.WithCollector.
type Collector struct {
	registry prometheus.Registerer

	flowStarted *prometheus.CounterVec
	flowSuccess *prometheus.CounterVec
	flowFail    *prometheus.CounterVec
	stepLatency *prometheus.HistogramVec
	stepRetries *prometheus.CounterVec
	tokens      *prometheus.CounterVec
	inflight    *prometheus.GaugeVec

	mu      sync.RWMutex
	enabled bool
}

// New registers the metric families against registry (use
// prometheus.DefaultRegisterer for the process-global registry, or a
// fresh prometheus.NewRegistry() per the PROMETHEUS_MULTIPROC_DIR hint).
// enabled gates whether observations are recorded; when false every
// method is a no-op but the registry still responds with empty families
// for scraping.
func New(registry prometheus.Registerer, enabled bool) *Collector {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		enabled:  enabled,

		flowStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flow_started_total",
			Help: "Total flow runs started",
		}, []string{"flow_id", "persona", "exec_mode", "branch"}),

		flowSuccess: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flow_success_total",
			Help: "Total flow runs that completed with zero failed nodes",
		}, []string{"flow_id", "persona", "exec_mode", "branch"}),

		flowFail: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flow_fail_total",
			Help: "Total flow runs that ended with at least one failed node or were aborted",
		}, []string{"flow_id", "persona", "exec_mode", "branch", "reason"}),

		stepLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "step_latency_ms",
			Help:    "Step body execution duration in milliseconds, one observation per attempt",
			Buckets: stepLatencyBuckets,
		}, []string{"flow_id", "step_id", "persona", "model", "exec_mode"}),

		stepRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "step_retries_total",
			Help: "Total step retry attempts",
		}, []string{"flow_id", "step_id", "persona"}),

		tokens: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tokens_total",
			Help: "Total tokens observed, by direction",
		}, []string{"direction", "model", "persona"}),

		inflight: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "inflight_steps",
			Help: "Steps currently executing, by flow",
		}, []string{"flow_id"}),
	}
}

func (c *Collector) isEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// Enable turns on metric recording.
func (c *Collector) Enable() { c.mu.Lock(); c.enabled = true; c.mu.Unlock() }

// Disable turns off metric recording; the registry still responds to
// scrapes with whatever values were already recorded.
func (c *Collector) Disable() { c.mu.Lock(); c.enabled = false; c.mu.Unlock() }

func (c *Collector) FlowStarted(flowID, persona, execMode, branch string) {
	if !c.isEnabled() {
		return
	}
	c.flowStarted.WithLabelValues(sanitize(flowID), sanitize(persona), sanitize(execMode), sanitize(branch)).Inc()
}

func (c *Collector) FlowSuccess(flowID, persona, execMode, branch string) {
	if !c.isEnabled() {
		return
	}
	c.flowSuccess.WithLabelValues(sanitize(flowID), sanitize(persona), sanitize(execMode), sanitize(branch)).Inc()
}

func (c *Collector) FlowFailed(flowID, persona, execMode, branch, reason string) {
	if !c.isEnabled() {
		return
	}
	c.flowFail.WithLabelValues(sanitize(flowID), sanitize(persona), sanitize(execMode), sanitize(branch), sanitize(reason)).Inc()
}

func (c *Collector) StepLatency(flowID, stepID, persona, model, execMode string, d time.Duration) {
	if !c.isEnabled() {
		return
	}
	c.stepLatency.WithLabelValues(sanitize(flowID), sanitize(stepID), sanitize(persona), sanitize(model), sanitize(execMode)).
		Observe(float64(d.Milliseconds()))
}

func (c *Collector) StepRetried(flowID, stepID, persona string) {
	if !c.isEnabled() {
		return
	}
	c.stepRetries.WithLabelValues(sanitize(flowID), sanitize(stepID), sanitize(persona)).Inc()
}

// TokensObserved records token usage for a model call; direction should
// be "in" or "out".
func (c *Collector) TokensObserved(direction, model, persona string, n int) {
	if !c.isEnabled() || n <= 0 {
		return
	}
	c.tokens.WithLabelValues(sanitize(direction), sanitize(model), sanitize(persona)).Add(float64(n))
}

func (c *Collector) InflightSteps(flowID string, delta int) {
	if !c.isEnabled() {
		return
	}
	g := c.inflight.WithLabelValues(sanitize(flowID))
	if delta >= 0 {
		g.Add(float64(delta))
	} else {
		g.Sub(float64(-delta))
	}
}
