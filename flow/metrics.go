package flow

import "time"

// Collector is the metrics-recording surface the Runner depends on. The
// concrete Prometheus-backed implementation lives in the metrics package
// to keep flow free of a prometheus import; it satisfies this interface
// structurally.
type Collector interface {
	FlowStarted(flowID, persona, execMode, branch string)
	FlowSuccess(flowID, persona, execMode, branch string)
	FlowFailed(flowID, persona, execMode, branch, reason string)
	StepLatency(flowID, stepID, persona, model, execMode string, d time.Duration)
	StepRetried(flowID, stepID, persona string)
	InflightSteps(flowID string, delta int)
}

// NullCollector discards every observation; it is the Runner's default
// when no Collector is wired, so every helper call is a no-op.
type NullCollector struct{}

func (NullCollector) FlowStarted(string, string, string, string)                       {}
func (NullCollector) FlowSuccess(string, string, string, string)                        {}
func (NullCollector) FlowFailed(string, string, string, string, string)                 {}
func (NullCollector) StepLatency(string, string, string, string, string, time.Duration) {}
func (NullCollector) StepRetried(string, string, string)                                {}
func (NullCollector) InflightSteps(string, int)                                         {}
