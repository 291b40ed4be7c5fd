package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_FlowStarted_Increments(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg, true)
	c.FlowStarted("flow_demo", "CODER", "live", "feature/x")

	mfs, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range mfs {
		if mf.GetName() == "flow_started_total" {
			found = true
			require.Len(t, mf.GetMetric(), 1)
			assert.Equal(t, 1.0, mf.GetMetric()[0].GetCounter().GetValue())
		}
	}
	assert.True(t, found)
}

func TestCollector_Disabled_IsNoop(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg, false)
	c.FlowStarted("flow_demo", "CODER", "live", "main")

	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == "flow_started_total" {
			assert.Empty(t, mf.GetMetric())
		}
	}
}

func TestCollector_StepLatency_Observes(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg, true)
	c.StepLatency("flow_demo", "n1", "CODER", "local-13b", "live", 150*time.Millisecond)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == "step_latency_ms" {
			require.Len(t, mf.GetMetric(), 1)
			assert.Equal(t, uint64(1), mf.GetMetric()[0].GetHistogram().GetSampleCount())
		}
	}
}

func TestCollector_InflightSteps_Gauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg, true)
	c.InflightSteps("flow_demo", 1)
	c.InflightSteps("flow_demo", 1)
	c.InflightSteps("flow_demo", -1)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == "inflight_steps" {
			require.Len(t, mf.GetMetric(), 1)
			assert.Equal(t, 1.0, mf.GetMetric()[0].GetGauge().GetValue())
		}
	}
}

func TestCollector_LabelsAreSanitized(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg, true)
	c.FlowStarted("flow demo!", "", "live", "main")

	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == "flow_started_total" {
			labels := mf.GetMetric()[0].GetLabel()
			for _, l := range labels {
				if l.GetName() == "flow_id" {
					assert.Equal(t, "flow_demo_", l.GetValue())
				}
				if l.GetName() == "persona" {
					assert.Equal(t, "unknown", l.GetValue())
				}
			}
		}
	}
}
