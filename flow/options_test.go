package flow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/arxrun/arx/flow/emit"
)

type fakeStep struct {
	outcome StepOutcome
	calls   int
}

func (f *fakeStep) Execute(_ context.Context, _ string, _ time.Duration) (StepOutcome, error) {
	f.calls++
	return f.outcome, nil
}

type fakeCollector struct {
	started int
}

func (f *fakeCollector) FlowStarted(string, string, string, string) { f.started++ }
func (f *fakeCollector) FlowSuccess(string, string, string, string)  {}
func (f *fakeCollector) FlowFailed(string, string, string, string, string) {
}
func (f *fakeCollector) StepLatency(string, string, string, string, string, time.Duration) {}
func (f *fakeCollector) StepRetried(string, string, string)                                {}
func (f *fakeCollector) InflightSteps(string, int)                                         {}

func TestNewRunner_Defaults(t *testing.T) {
	r := NewRunner(&Registry{Flows: map[string]Flow{}})
	assert.IsType(t, &CommandStep{}, r.step)
	assert.IsType(t, NullCollector{}, r.collector)
	assert.IsType(t, emit.NewNullEmitter(), r.emitter)
}

func TestWithStep_Overrides(t *testing.T) {
	fs := &fakeStep{outcome: StepOutcome{ExitCode: 0}}
	r := NewRunner(&Registry{}, WithStep(fs))
	assert.Same(t, fs, r.step)
}

func TestWithCollector_Overrides(t *testing.T) {
	fc := &fakeCollector{}
	r := NewRunner(&Registry{}, WithCollector(fc))
	assert.Same(t, fc, r.collector)
}

func TestWithEmitter_Overrides(t *testing.T) {
	be := emit.NewBufferedEmitter()
	r := NewRunner(&Registry{}, WithEmitter(be))
	assert.Same(t, be, r.emitter)
}

func TestWithStep_NilIgnored(t *testing.T) {
	r := NewRunner(&Registry{}, WithStep(nil))
	assert.IsType(t, &CommandStep{}, r.step)
}
