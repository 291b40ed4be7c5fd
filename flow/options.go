package flow

import "github.com/arxrun/arx/flow/emit"

// RunnerOption configures a Runner at construction via the functional
// options pattern.
type RunnerOption func(*Runner)

// WithCollector wires a metrics collector; the default is NullCollector.
func WithCollector(c Collector) RunnerOption {
	return func(r *Runner) {
		if c != nil {
			r.collector = c
		}
	}
}

// WithEmitter wires an observability event emitter; the default is
// emit.NewNullEmitter().
func WithEmitter(e emit.Emitter) RunnerOption {
	return func(r *Runner) {
		if e != nil {
			r.emitter = e
		}
	}
}

// WithStep overrides the opaque step body implementation, e.g. to inject
// a fake Step in tests. The default is NewCommandStep().
func WithStep(s Step) RunnerOption {
	return func(r *Runner) {
		if s != nil {
			r.step = s
		}
	}
}
