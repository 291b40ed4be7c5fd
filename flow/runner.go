package flow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/arxrun/arx/flow/emit"
)

// DefaultPersona is used when a RunInput carries no persona.
const DefaultPersona = "default"

// RunInput is the caller-supplied configuration for one flow execution.
type RunInput struct {
	FlowID     string
	RunID      string
	TaskID     string
	Persona    string
	Parameters map[string]string
	DryRun     bool
}

// Runner executes a Flow's nodes in topological order.
type Runner struct {
	registry  *Registry
	step      Step
	collector Collector
	emitter   emit.Emitter
}

// NewRunner builds a Runner against registry, applying opts over the
// defaults: CommandStep as the step body, NullCollector, and a
// discarding emitter.
func NewRunner(registry *Registry, opts ...RunnerOption) *Runner {
	r := &Runner{
		registry:  registry,
		step:      NewCommandStep(),
		collector: NullCollector{},
		emitter:   emit.NewNullEmitter(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes flow_id per the RunInput: prepare context, run guards,
// build the DAG, execute nodes in topological order honoring
// skip-on-predecessor-failure and edge `when` clauses, and compose a run
// Summary.
func (r *Runner) Run(ctx context.Context, in RunInput) (*Summary, error) {
	flowDef, ok := r.registry.Flows[in.FlowID]
	if !ok {
		return nil, &RunError{Message: fmt.Sprintf("unknown flow %q", in.FlowID), Code: "FLOW_NOT_FOUND"}
	}

	if flowDef.Config.MaxExecutionTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(flowDef.Config.MaxExecutionTime)*time.Second)
		defer cancel()
	}

	ec := NewExecutionContext(in.FlowID, in.RunID, in.Parameters, in.DryRun)
	execMode := ec.ExecMode()

	persona := in.Persona
	if persona == "" {
		persona = DefaultPersona
	}

	branch, err := currentBranch(ctx)
	if err != nil || branch == "" {
		branch = "unknown"
	}

	r.emit(in.RunID, "", emit.MsgFlowStart, map[string]interface{}{
		"flow_id":   in.FlowID,
		"persona":   persona,
		"exec_mode": string(execMode),
		"branch":    branch,
	})
	r.collector.FlowStarted(in.FlowID, persona, string(execMode), branch)

	for _, guardName := range flowDef.Guards {
		res := RunGuard(ctx, guardName, ec)
		if !res.OK {
			r.emit(in.RunID, "", emit.MsgGuardDenied, map[string]interface{}{
				"guard":  guardName,
				"reason": res.Reason,
			})
			r.endFlow(in, persona, execMode, branch, false, "guards_failed")
			return nil, &GuardFailure{GuardName: guardName, Reason: res.Reason}
		}
	}

	nodeIDs := sortedNodeIDs(flowDef.Nodes)
	order, err := topologicalOrder(nodeIDs, flowDef.Edges)
	if err != nil {
		r.endFlow(in, persona, execMode, branch, false, "dag_cycle")
		return nil, &RunError{Message: err.Error(), Code: "DAG_CYCLE"}
	}
	preds := incomingEdges(flowDef.Edges)

	failFast := flowDef.Config.IsFailFast()
	envelopes := map[string]*EnvelopeV2{}

	for _, nodeID := range order {
		node := flowDef.Nodes[nodeID]

		if skip, reason := r.shouldSkip(preds[nodeID], ec); skip {
			ec.NodeResults[nodeID] = ExecutionResult{Status: StatusSkipped, ErrorMessage: reason}
			ec.Log(nodeID, "skipped: "+reason)
			continue
		}

		r.collector.InflightSteps(in.FlowID, 1)
		result := r.executeStep(ctx, in, persona, execMode, nodeID, node, ec)
		r.collector.InflightSteps(in.FlowID, -1)

		ec.NodeResults[nodeID] = result
		envelopes[nodeID] = BuildEnvelope(in.FlowID, in.TaskID, nodeID, node, result, execMode)
		ec.Log(nodeID, "status="+string(result.Status))

		if result.Status != StatusSuccess && failFast {
			break
		}
	}

	summary := r.composeSummary(in.FlowID, flowDef, ec, execMode, envelopes)

	if summary.Failed == 0 {
		r.endFlow(in, persona, execMode, branch, true, "")
	} else {
		r.endFlow(in, persona, execMode, branch, false, "step_failed")
	}

	return summary, nil
}

func (r *Runner) endFlow(in RunInput, persona string, execMode ExecMode, branch string, success bool, reason string) {
	r.emit(in.RunID, "", emit.MsgFlowEnd, map[string]interface{}{
		"flow_id": in.FlowID,
		"success": success,
		"reason":  reason,
	})
	if success {
		r.collector.FlowSuccess(in.FlowID, persona, string(execMode), branch)
	} else {
		r.collector.FlowFailed(in.FlowID, persona, string(execMode), branch, reason)
	}
}

// shouldSkip reports whether a node must be skipped because a
// predecessor did not succeed, or the incoming edge's `when` clause
// evaluates false.
func (r *Runner) shouldSkip(incoming []Edge, ec *ExecutionContext) (bool, string) {
	for _, e := range incoming {
		result, ok := ec.NodeResults[e.From]
		if !ok || result.Status != StatusSuccess {
			return true, "predecessor failed"
		}
		if !ParseEdgeCondition(e.When).Eval(ExecutionResult{}, ec.NodeResults) {
			return true, "predecessor failed"
		}
	}
	return false, ""
}

// executeStep runs the single-attempt + retry loop for one node,
// returning its final ExecutionResult with its final attempts.
func (r *Runner) executeStep(ctx context.Context, in RunInput, persona string, execMode ExecMode, nodeID string, node Node, ec *ExecutionContext) ExecutionResult {
	command := substituteParams(node.Command, ec.Parameters)
	timeout := time.Duration(node.EffectiveTimeout()) * time.Second
	retryDelay := time.Duration(node.EffectiveRetryDelay()) * time.Second
	successExpr := ParseSuccessCondition(node.SuccessCondition)

	attempt := 1
	var result ExecutionResult

	for {
		start := time.Now()
		var outcome StepOutcome
		var stepErr error

		if ec.DryRun {
			outcome = StepOutcome{ExitCode: 0, Stdout: "DRY_RUN: " + command}
		} else {
			outcome, stepErr = r.step.Execute(ctx, command, timeout)
		}
		duration := time.Since(start)
		r.collector.StepLatency(in.FlowID, nodeID, persona, node.Model, string(execMode), duration)

		switch {
		case stepErr != nil:
			result = ExecutionResult{
				Status:       StatusFailed,
				Attempts:     attempt,
				DurationSecs: duration.Seconds(),
				ErrorMessage: stepErr.Error(),
			}
		case outcome.TimedOut:
			result = ExecutionResult{
				Status:       StatusTimeout,
				Attempts:     attempt,
				DurationSecs: duration.Seconds(),
				Stdout:       outcome.Stdout,
				Stderr:       outcome.Stderr,
				ErrorMessage: fmt.Sprintf("step %s exceeded timeout of %ds", nodeID, node.EffectiveTimeout()),
			}
		default:
			exitCode := outcome.ExitCode
			status := StatusFailed
			if successExpr.Eval(ExecutionResult{ExitCode: &exitCode, Stdout: outcome.Stdout}, nil) {
				status = StatusSuccess
			}
			result = ExecutionResult{
				Status:       status,
				ExitCode:     &exitCode,
				Stdout:       outcome.Stdout,
				Stderr:       outcome.Stderr,
				Attempts:     attempt,
				DurationSecs: duration.Seconds(),
			}
			if status == StatusFailed {
				result.ErrorMessage = fmt.Sprintf("step %s failed: exit code %d did not satisfy success condition", nodeID, exitCode)
			}
		}

		ec.Log(nodeID, fmt.Sprintf("attempt %d: status=%s", attempt, result.Status))

		if result.Status == StatusSuccess || attempt > node.Retries {
			break
		}

		r.collector.StepRetried(in.FlowID, nodeID, persona)
		r.emit(in.RunID, nodeID, emit.MsgNodeRetry, map[string]interface{}{
			"flow_id": in.FlowID,
			"persona": persona,
			"attempt": attempt,
		})

		select {
		case <-ctx.Done():
			result.ErrorMessage = ctx.Err().Error()
			return result
		case <-time.After(retryDelay):
		}
		attempt++
	}

	return result
}

// substituteParams does literal {{key}} replacement with the values from
// parameters; no other templating is supported.
func substituteParams(command string, parameters map[string]string) string {
	out := command
	for k, v := range parameters {
		out = strings.ReplaceAll(out, "{{"+k+"}}", v)
	}
	return out
}

func (r *Runner) composeSummary(flowID string, flowDef Flow, ec *ExecutionContext, execMode ExecMode, envelopes map[string]*EnvelopeV2) *Summary {
	nodes := make(map[string]NodeView, len(ec.NodeResults))
	var successful, failed, skipped int

	for id, result := range ec.NodeResults {
		nodes[id] = NodeView{
			Status:   result.Status,
			Duration: result.DurationSecs,
			Attempts: result.Attempts,
			ExitCode: result.ExitCode,
		}
		switch result.Status {
		case StatusSuccess:
			successful++
		case StatusSkipped:
			skipped++
		default:
			failed++
		}
	}

	total := len(flowDef.Nodes)
	var rate float64
	if total > 0 {
		rate = float64(successful) / float64(total)
	}

	return &Summary{
		FlowID:       flowID,
		TotalNodes:   total,
		Successful:   successful,
		Failed:       failed,
		Skipped:      skipped,
		SuccessRate:  rate,
		DurationSecs: time.Since(ec.StartTime).Seconds(),
		ExecMode:     string(execMode),
		Nodes:        nodes,
		Log:          ec.ExecutionLog,
		Envelopes:    envelopes,
	}
}

func (r *Runner) emit(runID, nodeID, msg string, meta map[string]interface{}) {
	if r.emitter == nil {
		return
	}
	r.emitter.Emit(emit.Event{RunID: runID, NodeID: nodeID, Msg: msg, Meta: meta})
}
