package emit

// The Msg values the runner emits. Flow-level events carry an empty
// NodeID; node-level events are scoped to the node that raised them.
const (
	MsgFlowStart   = "flow_start"
	MsgFlowEnd     = "flow_end"
	MsgNodeRetry   = "retry"
	MsgGuardDenied = "guard_denied"
)

// Event represents an observability event emitted during flow execution.
//
// Events provide detailed insight into a run's behavior:
//   - flow_start / flow_end lifecycle markers
//   - per-node retry notifications
//   - guard denials
//
// Events are emitted to an Emitter which can:
//   - log to stdout/stderr
//   - send to OpenTelemetry
//   - buffer in memory for test assertions
type Event struct {
	// RunID identifies the flow execution that emitted this event.
	RunID string

	// Step is the sequential step number within the run (1-indexed).
	// Zero for flow-level events (flow_start, flow_end). The Runner does
	// not number its events and leaves Step at zero.
	Step int

	// NodeID identifies which node emitted this event.
	// Empty string for flow-level events.
	NodeID string

	// Msg names the event: "flow_start", "flow_end", "retry", etc.
	Msg string

	// Meta carries event-specific structured data, e.g. persona,
	// exec_mode, branch, attempt, or a failure reason.
	Meta map[string]interface{}
}
