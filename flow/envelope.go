package flow

// EnvelopeV2 is the structured per-node result record a node's execution
// is projected into. It is write-only: the Runner composes it but never
// consumes it back.
type EnvelopeV2 struct {
	EnvelopeVersion string      `json:"envelope_version"`
	Decision        string      `json:"decision"`
	ChosenID        string      `json:"chosen_id"`
	FlowID          string      `json:"flow_id"`
	TaskID          string      `json:"task_id"`
	StepID          string      `json:"step_id"`
	Candidate       Candidate   `json:"candidate"`
	ExecMode        string      `json:"exec_mode"`
	Metadata        map[string]any `json:"metadata"`
	Provenance      Provenance  `json:"provenance"`
}

// Candidate is the policy projection of the node that ran.
type Candidate struct {
	ID          string  `json:"id"`
	ActionType  string  `json:"action_type"`
	Scores      float64 `json:"scores"`
	Explanation string  `json:"explanation"`
	Command     string  `json:"command"`
}

// Provenance records where the envelope's decision came from.
type Provenance struct {
	Source            string  `json:"source"`
	ConfidenceScore    float64 `json:"confidence_score"`
	ValidationStatus   string  `json:"validation_status"`
	ApprovalRequired   bool    `json:"approval_required"`
}

// defaultConfidenceScore and defaultCandidateScore are policy placeholders
// until a real scoring model is wired in.
const (
	defaultConfidenceScore = 1.0
	defaultCandidateScore  = 1.0
)

// BuildEnvelope is the pure projection of (nodeID, result, context) into
// an EnvelopeV2.
func BuildEnvelope(flowID, taskID, nodeID string, node Node, result ExecutionResult, mode ExecMode) *EnvelopeV2 {
	decision := "accept"
	validation := "validated"
	if result.Status != StatusSuccess {
		decision = "reject"
		validation = string(result.Status)
	}

	return &EnvelopeV2{
		EnvelopeVersion: "2.0",
		Decision:        decision,
		ChosenID:        nodeID,
		FlowID:          flowID,
		TaskID:          taskID,
		StepID:          nodeID,
		Candidate: Candidate{
			ID:          nodeID,
			ActionType:  string(node.Type),
			Scores:      defaultCandidateScore,
			Explanation: node.Name,
			Command:     node.Command,
		},
		ExecMode: mode.Upper(),
		Metadata: map[string]any{
			"attempts":     result.Attempts,
			"duration_sec": result.DurationSecs,
			"model":        node.Model,
		},
		Provenance: Provenance{
			Source:           "flow_runner",
			ConfidenceScore:  defaultConfidenceScore,
			ValidationStatus: validation,
			ApprovalRequired: false,
		},
	}
}
