package flow

import (
	"fmt"
	"regexp"
	"sort"
)

// Finding is a single lint result.
type Finding struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// ValidationResult is a flow's accumulated findings; the linter is
// fail-fast at the flow level (every finding for one flow accumulates)
// but never short-circuits the rest of the registry.
type ValidationResult struct {
	FlowID   string    `json:"flow_id"`
	Findings []Finding `json:"findings"`
}

// HasError reports whether any finding carries ERROR severity.
func (r ValidationResult) HasError() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// LintResult is the linter's output for a whole registry: a result per
// flow plus one for the registry document itself.
type LintResult struct {
	Registry ValidationResult
	Flows    map[string]ValidationResult
}

// HasError reports whether the registry result or any flow result
// carries an ERROR finding; the CLI's exit code reflects this.
func (r LintResult) HasError() bool {
	if r.Registry.HasError() {
		return true
	}
	for _, fr := range r.Flows {
		if fr.HasError() {
			return true
		}
	}
	return false
}

var registryVersionPattern = regexp.MustCompile(`^\d+\.\d+$`)

// Lint validates a registry document: registry shape, per-flow shape,
// nodes, edges, guards, DAG acyclicity, and config. It never panics or
// returns an error for a malformed registry; malformed input is reported
// as findings.
func Lint(reg *Registry) LintResult {
	result := LintResult{
		Registry: ValidationResult{FlowID: "registry"},
		Flows:    map[string]ValidationResult{},
	}

	if reg == nil {
		result.Registry.Findings = append(result.Registry.Findings, Finding{
			Code: "REGISTRY_NIL", Message: "registry document is nil", Severity: SeverityError,
		})
		return result
	}

	if reg.Version == "" {
		result.Registry.Findings = append(result.Registry.Findings, Finding{
			Code: "REGISTRY_VERSION_MISSING", Message: "version is absent", Severity: SeverityWarning,
		})
	} else if !registryVersionPattern.MatchString(reg.Version) {
		result.Registry.Findings = append(result.Registry.Findings, Finding{
			Code: "REGISTRY_VERSION_FORMAT", Message: fmt.Sprintf("version %q does not match \\d+.\\d+", reg.Version), Severity: SeverityWarning,
		})
	}

	if reg.Flows == nil {
		result.Registry.Findings = append(result.Registry.Findings, Finding{
			Code: "REGISTRY_FLOWS_MISSING", Message: "flows is absent", Severity: SeverityError,
		})
		return result
	}

	ids := make([]string, 0, len(reg.Flows))
	for id := range reg.Flows {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		result.Flows[id] = lintFlow(id, reg.Flows[id])
	}

	return result
}

func lintFlow(flowID string, f Flow) ValidationResult {
	vr := ValidationResult{FlowID: flowID}
	add := func(code, msg string, sev Severity) {
		vr.Findings = append(vr.Findings, Finding{Code: code, Message: msg, Severity: sev})
	}

	vr.Findings = append(vr.Findings, structFindings(f)...)

	if f.ID == "" {
		add("FLOW_ID_MISSING", "id is required", SeverityError)
	} else if !flowIDPattern.MatchString(f.ID) {
		add("FLOW_ID_FORMAT", fmt.Sprintf("id %q must match flow_[a-z_][a-z0-9_]*", f.ID), SeverityError)
	}
	if f.Name == "" {
		add("FLOW_NAME_MISSING", "name is required", SeverityError)
	}
	if len(f.Nodes) == 0 {
		add("FLOW_NODES_MISSING", "nodes is required and must be non-empty", SeverityError)
	}

	for _, nodeID := range sortedNodeIDs(f.Nodes) {
		lintNode(nodeID, f.Nodes[nodeID], add)
	}

	for i, e := range f.Edges {
		lintEdge(i, e, f.Nodes, add)
	}

	for _, g := range f.Guards {
		if !KnownGuard(g) {
			add("GUARD_UNKNOWN", fmt.Sprintf("guard %q is not a registered guard", g), SeverityError)
		}
	}

	if len(f.Nodes) > 0 {
		if cycle := findCycle(sortedNodeIDs(f.Nodes), adjacencyOf(f.Edges)); len(cycle) > 0 {
			add("DAG_CYCLE", fmt.Sprintf("cycle detected: %v", cycle), SeverityError)
		} else if !hasRoot(f.Nodes, f.Edges) {
			add("NO_ROOT_NODES", "no node has zero incoming edges", SeverityWarning)
		}
	}

	if f.Config.MaxExecutionTime < 0 {
		add("CONFIG_INVALID_LIMIT", "max_execution_time must be a positive integer", SeverityError)
	}
	if f.Config.MaxIterations < 0 {
		add("CONFIG_INVALID_LIMIT", "max_iterations must be a positive integer", SeverityError)
	}

	return vr
}

func lintNode(nodeID string, n Node, add func(code, msg string, sev Severity)) {
	if !nodeIDPattern.MatchString(nodeID) {
		add("NODE_ID_FORMAT", fmt.Sprintf("node id %q must match [a-z_][a-z0-9_]*", nodeID), SeverityError)
	}
	if n.Name == "" {
		add("NODE_NAME_MISSING", fmt.Sprintf("node %q: name is required", nodeID), SeverityError)
	}
	if n.Command == "" {
		add("NODE_COMMAND_MISSING", fmt.Sprintf("node %q: command is required", nodeID), SeverityError)
	}
	if n.Type == "" {
		add("NODE_TYPE_MISSING", fmt.Sprintf("node %q: type is required", nodeID), SeverityError)
	} else if !validNodeTypes[n.Type] {
		add("NODE_UNKNOWN_TYPE", fmt.Sprintf("node %q: type %q is not one of command|condition|gateway", nodeID, n.Type), SeverityError)
	}
	if n.Timeout != 0 && (n.Timeout < MinNodeTimeout || n.Timeout > MaxNodeTimeout) {
		add("NODE_TIMEOUT_RANGE", fmt.Sprintf("node %q: timeout %d out of range [%d,%d]", nodeID, n.Timeout, MinNodeTimeout, MaxNodeTimeout), SeverityError)
	}
	if n.Retries < 0 || n.Retries > MaxNodeRetries {
		add("NODE_RETRIES_RANGE", fmt.Sprintf("node %q: retries %d out of range [0,%d]", nodeID, n.Retries, MaxNodeRetries), SeverityError)
	}
}

func lintEdge(idx int, e Edge, nodes map[string]Node, add func(code, msg string, sev Severity)) {
	if e.From == "" || e.To == "" {
		add("EDGE_MISSING_ENDPOINT", fmt.Sprintf("edge[%d]: from and to are required", idx), SeverityError)
		return
	}
	if _, ok := nodes[e.From]; !ok {
		add("EDGE_UNKNOWN_NODE", fmt.Sprintf("edge[%d]: from %q does not reference a known node", idx, e.From), SeverityError)
	}
	if _, ok := nodes[e.To]; !ok {
		add("EDGE_UNKNOWN_NODE", fmt.Sprintf("edge[%d]: to %q does not reference a known node", idx, e.To), SeverityError)
	}
}

func adjacencyOf(edges []Edge) map[string][]string {
	m := map[string][]string{}
	for _, e := range edges {
		m[e.From] = append(m[e.From], e.To)
	}
	return m
}

func hasRoot(nodes map[string]Node, edges []Edge) bool {
	hasIncoming := map[string]bool{}
	for _, e := range edges {
		hasIncoming[e.To] = true
	}
	for id := range nodes {
		if !hasIncoming[id] {
			return true
		}
	}
	return false
}
