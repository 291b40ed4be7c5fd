// Package flow implements the flow engine: registry data model, linter,
// guards, and the topological runner that executes a Flow's nodes.
package flow

import "regexp"

// flowIDPattern matches the required shape of a FlowId: flow_[a-z_][a-z0-9_]*.
var flowIDPattern = regexp.MustCompile(`^flow_[a-z_][a-z0-9_]*$`)

// nodeIDPattern matches the required shape of a NodeId.
var nodeIDPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// NodeType enumerates the kinds of node a Flow may declare.
type NodeType string

const (
	NodeCommand   NodeType = "command"
	NodeCondition NodeType = "condition"
	NodeGateway   NodeType = "gateway"
)

// validNodeTypes is the closed set the linter accepts; the runner does
// not check node types.
var validNodeTypes = map[NodeType]bool{
	NodeCommand:   true,
	NodeCondition: true,
	NodeGateway:   true,
}

// Registry is the root document: version plus a map of flows keyed by
// id. It is the unit parsed from a registry YAML file.
type Registry struct {
	Version string          `yaml:"version" json:"version"`
	Flows   map[string]Flow `yaml:"flows" json:"flows"`
}

// Flow is a named DAG of nodes, edges, guards, and config.
type Flow struct {
	ID          string          `yaml:"id" json:"id" validate:"required,flow_id"`
	Name        string          `yaml:"name" json:"name" validate:"required"`
	Description string          `yaml:"description,omitempty" json:"description,omitempty"`
	Nodes       map[string]Node `yaml:"nodes" json:"nodes" validate:"required,min=1,dive"`
	Edges       []Edge          `yaml:"edges" json:"edges" validate:"dive"`
	Guards      []GuardName     `yaml:"guards,omitempty" json:"guards,omitempty"`
	Config      FlowConfig      `yaml:"config" json:"config"`
}

// Node is a single unit of work in a Flow: an opaque command run with a
// timeout, retry count, and optional success condition.
type Node struct {
	Type             NodeType `yaml:"type" json:"type" validate:"required"`
	Name             string   `yaml:"name" json:"name" validate:"required"`
	Command          string   `yaml:"command" json:"command" validate:"required"`
	Timeout          int      `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Retries          int      `yaml:"retries,omitempty" json:"retries,omitempty" validate:"min=0,max=10"`
	RetryDelay       int      `yaml:"retry_delay,omitempty" json:"retry_delay,omitempty"`
	SuccessCondition string   `yaml:"success_condition,omitempty" json:"success_condition,omitempty"`
	Model            string   `yaml:"model,omitempty" json:"model,omitempty"`
}

// Defaults for optional Node fields.
const (
	DefaultNodeTimeout    = 300
	DefaultNodeRetries    = 0
	DefaultNodeRetryDelay = 30
	MinNodeTimeout        = 1
	MaxNodeTimeout        = 3600
	MaxNodeRetries        = 10
)

// EffectiveTimeout returns the node's configured timeout or the default.
func (n Node) EffectiveTimeout() int {
	if n.Timeout == 0 {
		return DefaultNodeTimeout
	}
	return n.Timeout
}

// EffectiveRetryDelay returns the node's retry delay in seconds. A
// RetryDelay of 0, whether absent or written explicitly, yields
// DefaultNodeRetryDelay; a zero delay between attempts cannot be
// configured.
func (n Node) EffectiveRetryDelay() int {
	if n.RetryDelay == 0 {
		return DefaultNodeRetryDelay
	}
	return n.RetryDelay
}

// Edge is a dependency from one node to another, optionally guarded by a
// `when` expression evaluated against prior node results.
type Edge struct {
	From string `yaml:"from" json:"from" validate:"required"`
	To   string `yaml:"to" json:"to" validate:"required"`
	When string `yaml:"when,omitempty" json:"when,omitempty"`
}

// GuardName identifies a member of the closed, built-in guard registry.
type GuardName string

// FlowConfig holds flow-level execution limits.
//
// FailFast is a pointer so the YAML decoder can distinguish "absent" (use
// the default of true) from an explicit "fail_fast: false".
type FlowConfig struct {
	MaxExecutionTime int   `yaml:"max_execution_time,omitempty" json:"max_execution_time,omitempty"`
	MaxIterations    int   `yaml:"max_iterations,omitempty" json:"max_iterations,omitempty"`
	FailFast         *bool `yaml:"fail_fast,omitempty" json:"fail_fast,omitempty"`
}

// IsFailFast reports the effective fail_fast value, defaulting to true.
func (c FlowConfig) IsFailFast() bool {
	if c.FailFast == nil {
		return true
	}
	return *c.FailFast
}
