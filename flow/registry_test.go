package flow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRegistryYAML = `
version: "2.0"
flows:
  flow_example:
    id: flow_example
    name: "Example flow"
    guards: [branch_not_main]
    config: { max_execution_time: 3600, max_iterations: 100, fail_fast: true }
    nodes:
      n1: { type: command, name: "step one", command: "echo hi", timeout: 30, retries: 1, retry_delay: 5, success_condition: "exit_code == 0" }
      n2: { type: command, name: "step two", command: "echo bye" }
    edges:
      - { from: n1, to: n2, when: "n1.success" }
`

func TestParseRegistry(t *testing.T) {
	reg, err := ParseRegistry([]byte(sampleRegistryYAML))
	require.NoError(t, err)
	assert.Equal(t, "2.0", reg.Version)
	require.Contains(t, reg.Flows, "flow_example")

	flow := reg.Flows["flow_example"]
	assert.Equal(t, "flow_example", flow.ID)
	assert.True(t, flow.Config.IsFailFast())
	require.Contains(t, flow.Nodes, "n1")
	assert.Equal(t, 30, flow.Nodes["n1"].EffectiveTimeout())
	assert.Len(t, flow.Edges, 1)
}

func TestParseRegistry_InvalidYAML(t *testing.T) {
	_, err := ParseRegistry([]byte("not: [valid: yaml"))
	assert.Error(t, err)
}

func TestLoadRegistry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleRegistryYAML), 0o644))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, "2.0", reg.Version)
}

func TestLoadRegistry_MissingFile(t *testing.T) {
	_, err := LoadRegistry("/nonexistent/registry.yaml")
	assert.Error(t, err)
}

func TestLoadRegistry_ThenLint(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleRegistryYAML), 0o644))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)

	result := Lint(reg)
	assert.False(t, result.HasError(), "findings: %+v", result.Flows["flow_example"].Findings)
}
