package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_ErrorWithFilePath(t *testing.T) {
	e := &ValidationError{Code: "NODE_UNKNOWN_TYPE", Message: "bad type", FilePath: "registry.yaml", Severity: SeverityError}
	assert.Equal(t, "registry.yaml: NODE_UNKNOWN_TYPE: bad type", e.Error())
}

func TestValidationError_ErrorWithoutFilePath(t *testing.T) {
	e := &ValidationError{Code: "DAG_CYCLE", Message: "cycle found"}
	assert.Equal(t, "DAG_CYCLE: cycle found", e.Error())
}

func TestGuardFailure_Error(t *testing.T) {
	e := &GuardFailure{GuardName: "branch_not_main", Reason: "current branch is main"}
	assert.Equal(t, `guard "branch_not_main" denied: current branch is main`, e.Error())
}

func TestStepFailure_Error(t *testing.T) {
	e := &StepFailure{NodeID: "n1", Message: "exit code 1"}
	assert.Equal(t, "step n1 failed: exit code 1", e.Error())
}

func TestStepTimeout_Error(t *testing.T) {
	e := &StepTimeout{NodeID: "n1", Timeout: 30}
	assert.Equal(t, "step n1 exceeded timeout of 30s", e.Error())
}

func TestDuplicateIgnored_Error(t *testing.T) {
	e := &DuplicateIgnored{IdempotencyKey: "abc123"}
	assert.Equal(t, "duplicate ignored: idempotency key abc123 already claimed", e.Error())
}

func TestPermissionDenied_Error(t *testing.T) {
	e := &PermissionDenied{Reason: "ALLOW_WRITES not set"}
	assert.Equal(t, "permission denied: ALLOW_WRITES not set", e.Error())
}

func TestRateLimited_Error(t *testing.T) {
	e := &RateLimited{Persona: "CODER"}
	assert.Equal(t, "rate limited: persona CODER exceeded its window", e.Error())
}

func TestRunError_Error(t *testing.T) {
	e := &RunError{Message: `unknown flow "flow_missing"`, Code: "FLOW_NOT_FOUND"}
	assert.Equal(t, `unknown flow "flow_missing"`, e.Error())
}

func TestErrors_SatisfyErrorInterface(t *testing.T) {
	var errs = []error{
		&ValidationError{},
		&GuardFailure{},
		&StepFailure{},
		&StepTimeout{},
		&DuplicateIgnored{},
		&PermissionDenied{},
		&RateLimited{},
		&RunError{},
	}
	for _, e := range errs {
		assert.NotNil(t, e)
	}
}
