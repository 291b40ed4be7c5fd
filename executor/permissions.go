// Package executor implements the queue-consuming side of the
// Distributed Step Executor: permission gating, idempotency claiming,
// rate limiting, body execution, and broker-managed retry with
// exponential backoff.
package executor

import (
	"os"

	"github.com/arxrun/arx/flow"
	"github.com/arxrun/arx/queue"
)

// CheckWritePermission enforces the write-safety gate: live mode
// requires ALLOW_WRITES=1, and destructive steps additionally require
// task.AllowDestructive. Dry-run tasks are always permitted.
func CheckWritePermission(task queue.StepTask) error {
	if task.ExecMode != queue.ExecModeLive {
		return nil
	}
	if os.Getenv("ALLOW_WRITES") != "1" {
		return &flow.PermissionDenied{Reason: "ALLOW_WRITES is not set"}
	}
	if task.Destructive && !task.AllowDestructive {
		return &flow.PermissionDenied{Reason: "allow_destructive is false for a destructive step"}
	}
	return nil
}
