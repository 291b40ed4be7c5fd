// Package queue implements the broker side of the Distributed Step
// Executor: a StepTask wire record and the reliable-delivery Broker
// interface that carries it between a dispatcher and its workers.
package queue

import "time"

// ExecMode distinguishes a dry-run task (no side effects, fabricated
// outcome) from a live one.
type ExecMode string

const (
	ExecModeDryRun ExecMode = "dry_run"
	ExecModeLive   ExecMode = "live"
)

// StepTask is the queue record for one step dispatched to the
// Distributed Step Executor.
type StepTask struct {
	FlowID           string            `json:"flow_id"`
	TaskID           string            `json:"task_id"`
	StepID           string            `json:"step_id"`
	Persona          string            `json:"persona"`
	ExecMode         ExecMode          `json:"exec_mode"`
	Branch           string            `json:"branch"`
	Model            string            `json:"model"`
	Command          string            `json:"command"`
	Payload          map[string]string `json:"payload"`
	Destructive      bool              `json:"destructive"`
	AllowDestructive bool              `json:"allow_destructive"`
	MaxRetries       int               `json:"max_retries"`
	Attempt          int               `json:"attempt"`
	EnqueuedAt       time.Time         `json:"enqueued_at"`
}
