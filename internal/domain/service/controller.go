package service

import (
	"context"

	"github.com/newsbot/cryptonews/internal/domain/entity"
)

// TriggerOutcome is ExecutionController.Trigger's immediate, non-blocking
// reply: either the run was accepted (and assigned a RunID), or it was
// rejected because a run is already pending/running.
type TriggerOutcome struct {
	Accepted bool
	RunID    string
	Busy     bool
}

// ExecutionController enforces single-node mutual exclusion over
// pipeline runs: idle -> pending -> running -> (succeeded|failed|
// timed_out|cancelled) -> idle. All transitions occur under one mutex;
// Trigger never blocks or queues.
type ExecutionController interface {
	// Trigger starts a run if idle; otherwise returns Busy=true
	// immediately without queueing.
	Trigger(reason entity.TriggerReason) TriggerOutcome

	// Cancel signals cancellation of the active run, if any. Returns
	// false if no run is currently active.
	Cancel() bool

	// Status returns a snapshot of the latest RunRecord (including a
	// completed one) and is safe for concurrent callers.
	Status() entity.RunRecord
}

// PipelineRunner is the per-run procedure ExecutionController's worker
// invokes: fetch, dedup, analyze, persist, render, deliver.
type PipelineRunner interface {
	Run(ctx context.Context, run *entity.RunRecord) error
}
