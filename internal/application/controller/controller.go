// Package controller implements ExecutionController (C9): single-node
// mutual exclusion over pipeline runs via one mutex and a watchdog
// timeout, with no queueing — a busy controller rejects immediately.
package controller

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/newsbot/cryptonews/internal/domain/entity"
	"github.com/newsbot/cryptonews/internal/domain/service"
	"github.com/newsbot/cryptonews/pkg/safego"
)

// state is the controller's internal lifecycle state, distinct from
// entity.RunState so "idle" (no run at all) is representable.
type state string

const (
	stateIdle    state = "idle"
	statePending state = "pending"
	stateRunning state = "running"
)

// Controller is the concrete ExecutionController implementation.
type Controller struct {
	runner  service.PipelineRunner
	repo    service.Repository
	timeout time.Duration
	logger  *zap.Logger

	mu         sync.Mutex
	state      state
	latestRun  entity.RunRecord
	cancelFunc context.CancelFunc
}

var _ service.ExecutionController = (*Controller)(nil)

// New constructs a Controller whose runs are watchdogged at timeout.
// Every RunRecord, from acceptance through terminal state, is persisted
// via repo so /history and /status survive a process restart.
func New(runner service.PipelineRunner, repo service.Repository, timeout time.Duration, logger *zap.Logger) *Controller {
	return &Controller{
		runner:  runner,
		repo:    repo,
		timeout: timeout,
		state:   stateIdle,
		logger:  logger.With(zap.String("component", "execution_controller")),
	}
}

// Trigger starts a run if idle; otherwise returns Busy=true immediately.
func (c *Controller) Trigger(reason entity.TriggerReason) service.TriggerOutcome {
	c.mu.Lock()
	if c.state != stateIdle {
		c.mu.Unlock()
		return service.TriggerOutcome{Busy: true}
	}

	runID := ulid.Make().String()
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)

	run := entity.RunRecord{
		RunID:     runID,
		Trigger:   reason,
		StartedAt: time.Now().UTC(),
		State:     entity.RunPending,
	}
	c.state = statePending
	c.latestRun = run
	c.cancelFunc = cancel
	c.mu.Unlock()

	if err := c.repo.SaveRun(context.Background(), run); err != nil {
		c.logger.Warn("failed to persist pending run", zap.String("run_id", runID), zap.Error(err))
	}

	safego.Go(c.logger, "pipeline-run-"+runID, func() {
		c.execute(ctx, run)
	})

	return service.TriggerOutcome{Accepted: true, RunID: runID}
}

func (c *Controller) execute(ctx context.Context, run entity.RunRecord) {
	c.mu.Lock()
	run.State = entity.RunRunning
	c.state = stateRunning
	c.latestRun = run
	c.mu.Unlock()

	err := c.runner.Run(ctx, &run)

	finishedAt := time.Now().UTC()
	run.FinishedAt = &finishedAt

	switch {
	case ctx.Err() == context.DeadlineExceeded:
		run.State = entity.RunTimedOut
		run.Error = "timed_out"
	case ctx.Err() == context.Canceled:
		run.State = entity.RunCancelled
		run.Error = "cancelled"
	case err != nil:
		run.State = entity.RunFailed
		run.Error = err.Error()
	default:
		run.State = entity.RunSucceeded
	}

	c.mu.Lock()
	c.latestRun = run
	c.state = stateIdle
	c.cancelFunc = nil
	c.mu.Unlock()

	if err := c.repo.SaveRun(context.Background(), run); err != nil {
		c.logger.Warn("failed to persist finished run", zap.String("run_id", run.RunID), zap.Error(err))
	}
}

// Cancel signals cancellation of the active run, if any.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelFunc == nil {
		return false
	}
	c.cancelFunc()
	return true
}

// Status returns a snapshot of the latest RunRecord and is safe for
// concurrent callers.
func (c *Controller) Status() entity.RunRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latestRun
}
