// Package scheduler implements Scheduler (C10): a fixed-interval ticker
// loop that triggers ExecutionController, adapted from the teacher's
// cron-job ticker loop but simplified to a single fixed interval.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/newsbot/cryptonews/internal/domain/entity"
	"github.com/newsbot/cryptonews/internal/domain/service"
	"github.com/newsbot/cryptonews/pkg/safego"
)

// Scheduler ticks every interval and triggers controller with
// reason=scheduled. A busy controller's rejection is logged, not
// retried; Stop never cancels an active run.
type Scheduler struct {
	controller   service.ExecutionController
	interval     time.Duration
	immediate    bool
	logger       *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New constructs a Scheduler triggering controller every interval,
// optionally performing an immediate first trigger on Start.
func New(controller service.ExecutionController, interval time.Duration, immediate bool, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		controller: controller,
		interval:   interval,
		immediate:  immediate,
		logger:     logger.With(zap.String("component", "scheduler")),
	}
}

// Start begins the ticker loop in a background goroutine.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	safego.Go(s.logger, "scheduler-loop", func() { s.loop(ctx) })
}

// Stop halts future triggers; it does not cancel the currently active run.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Scheduler) loop(ctx context.Context) {
	if s.immediate {
		s.trigger()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.trigger()
		}
	}
}

func (s *Scheduler) trigger() {
	outcome := s.controller.Trigger(entity.TriggerScheduled)
	if outcome.Busy {
		s.logger.Warn("scheduled trigger rejected, prior run still active")
		return
	}
	s.logger.Info("scheduled run triggered", zap.String("run_id", outcome.RunID))
}
