// Package snapshot implements MarketSnapshotService (C3): a TTL-cached,
// single-flighted call to a web-browsing LLM for a live market brief that
// never surfaces failure to its caller — a degraded fallback snapshot is
// returned instead once retries are exhausted.
package snapshot

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/newsbot/cryptonews/internal/domain/entity"
	"github.com/newsbot/cryptonews/internal/domain/service"
	"go.uber.org/zap"
)

const fallbackBody = "Market snapshot unavailable; proceeding with no live market context."

// Service is the concrete MarketSnapshotService implementation.
type Service struct {
	client      service.LLMClient
	model       string
	ttl         time.Duration
	maxAttempts int
	logger      *zap.Logger

	mu        sync.Mutex
	cached    entity.MarketSnapshot
	cachedAt  time.Time
	inflight  *sync.WaitGroup // non-nil while a refresh is in progress (single-flight)
	refreshed entity.MarketSnapshot
}

// NewService constructs a Service calling client with model, caching for ttl.
func NewService(client service.LLMClient, model string, ttl time.Duration, logger *zap.Logger) *Service {
	return &Service{
		client:      client,
		model:       model,
		ttl:         ttl,
		maxAttempts: 3,
		logger:      logger.With(zap.String("component", "market_snapshot")),
	}
}

var _ service.MarketSnapshotService = (*Service)(nil)

// Get returns the cached snapshot if useCached is true and it is still
// fresh; otherwise it refreshes (single-flighted across concurrent
// callers) and returns the new value. Never returns an error: on
// exhausted retries, it returns (and caches) a fallback snapshot.
func (s *Service) Get(ctx context.Context, useCached bool) entity.MarketSnapshot {
	s.mu.Lock()
	if useCached && !s.cachedAt.IsZero() && time.Since(s.cachedAt) < s.ttl {
		snap := s.cached
		s.mu.Unlock()
		return snap
	}

	if s.inflight != nil {
		wg := s.inflight
		s.mu.Unlock()
		wg.Wait()
		s.mu.Lock()
		snap := s.refreshed
		s.mu.Unlock()
		return snap
	}

	wg := &sync.WaitGroup{}
	wg.Add(1)
	s.inflight = wg
	s.mu.Unlock()

	snap := s.refresh(ctx)

	s.mu.Lock()
	s.cached = snap
	s.cachedAt = time.Now()
	s.refreshed = snap
	s.inflight = nil
	s.mu.Unlock()
	wg.Done()

	return snap
}

func (s *Service) refresh(ctx context.Context) entity.MarketSnapshot {
	var lastErr error
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			jitter := time.Duration(rand.Int63n(int64(backoff) / 2 + 1))
			select {
			case <-time.After(backoff + jitter):
			case <-ctx.Done():
				lastErr = ctx.Err()
				break
			}
		}

		resp, err := s.client.Generate(ctx, &service.LLMRequest{
			Model: s.model,
			Messages: []service.LLMMessage{
				{Role: "system", Content: "Summarize the current crypto market in 3-5 short sections. Cite sources with URLs where relevant."},
				{Role: "user", Content: "Provide today's market snapshot."},
			},
			EnableWebSearch: true,
			MaxTokens:       1024,
		})
		if err == nil && resp.Content != "" {
			return entity.MarketSnapshot{
				GeneratedAt: time.Now().UTC(),
				Body:        resp.Content,
				SourceModel: resp.ModelUsed,
				IsFallback:  false,
			}
		}
		lastErr = err
		s.logger.Warn("snapshot refresh attempt failed", zap.Int("attempt", attempt+1), zap.Error(err))
	}

	s.logger.Warn("snapshot refresh exhausted retries, using fallback", zap.Error(lastErr))
	return entity.FallbackSnapshot(fallbackBody)
}
