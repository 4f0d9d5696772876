// Package runner implements PipelineRunner (C11): the nine-step
// per-run procedure ExecutionController's worker executes.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/newsbot/cryptonews/internal/domain/entity"
	"github.com/newsbot/cryptonews/internal/domain/service"
)

// Runner is the concrete PipelineRunner implementation.
type Runner struct {
	fetchers   []service.ContentFetcher
	repo       service.Repository
	analyzer   service.LLMAnalyzer
	renderer   service.ReportRenderer
	categories service.CategoryRegistry
	delivery   service.TelegramDelivery
	chatID     int64
	window     time.Duration
	logger     *zap.Logger
}

var _ service.PipelineRunner = (*Runner)(nil)

// New constructs a Runner fetching a window-wide lookback across
// fetchers, delivering its rendered report to chatID.
func New(fetchers []service.ContentFetcher, repo service.Repository, analyzer service.LLMAnalyzer, renderer service.ReportRenderer, categories service.CategoryRegistry, delivery service.TelegramDelivery, chatID int64, window time.Duration, logger *zap.Logger) *Runner {
	return &Runner{
		fetchers:   fetchers,
		repo:       repo,
		analyzer:   analyzer,
		renderer:   renderer,
		categories: categories,
		delivery:   delivery,
		chatID:     chatID,
		window:     window,
		logger:     logger.With(zap.String("component", "pipeline_runner")),
	}
}

// Run executes one pass of the pipeline, mutating run's counts in place.
// Cancellation is checked after fetching, before analysis, before
// render, and before delivery.
func (r *Runner) Run(ctx context.Context, run *entity.RunRecord) error {
	now := time.Now().UTC()
	window := service.TimeWindow{Start: now.Add(-r.window), End: now}

	items := r.fetchAll(ctx, window)
	run.Counts.Fetched = len(items)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if err := r.repo.UpsertItems(ctx, items); err != nil {
		return fmt.Errorf("upsert items: %w", err)
	}

	unanalyzed, err := r.repo.ListUnanalyzedItems(ctx, window)
	if err != nil {
		return fmt.Errorf("list unanalyzed items: %w", err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	results, err := r.analyzer.Analyze(ctx, unanalyzed)
	if err != nil {
		return fmt.Errorf("analyze items: %w", err)
	}
	run.Counts.Analyzed = len(results)

	if err := r.repo.StoreResults(ctx, results); err != nil {
		return fmt.Errorf("store results: %w", err)
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	report := r.renderer.Render(results, r.categories.AllOrdered())

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if report == "" {
		return nil
	}

	outcome, err := r.delivery.Deliver(ctx, report, r.chatID)
	run.Counts.Delivered = outcome.ChunksSent
	run.Counts.PartialDelivery = outcome.PartialDelivery
	if err != nil {
		return fmt.Errorf("deliver report: %w", err)
	}

	return nil
}

// fetchAll runs every fetcher with bounded parallelism (one goroutine
// per fetcher; the fetcher count is expected to be small). A fetcher
// failure is logged and contributes zero items; it never aborts the run.
func (r *Runner) fetchAll(ctx context.Context, window service.TimeWindow) []entity.ContentItem {
	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		items []entity.ContentItem
		seen  = make(map[string]bool)
	)

	for _, f := range r.fetchers {
		f := f
		wg.Add(1)
		go func() {
			defer wg.Done()
			fetched, err := f.Fetch(ctx, window)
			if err != nil {
				r.logger.Warn("fetcher failed, contributing zero items", zap.String("fetcher", f.Name()), zap.Error(err))
				return
			}
			mu.Lock()
			defer mu.Unlock()
			for _, item := range fetched {
				if seen[item.ID] {
					continue
				}
				seen[item.ID] = true
				items = append(items, item)
			}
		}()
	}
	wg.Wait()

	return items
}
