// Package analyzer implements LLMAnalyzer (C5): the four-step pipeline
// that turns a set of ContentItems into ordered AnalysisResults —
// snapshot, prompt assembly, batching, bounded-parallel batch dispatch.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/newsbot/cryptonews/internal/domain/entity"
	"github.com/newsbot/cryptonews/internal/domain/service"
	"github.com/newsbot/cryptonews/pkg/safego"
	"go.uber.org/zap"
)

// Analyzer is the concrete LLMAnalyzer implementation.
type Analyzer struct {
	snapshots  service.MarketSnapshotService
	prompts    service.PromptAssembler
	structured service.StructuredOutputClient
	categories service.CategoryRegistry

	batchSize   int
	parallelism int
	logger      *zap.Logger
}

var _ service.LLMAnalyzer = (*Analyzer)(nil)

// New constructs an Analyzer batching input into groups of batchSize,
// dispatched with bounded parallelism.
func New(snapshots service.MarketSnapshotService, prompts service.PromptAssembler, structured service.StructuredOutputClient, categories service.CategoryRegistry, batchSize, parallelism int, logger *zap.Logger) *Analyzer {
	if batchSize <= 0 {
		batchSize = 10
	}
	if parallelism <= 0 {
		parallelism = 2
	}
	return &Analyzer{
		snapshots:   snapshots,
		prompts:     prompts,
		structured:  structured,
		categories:  categories,
		batchSize:   batchSize,
		parallelism: parallelism,
		logger:      logger.With(zap.String("component", "analyzer")),
	}
}

// batchItem is the JSON shape sent to the LLM per item, per spec.md §4.5.
type batchItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	URL         string `json:"url"`
	PublishTime string `json:"publish_time"`
	SourceName  string `json:"source_name"`
	SourceType  string `json:"source_type"`
}

// Analyze runs the four-step pipeline. Empty input makes no LLM calls.
func (a *Analyzer) Analyze(ctx context.Context, items []entity.ContentItem) ([]entity.AnalysisResult, error) {
	if len(items) == 0 {
		return nil, nil
	}

	snap := a.snapshots.Get(ctx, true)
	systemPrompt, err := a.prompts.Assemble(snap)
	if err != nil {
		return nil, fmt.Errorf("assemble analysis prompt: %w", err)
	}

	batches := a.splitBatches(items)

	results := make([][]entity.AnalysisResult, len(batches))
	sem := make(chan struct{}, a.parallelism)
	var wg sync.WaitGroup
	for i, batch := range batches {
		if ctx.Err() != nil {
			break
		}
		i, batch := i, batch
		wg.Add(1)
		sem <- struct{}{}
		safego.Go(a.logger, fmt.Sprintf("analyzer-batch-%d", i), func() {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = a.runBatch(ctx, systemPrompt, batch)
		})
	}
	wg.Wait()

	var merged []entity.AnalysisResult
	for _, r := range results {
		merged = append(merged, r...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].WeightScore != merged[j].WeightScore {
			return merged[i].WeightScore > merged[j].WeightScore
		}
		if merged[i].Time != merged[j].Time {
			return merged[i].Time > merged[j].Time
		}
		return merged[i].SourceItemID < merged[j].SourceItemID
	})

	return merged, nil
}

func (a *Analyzer) splitBatches(items []entity.ContentItem) [][]entity.ContentItem {
	var batches [][]entity.ContentItem
	for start := 0; start < len(items); start += a.batchSize {
		end := start + a.batchSize
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}

// runBatch dispatches one batch to the StructuredOutputClient and applies
// the anti-hallucination / score-clipping / category-registration
// post-processing. A failed batch is logged and skipped, not propagated.
func (a *Analyzer) runBatch(ctx context.Context, systemPrompt string, batch []entity.ContentItem) []entity.AnalysisResult {
	urls := make(map[string]bool, len(batch))
	payload := make([]batchItem, 0, len(batch))
	for _, item := range batch {
		urls[item.URL] = true
		payload = append(payload, batchItem{
			ID:          item.ID,
			Title:       item.Title,
			Content:     item.Content,
			URL:         item.URL,
			PublishTime: item.PublishTime.Format("2006-01-02T15:04:05Z07:00"),
			SourceName:  item.SourceName,
			SourceType:  string(item.SourceType),
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		a.logger.Error("marshal batch payload", zap.Error(err))
		return nil
	}
	userPrompt := string(body)

	result, err := a.structured.Analyze(ctx, systemPrompt, userPrompt)
	if err != nil {
		a.logger.Warn("batch analysis failed, skipping batch", zap.Error(err), zap.Int("batch_size", len(batch)))
		return nil
	}

	urlToID := make(map[string]string, len(batch))
	for _, item := range batch {
		urlToID[item.URL] = item.ID
	}

	out := make([]entity.AnalysisResult, 0, len(result.Results))
	for _, row := range result.Results {
		if !urls[row.Source] {
			a.logger.Warn("dropping hallucinated result", zap.String("source", row.Source))
			continue
		}
		if row.Category == "" {
			continue
		}
		a.categories.RecordSeen(row.Category)
		if row.Category == entity.CategoryIgnored {
			continue
		}
		out = append(out, entity.AnalysisResult{
			Time:         row.Time,
			Category:     row.Category,
			WeightScore:  entity.ClipScore(row.WeightScore),
			Summary:      row.Summary,
			Source:       row.Source,
			SourceItemID: urlToID[row.Source],
		})
	}
	return out
}
