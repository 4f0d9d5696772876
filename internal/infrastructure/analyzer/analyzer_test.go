package analyzer

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/newsbot/cryptonews/internal/domain/entity"
	"github.com/newsbot/cryptonews/internal/domain/service"
)

type fakeSnapshots struct{}

func (fakeSnapshots) Get(ctx context.Context, useCached bool) entity.MarketSnapshot {
	return entity.FallbackSnapshot("no market context")
}

type fakePrompts struct{}

func (fakePrompts) Assemble(snapshot entity.MarketSnapshot) (string, error) {
	return "system prompt", nil
}

type fakeCategories struct {
	seen []string
}

func (f *fakeCategories) Lookup(key string) entity.CategoryDefinition { return entity.CategoryDefinition{Key: key} }
func (f *fakeCategories) AllOrdered() []entity.CategoryDefinition     { return nil }
func (f *fakeCategories) RecordSeen(key string)                       { f.seen = append(f.seen, key) }

// fakeStructured returns a canned BatchAnalysisResult per call, keyed by
// call order, or an error if configured for that call. Analyze is called
// from concurrent batch goroutines, so call bookkeeping is mutex-guarded.
type fakeStructured struct {
	mu      sync.Mutex
	batches []service.BatchAnalysisResult
	errs    []error
	calls   [][]string // user prompts passed in, for assertions
}

func (f *fakeStructured) Analyze(ctx context.Context, systemPrompt, userPrompt string) (service.BatchAnalysisResult, error) {
	f.mu.Lock()
	i := len(f.calls)
	f.calls = append(f.calls, []string{systemPrompt, userPrompt})
	f.mu.Unlock()

	if i < len(f.errs) && f.errs[i] != nil {
		return service.BatchAnalysisResult{}, f.errs[i]
	}
	if i < len(f.batches) {
		return f.batches[i], nil
	}
	return service.BatchAnalysisResult{}, nil
}

func item(t *testing.T, url string) entity.ContentItem {
	t.Helper()
	it, err := entity.NewContentItem("title", "content", url, time.Now().Add(-time.Minute), "src", entity.SourceRSS)
	require.NoError(t, err)
	return *it
}

func TestAnalyze_EmptyInputMakesNoCallsAndReturnsNil(t *testing.T) {
	structured := &fakeStructured{}
	a := New(fakeSnapshots{}, fakePrompts{}, structured, &fakeCategories{}, 10, 2, zap.NewNop())

	results, err := a.Analyze(context.Background(), nil)
	require.NoError(t, err)
	require.Nil(t, results)
	require.Empty(t, structured.calls)
}

func TestAnalyze_SplitsIntoBatchesOfConfiguredSize(t *testing.T) {
	items := make([]entity.ContentItem, 5)
	for i := range items {
		items[i] = item(t, fmt.Sprintf("https://a.example/%d", i))
	}
	structured := &fakeStructured{}
	a := New(fakeSnapshots{}, fakePrompts{}, structured, &fakeCategories{}, 2, 4, zap.NewNop())

	_, err := a.Analyze(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, structured.calls, 3, "5 items at batch size 2 makes 3 batches")
}

func TestAnalyze_DropsResultWhoseSourceWasNotInTheBatch(t *testing.T) {
	it := item(t, "https://a.example/real")
	structured := &fakeStructured{batches: []service.BatchAnalysisResult{{
		Results: []service.BatchAnalysisRow{
			{Time: "t", Category: "Truth", WeightScore: 50, Summary: "s", Source: "https://a.example/real"},
			{Time: "t", Category: "Truth", WeightScore: 50, Summary: "hallucinated", Source: "https://a.example/fake"},
		},
	}}}
	a := New(fakeSnapshots{}, fakePrompts{}, structured, &fakeCategories{}, 10, 2, zap.NewNop())

	results, err := a.Analyze(context.Background(), []entity.ContentItem{it})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "https://a.example/real", results[0].Source)
}

func TestAnalyze_DropsIgnoredCategoryButStillRecordsSeen(t *testing.T) {
	it := item(t, "https://a.example/1")
	structured := &fakeStructured{batches: []service.BatchAnalysisResult{{
		Results: []service.BatchAnalysisRow{
			{Time: "t", Category: entity.CategoryIgnored, WeightScore: 10, Summary: "noise", Source: "https://a.example/1"},
		},
	}}}
	categories := &fakeCategories{}
	a := New(fakeSnapshots{}, fakePrompts{}, structured, categories, 10, 2, zap.NewNop())

	results, err := a.Analyze(context.Background(), []entity.ContentItem{it})
	require.NoError(t, err)
	require.Empty(t, results)
	require.Contains(t, categories.seen, entity.CategoryIgnored)
}

func TestAnalyze_ClipsOutOfRangeScores(t *testing.T) {
	it := item(t, "https://a.example/1")
	structured := &fakeStructured{batches: []service.BatchAnalysisResult{{
		Results: []service.BatchAnalysisRow{
			{Time: "t", Category: "Truth", WeightScore: 150, Summary: "s", Source: "https://a.example/1"},
		},
	}}}
	a := New(fakeSnapshots{}, fakePrompts{}, structured, &fakeCategories{}, 10, 2, zap.NewNop())

	results, err := a.Analyze(context.Background(), []entity.ContentItem{it})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, 100, results[0].WeightScore)
}

func TestAnalyze_ResultsAreSortedByScoreDescThenTimeDescThenIDAsc(t *testing.T) {
	items := []entity.ContentItem{item(t, "https://a.example/1"), item(t, "https://a.example/2")}
	structured := &fakeStructured{batches: []service.BatchAnalysisResult{{
		Results: []service.BatchAnalysisRow{
			{Time: "2026-01-01T00:00:00Z", Category: "Truth", WeightScore: 20, Summary: "low", Source: items[0].URL},
			{Time: "2026-01-02T00:00:00Z", Category: "Truth", WeightScore: 90, Summary: "high", Source: items[1].URL},
		},
	}}}
	a := New(fakeSnapshots{}, fakePrompts{}, structured, &fakeCategories{}, 10, 2, zap.NewNop())

	results, err := a.Analyze(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "high", results[0].Summary)
	require.Equal(t, "low", results[1].Summary)
}

func TestAnalyze_FailedBatchIsSkippedNotPropagated(t *testing.T) {
	items := make([]entity.ContentItem, 4)
	for i := range items {
		items[i] = item(t, fmt.Sprintf("https://a.example/%d", i))
	}
	structured := &fakeStructured{
		errs: []error{fmt.Errorf("boom"), nil},
		batches: []service.BatchAnalysisResult{
			{},
			{Results: []service.BatchAnalysisRow{
				{Time: "t", Category: "Truth", WeightScore: 50, Summary: "s", Source: items[2].URL},
			}},
		},
	}
	a := New(fakeSnapshots{}, fakePrompts{}, structured, &fakeCategories{}, 2, 1, zap.NewNop())

	results, err := a.Analyze(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, items[2].URL, results[0].Source)
}
