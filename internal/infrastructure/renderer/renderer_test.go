package renderer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/newsbot/cryptonews/internal/domain/entity"
)

func categories() []entity.CategoryDefinition {
	return []entity.CategoryDefinition{
		{Key: "Truth", DisplayName: "Truth", Emoji: "📰", OrderIndex: 0},
		{Key: "Narrative", DisplayName: "Narrative", Emoji: "📣", OrderIndex: 1},
		{Key: "Alpha", DisplayName: "Alpha", Emoji: "⚡", OrderIndex: 2},
	}
}

func TestRender_GroupsByRegistryOrderAndSkipsEmptySections(t *testing.T) {
	results := []entity.AnalysisResult{
		{Time: "2026-07-29T10:00:00Z", Category: "Alpha", WeightScore: 90, Summary: "alpha item", Source: "https://a.example/1"},
		{Time: "2026-07-29T09:00:00Z", Category: "Truth", WeightScore: 70, Summary: "truth item", Source: "https://a.example/2"},
	}

	out := New().Render(results, categories())

	truthIdx := strings.Index(out, "Truth")
	alphaIdx := strings.Index(out, "Alpha")
	require.True(t, truthIdx >= 0 && alphaIdx >= 0)
	require.Less(t, truthIdx, alphaIdx, "sections must follow registry order, not input order")
	require.NotContains(t, out, "Narrative", "empty categories must be skipped entirely")
}

func TestRender_EmptyResultsProducesEmptyString(t *testing.T) {
	out := New().Render(nil, categories())
	require.Empty(t, out)
}

func TestRender_NumbersEntriesWithinASection(t *testing.T) {
	results := []entity.AnalysisResult{
		{Time: "2026-07-29T10:00:00Z", Category: "Truth", WeightScore: 90, Summary: "first", Source: "https://a.example/1"},
		{Time: "2026-07-29T09:00:00Z", Category: "Truth", WeightScore: 70, Summary: "second", Source: "https://a.example/2"},
	}

	out := New().Render(results, categories())

	require.Contains(t, out, "1. first")
	require.Contains(t, out, "2. second")
}

func TestRender_FormatsRFC3339TimeAndLinksOriginalSource(t *testing.T) {
	results := []entity.AnalysisResult{
		{Time: "2026-07-29T10:30:00Z", Category: "Truth", WeightScore: 55, Summary: "s", Source: "https://a.example/x"},
	}

	out := New().Render(results, categories())

	require.Contains(t, out, "2026-07-29 10:30")
	require.Contains(t, out, "[查看原文](https://a.example/x)")
}

func TestFormatTime_FallsBackToRawOnUnrecognizedLayout(t *testing.T) {
	require.Equal(t, "not-a-time", formatTime("not-a-time"))
}
