package service

import (
	"context"

	"github.com/newsbot/cryptonews/internal/domain/entity"
)

// LLMAnalyzer orchestrates the four-step analysis pipeline: snapshot,
// prompt assembly, batching, and bounded-parallel batch dispatch. Empty
// input returns empty output without making any LLM calls. Output is
// sorted by (weight_score desc, publish_time desc, source_item_id asc).
type LLMAnalyzer interface {
	Analyze(ctx context.Context, items []entity.ContentItem) ([]entity.AnalysisResult, error)
}
