package service

import "github.com/newsbot/cryptonews/internal/domain/entity"

// ReportRenderer formats analysis results into sectioned Markdown. A pure
// function of its inputs: no I/O, no hidden state.
type ReportRenderer interface {
	Render(results []entity.AnalysisResult, categories []entity.CategoryDefinition) string
}
