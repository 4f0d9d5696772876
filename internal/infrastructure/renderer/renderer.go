// Package renderer implements ReportRenderer (C6): a pure function from
// analysis results and category metadata to a sectioned Markdown report.
package renderer

import (
	"fmt"
	"strings"
	"time"

	"github.com/newsbot/cryptonews/internal/domain/entity"
	"github.com/newsbot/cryptonews/internal/domain/service"
)

// Renderer is the concrete ReportRenderer implementation.
type Renderer struct{}

var _ service.ReportRenderer = (*Renderer)(nil)

// New constructs a Renderer.
func New() *Renderer { return &Renderer{} }

// Render groups results by category and emits one section per category in
// registry order, skipping categories with no surviving results.
func (r *Renderer) Render(results []entity.AnalysisResult, categories []entity.CategoryDefinition) string {
	byCategory := make(map[string][]entity.AnalysisResult, len(categories))
	for _, res := range results {
		byCategory[res.Category] = append(byCategory[res.Category], res)
	}

	var b strings.Builder
	for _, def := range categories {
		items := byCategory[def.Key]
		if len(items) == 0 {
			continue
		}

		fmt.Fprintf(&b, "%s *%s* (%d条)\n\n", def.Emoji, def.DisplayName, len(items))
		for i, item := range items {
			fmt.Fprintf(&b, "%d. %s\n", i+1, item.Summary)
			fmt.Fprintf(&b, "%s | %d | [查看原文](%s)\n\n", formatTime(item.Time), item.WeightScore, item.Source)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// formatTime renders raw into "YYYY-MM-DD HH:MM", falling back to raw
// unmodified if it isn't a recognizable timestamp.
func formatTime(raw string) string {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02 15:04")
		}
	}
	return raw
}
