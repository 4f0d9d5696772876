package service

import (
	"context"
	"fmt"
)

// BatchAnalysisRow is one element of a StructuredOutputClient response,
// mirroring spec's BatchAnalysisResult.results[i] shape.
type BatchAnalysisRow struct {
	Time        string `json:"time"`
	Category    string `json:"category"`
	WeightScore int    `json:"weight_score"`
	Summary     string `json:"summary"`
	Source      string `json:"source"`
}

// BatchAnalysisResult is the JSON-schema-bound response shape C4 enforces.
type BatchAnalysisResult struct {
	Results []BatchAnalysisRow `json:"results"`
}

// AnalysisFailedKind enumerates why a StructuredOutputClient call could
// not produce a usable result.
type AnalysisFailedKind string

const (
	AnalysisFailedRateLimited     AnalysisFailedKind = "rate_limited"
	AnalysisFailedSchemaInvalid   AnalysisFailedKind = "schema_invalid"
	AnalysisFailedContextOverflow AnalysisFailedKind = "context_overflow"
	AnalysisFailedTransient       AnalysisFailedKind = "transient_network"
)

// AnalysisFailed is the typed outcome returned by StructuredOutputClient
// when a batch could not be analyzed after all retries were exhausted.
type AnalysisFailed struct {
	Kind AnalysisFailedKind
	Err  error
}

func (e *AnalysisFailed) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("analysis failed (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("analysis failed (%s)", e.Kind)
}

func (e *AnalysisFailed) Unwrap() error { return e.Err }

// StructuredOutputClient calls a chat LLM with a JSON-schema-bound
// request and returns a validated BatchAnalysisResult.
type StructuredOutputClient interface {
	Analyze(ctx context.Context, systemPrompt, userPrompt string) (BatchAnalysisResult, error)
}
