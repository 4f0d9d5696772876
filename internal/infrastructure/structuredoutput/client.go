// Package structuredoutput implements StructuredOutputClient (C4): a
// JSON-schema-bound chat completion call with response repair, retry on
// transient failure, and token budgeting.
package structuredoutput

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/newsbot/cryptonews/internal/domain/service"
	"github.com/newsbot/cryptonews/internal/infrastructure/llm"
	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"
)

// resultSchema is the JSON schema BatchAnalysisResult must satisfy.
var resultSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"results": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"time":         map[string]interface{}{"type": "string"},
					"category":     map[string]interface{}{"type": "string"},
					"weight_score": map[string]interface{}{"type": "integer"},
					"summary":      map[string]interface{}{"type": "string"},
					"source":       map[string]interface{}{"type": "string"},
				},
				"required": []string{"time", "category", "weight_score", "summary", "source"},
			},
		},
	},
	"required": []string{"results"},
}

// Client is the concrete StructuredOutputClient implementation.
type Client struct {
	llmClient     service.LLMClient
	model         string
	contextTokens int
	maxAttempts   int
	logger        *zap.Logger
	encoding      *tiktoken.Tiktoken
}

var _ service.StructuredOutputClient = (*Client)(nil)

// NewClient constructs a Client calling llmClient with model, budgeting
// against a model context window of contextTokens tokens.
func NewClient(llmClient service.LLMClient, model string, contextTokens int, logger *zap.Logger) *Client {
	enc, _ := tiktoken.GetEncoding("cl100k_base")
	return &Client{
		llmClient:     llmClient,
		model:         model,
		contextTokens: contextTokens,
		maxAttempts:   3,
		logger:        logger.With(zap.String("component", "structured_output")),
		encoding:      enc,
	}
}

const maxResponseTokens = 4096

// Analyze sends systemPrompt+userPrompt through the LLM constrained to
// resultSchema, retrying on transient/rate-limited failure and once on a
// malformed response (echoing the validation error back to the model).
func (c *Client) Analyze(ctx context.Context, systemPrompt, userPrompt string) (service.BatchAnalysisResult, error) {
	if err := c.checkContextBudget(systemPrompt, userPrompt); err != nil {
		return service.BatchAnalysisResult{}, err
	}

	messages := []service.LLMMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	}

	var lastErr error
	repaired := false
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			jitter := time.Duration(rand.Int63n(int64(backoff)/2 + 1))
			select {
			case <-time.After(backoff + jitter):
			case <-ctx.Done():
				return service.BatchAnalysisResult{}, ctx.Err()
			}
		}

		resp, err := c.llmClient.Generate(ctx, &service.LLMRequest{
			Model:      c.model,
			Messages:   messages,
			MaxTokens:  maxResponseTokens,
			JSONSchema: resultSchema,
		})
		if err != nil {
			lastErr = err
			if llm.IsRateLimitedStatus(err) {
				lastErr = &service.AnalysisFailed{Kind: service.AnalysisFailedRateLimited, Err: err}
				continue
			}
			if llm.IsRetryableStatus(err) {
				lastErr = &service.AnalysisFailed{Kind: service.AnalysisFailedTransient, Err: err}
				continue
			}
			return service.BatchAnalysisResult{}, &service.AnalysisFailed{Kind: service.AnalysisFailedTransient, Err: err}
		}

		result, parseErr := parseResult(resp.Content)
		if parseErr == nil {
			return result, nil
		}

		c.logger.Warn("structured output failed validation", zap.Error(parseErr), zap.Bool("repair_attempted", repaired))
		if repaired {
			return service.BatchAnalysisResult{}, &service.AnalysisFailed{Kind: service.AnalysisFailedSchemaInvalid, Err: parseErr}
		}

		repaired = true
		messages = append(messages,
			service.LLMMessage{Role: "assistant", Content: resp.Content},
			service.LLMMessage{Role: "user", Content: fmt.Sprintf("Your previous response did not match the required schema: %v. Reply again with ONLY a JSON object matching the schema.", parseErr)},
		)
		lastErr = &service.AnalysisFailed{Kind: service.AnalysisFailedSchemaInvalid, Err: parseErr}
	}

	return service.BatchAnalysisResult{}, lastErr
}

func (c *Client) checkContextBudget(systemPrompt, userPrompt string) error {
	if c.encoding == nil || c.contextTokens <= 0 {
		return nil
	}
	used := len(c.encoding.Encode(systemPrompt, nil, nil)) + len(c.encoding.Encode(userPrompt, nil, nil))
	if used+maxResponseTokens > c.contextTokens {
		return &service.AnalysisFailed{
			Kind: service.AnalysisFailedContextOverflow,
			Err:  fmt.Errorf("prompt is %d tokens, exceeds budget of %d tokens after reserving %d for response", used, c.contextTokens, maxResponseTokens),
		}
	}
	return nil
}

// parseResult strips a leading <think>...</think> block if present,
// extracts the first balanced top-level JSON object, and unmarshals it
// into a BatchAnalysisResult.
func parseResult(content string) (service.BatchAnalysisResult, error) {
	content = stripThinkBlock(content)
	jsonStr, err := extractFirstJSONObject(content)
	if err != nil {
		return service.BatchAnalysisResult{}, err
	}

	var result service.BatchAnalysisResult
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return service.BatchAnalysisResult{}, fmt.Errorf("unmarshal batch analysis result: %w", err)
	}
	for i, row := range result.Results {
		if row.Category == "" {
			return service.BatchAnalysisResult{}, fmt.Errorf("result[%d] has empty category", i)
		}
	}
	return result, nil
}

func stripThinkBlock(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "<think>") {
		return content
	}
	end := strings.Index(content, "</think>")
	if end == -1 {
		return content
	}
	return strings.TrimSpace(content[end+len("</think>"):])
}

// extractFirstJSONObject scans content for the first balanced {...}
// span, tolerating braces embedded in string literals.
func extractFirstJSONObject(content string) (string, error) {
	start := strings.IndexByte(content, '{')
	if start == -1 {
		return "", fmt.Errorf("no JSON object found in response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		ch := content[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
			// skip
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return content[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unbalanced JSON object in response")
}
