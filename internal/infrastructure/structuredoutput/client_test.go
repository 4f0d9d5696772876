package structuredoutput

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/newsbot/cryptonews/internal/domain/service"
)

type statusErr struct {
	code int
}

func (e *statusErr) Error() string   { return "status error" }
func (e *statusErr) StatusCode() int { return e.code }

type fakeClient struct {
	responses []*service.LLMResponse
	errs      []error
	calls     int
}

func (f *fakeClient) Generate(ctx context.Context, req *service.LLMRequest) (*service.LLMResponse, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return f.responses[len(f.responses)-1], nil
}

const validSchemaJSON = `{"results":[{"time":"2026-07-30T00:00:00Z","category":"Truth","weight_score":80,"summary":"s","source":"https://a.example/1"}]}`

func TestAnalyze_HappyPathReturnsValidatedResult(t *testing.T) {
	client := &fakeClient{responses: []*service.LLMResponse{{Content: validSchemaJSON}}}
	c := NewClient(client, "test-model", 1_000_000, zap.NewNop())

	result, err := c.Analyze(context.Background(), "system", "user")
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	require.Equal(t, "Truth", result.Results[0].Category)
	require.Equal(t, 1, client.calls)
}

func TestAnalyze_StripsThinkBlockBeforeParsing(t *testing.T) {
	client := &fakeClient{responses: []*service.LLMResponse{{Content: "<think>reasoning...</think>" + validSchemaJSON}}}
	c := NewClient(client, "test-model", 1_000_000, zap.NewNop())

	result, err := c.Analyze(context.Background(), "system", "user")
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
}

func TestAnalyze_ContextOverflowFailsWithoutCallingClient(t *testing.T) {
	client := &fakeClient{responses: []*service.LLMResponse{{Content: validSchemaJSON}}}
	c := NewClient(client, "test-model", 1, zap.NewNop())

	_, err := c.Analyze(context.Background(), "a very long system prompt that will not fit", "and an equally long user prompt")
	require.Error(t, err)
	var af *service.AnalysisFailed
	require.ErrorAs(t, err, &af)
	require.Equal(t, service.AnalysisFailedContextOverflow, af.Kind)
	require.Equal(t, 0, client.calls)
}

func TestAnalyze_NonRetryableErrorFailsImmediately(t *testing.T) {
	client := &fakeClient{errs: []error{errors.New("boom")}}
	c := NewClient(client, "test-model", 1_000_000, zap.NewNop())

	_, err := c.Analyze(context.Background(), "system", "user")
	require.Error(t, err)
	var af *service.AnalysisFailed
	require.ErrorAs(t, err, &af)
	require.Equal(t, service.AnalysisFailedTransient, af.Kind)
	require.Equal(t, 1, client.calls, "a non-StatusCoder error must not be retried")
}

func TestAnalyze_RateLimitedStatusClassifiedAndRetried(t *testing.T) {
	client := &fakeClient{
		errs:      []error{&statusErr{code: 429}, &statusErr{code: 429}, &statusErr{code: 429}},
		responses: []*service.LLMResponse{{}},
	}
	c := NewClient(client, "test-model", 1_000_000, zap.NewNop())

	_, err := c.Analyze(context.Background(), "system", "user")
	require.Error(t, err)
	var af *service.AnalysisFailed
	require.ErrorAs(t, err, &af)
	require.Equal(t, service.AnalysisFailedRateLimited, af.Kind)
	require.Equal(t, 3, client.calls, "must retry exactly maxAttempts times before giving up")
}

func TestAnalyze_RetryableStatusSucceedsOnSecondAttempt(t *testing.T) {
	client := &fakeClient{
		errs:      []error{&statusErr{code: 503}},
		responses: []*service.LLMResponse{nil, {Content: validSchemaJSON}},
	}
	c := NewClient(client, "test-model", 1_000_000, zap.NewNop())

	result, err := c.Analyze(context.Background(), "system", "user")
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	require.Equal(t, 2, client.calls)
}

func TestAnalyze_RepairsOnceThenFailsOnPersistentMalformedResponse(t *testing.T) {
	client := &fakeClient{responses: []*service.LLMResponse{
		{Content: "not json at all"},
		{Content: "still not json"},
	}}
	c := NewClient(client, "test-model", 1_000_000, zap.NewNop())

	_, err := c.Analyze(context.Background(), "system", "user")
	require.Error(t, err)
	var af *service.AnalysisFailed
	require.ErrorAs(t, err, &af)
	require.Equal(t, service.AnalysisFailedSchemaInvalid, af.Kind)
	require.Equal(t, 2, client.calls, "must attempt once, repair-prompt once, then give up")
}

func TestAnalyze_RecoversAfterOneMalformedResponse(t *testing.T) {
	client := &fakeClient{responses: []*service.LLMResponse{
		{Content: "garbage"},
		{Content: validSchemaJSON},
	}}
	c := NewClient(client, "test-model", 1_000_000, zap.NewNop())

	result, err := c.Analyze(context.Background(), "system", "user")
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	require.Equal(t, 2, client.calls)
}

func TestAnalyze_RejectsResultRowWithEmptyCategory(t *testing.T) {
	client := &fakeClient{responses: []*service.LLMResponse{
		{Content: `{"results":[{"time":"t","category":"","weight_score":1,"summary":"s","source":"u"}]}`},
	}}
	c := NewClient(client, "test-model", 1_000_000, zap.NewNop())

	_, err := c.Analyze(context.Background(), "system", "user")
	require.Error(t, err)
}
