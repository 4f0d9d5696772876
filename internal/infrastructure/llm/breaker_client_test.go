package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/newsbot/cryptonews/internal/domain/service"
)

type stubLLMClient struct {
	resp *service.LLMResponse
	err  error
}

func (s *stubLLMClient) Generate(ctx context.Context, req *service.LLMRequest) (*service.LLMResponse, error) {
	return s.resp, s.err
}

func TestBreakerClient_PassesThroughOnSuccess(t *testing.T) {
	stub := &stubLLMClient{resp: &service.LLMResponse{Content: "ok"}}
	bc := NewBreakerClient("test-provider", stub, NewCircuitBreaker(2, time.Minute))

	resp, err := bc.Generate(context.Background(), &service.LLMRequest{})
	require.NoError(t, err)
	require.Equal(t, "ok", resp.Content)
}

func TestBreakerClient_OpensAfterConsecutiveFailures(t *testing.T) {
	stub := &stubLLMClient{err: errors.New("provider error")}
	breaker := NewCircuitBreaker(2, time.Minute)
	bc := NewBreakerClient("test-provider", stub, breaker)

	_, err := bc.Generate(context.Background(), &service.LLMRequest{})
	require.Error(t, err)
	_, err = bc.Generate(context.Background(), &service.LLMRequest{})
	require.Error(t, err)
	require.Equal(t, CircuitOpen, breaker.State())

	_, err = bc.Generate(context.Background(), &service.LLMRequest{})
	require.ErrorContains(t, err, "circuit breaker open")
}

func TestBreakerClient_RecoversAfterTimeoutAndSuccessfulProbe(t *testing.T) {
	stub := &stubLLMClient{err: errors.New("down")}
	breaker := NewCircuitBreaker(1, 10*time.Millisecond)
	bc := NewBreakerClient("test-provider", stub, breaker)

	_, err := bc.Generate(context.Background(), &service.LLMRequest{})
	require.Error(t, err)
	require.Equal(t, CircuitOpen, breaker.State())

	time.Sleep(20 * time.Millisecond)
	stub.err = nil
	stub.resp = &service.LLMResponse{Content: "recovered"}

	resp, err := bc.Generate(context.Background(), &service.LLMRequest{})
	require.NoError(t, err)
	require.Equal(t, "recovered", resp.Content)
	require.Equal(t, CircuitClosed, breaker.State())
}
