package llm

import (
	"context"
	"fmt"

	"github.com/newsbot/cryptonews/internal/domain/service"
)

// BreakerClient wraps an LLMClient with a CircuitBreaker: once a
// provider has failed failureThreshold times in a row, further calls
// are rejected locally (without a network round trip) until the
// recovery timeout elapses and a single probe call is allowed through.
type BreakerClient struct {
	client  service.LLMClient
	breaker *CircuitBreaker
	name    string
}

var _ service.LLMClient = (*BreakerClient)(nil)

// NewBreakerClient wraps client with breaker; name labels the provider in
// the error returned while the circuit is open.
func NewBreakerClient(name string, client service.LLMClient, breaker *CircuitBreaker) *BreakerClient {
	return &BreakerClient{client: client, breaker: breaker, name: name}
}

// Generate proxies to the wrapped client unless the circuit is open.
func (b *BreakerClient) Generate(ctx context.Context, req *service.LLMRequest) (*service.LLMResponse, error) {
	if !b.breaker.Allow() {
		return nil, fmt.Errorf("circuit breaker open for provider %s", b.name)
	}

	resp, err := b.client.Generate(ctx, req)
	if err != nil {
		b.breaker.RecordFailure()
		return nil, err
	}

	b.breaker.RecordSuccess()
	return resp, nil
}
