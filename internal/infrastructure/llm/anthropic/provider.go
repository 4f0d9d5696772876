package anthropic

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/newsbot/cryptonews/internal/domain/service"
	llm "github.com/newsbot/cryptonews/internal/infrastructure/llm"
	"go.uber.org/zap"
)

const anthropicVersion = "2023-06-01"

// structuredOutputToolName is the forced tool call used to obtain a
// schema-constrained JSON payload from a provider with no native
// response_format support.
const structuredOutputToolName = "emit_batch_analysis_result"

func init() {
	llm.RegisterFactory("anthropic", func(cfg llm.ProviderConfig, logger *zap.Logger) llm.Provider {
		return New(cfg, logger)
	})
}

// Provider implements the Anthropic Messages API, non-streaming only.
type Provider struct {
	name    string
	baseURL string
	apiKey  string
	models  []string
	client  *http.Client
	logger  *zap.Logger
}

// New creates an Anthropic API provider.
func New(cfg llm.ProviderConfig, logger *zap.Logger) *Provider {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ResponseHeaderTimeout: 120 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   5,
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
	}

	return &Provider{
		name:    cfg.Name,
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		models:  cfg.Models,
		client:  &http.Client{Transport: transport},
		logger:  logger.With(zap.String("provider", cfg.Name), zap.String("type", "anthropic")),
	}
}

var _ llm.Provider = (*Provider)(nil)

func (p *Provider) Name() string     { return p.name }
func (p *Provider) Models() []string { return p.models }

func (p *Provider) SupportsModel(model string) bool {
	if len(p.models) == 0 {
		return true
	}
	for _, m := range p.models {
		if m == model {
			return true
		}
	}
	return false
}

func (p *Provider) IsAvailable(ctx context.Context) bool {
	return p.apiKey != ""
}

// Generate sends a non-streaming Messages API request.
func (p *Provider) Generate(ctx context.Context, req *service.LLMRequest) (*service.LLMResponse, error) {
	apiReq := p.buildAPIRequest(req)

	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	p.setHeaders(httpReq)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &httpStatusError{status: resp.StatusCode, body: string(respBody)}
	}

	return p.parseAPIResponse(respBody)
}

type httpStatusError struct {
	status int
	body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("Anthropic API error %d: %s", e.status, e.body)
}

func (e *httpStatusError) StatusCode() int { return e.status }

func (p *Provider) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
}

func (p *Provider) buildAPIRequest(req *service.LLMRequest) *Request {
	model := req.Model
	if idx := strings.Index(model, "/"); idx >= 0 {
		model = model[idx+1:]
	}

	apiReq := &Request{
		Model:       model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if apiReq.MaxTokens == 0 {
		apiReq.MaxTokens = 8192 // Anthropic requires explicit max_tokens
	}

	for _, msg := range req.Messages {
		if msg.Role == "system" {
			apiReq.System = msg.Content
			continue
		}
		apiReq.Messages = append(apiReq.Messages, Message{
			Role:    "user",
			Content: []ContentBlock{{Type: "text", Text: msg.Content}},
		})
	}

	if req.EnableWebSearch {
		apiReq.Tools = append(apiReq.Tools, Tool{Type: "web_search"})
	}

	if req.JSONSchema != nil {
		apiReq.Tools = append(apiReq.Tools, Tool{
			Name:        structuredOutputToolName,
			Description: "Emit the batch analysis result matching the required schema.",
			InputSchema: req.JSONSchema,
		})
		apiReq.ToolChoice = &ToolChoice{Type: "tool", Name: structuredOutputToolName}
	}

	return apiReq
}

func (p *Provider) parseAPIResponse(body []byte) (*service.LLMResponse, error) {
	var apiResp Response
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("parse Anthropic response: %w", err)
	}

	resp := &service.LLMResponse{
		ModelUsed:  apiResp.Model,
		TokensUsed: apiResp.Usage.Total(),
	}

	for _, block := range apiResp.Content {
		switch block.Type {
		case "text":
			resp.Content += block.Text
		case "tool_use":
			if block.Name == structuredOutputToolName {
				if b, err := json.Marshal(block.Input); err == nil {
					resp.Content = string(b)
				}
			}
		}
	}

	return resp, nil
}
