package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"consilium/pkg/errors"
	"consilium/pkg/logger"
)

// OpenAIProvider talks to an OpenAI-compatible chat completions endpoint.
type OpenAIProvider struct {
	apiKey      string
	baseURL     string
	client      *http.Client
	rateLimiter RateLimiter
	log         *logger.Logger
}

var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates a provider against the given base URL
// (e.g. https://api.openai.com/v1).
func NewOpenAIProvider(apiKey, baseURL string, timeout time.Duration, limiter RateLimiter) *OpenAIProvider {
	if limiter == nil {
		limiter = NewNoOpLimiter()
	}
	return &OpenAIProvider{
		apiKey:      apiKey,
		baseURL:     baseURL,
		client:      &http.Client{Timeout: timeout},
		rateLimiter: limiter,
		log:         logger.Get().With("component", "openai_provider"),
	}
}

// Name returns provider name.
func (p *OpenAIProvider) Name() ProviderName { return ProviderNameOpenAI }

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type openAIResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete sends a chat completion request.
func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if p.apiKey == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "openai API key not configured")
	}

	if err := p.rateLimiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(errors.ErrRateLimitExceeded, err.Error())
	}

	apiReq := openAIRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if apiReq.MaxTokens == 0 {
		apiReq.MaxTokens = 4096
	}
	for _, msg := range req.Messages {
		apiReq.Messages = append(apiReq.Messages, openAIMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, errors.Wrap(err, "marshal openai request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "create HTTP request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		// Network errors and client timeouts are transient; the caller
		// retries with backoff.
		return nil, errors.Wrapf(errors.ErrProviderTransient, "send openai request: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrProviderTransient, "read openai response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error struct {
				Message string `json:"message"`
				Type    string `json:"type"`
			} `json:"error"`
		}
		_ = json.Unmarshal(respBody, &errResp)

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, errors.Wrapf(errors.ErrProviderTransient,
				"openai API error (%d): %s", resp.StatusCode, errResp.Error.Message)
		}
		return nil, errors.Wrapf(errors.ErrExternal,
			"openai API error (%d): %s - %s", resp.StatusCode, errResp.Error.Type, errResp.Error.Message)
	}

	var apiResp openAIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, errors.Wrap(err, "unmarshal openai response")
	}
	if len(apiResp.Choices) == 0 {
		return nil, errors.Wrap(errors.ErrExternal, "openai returned no choices")
	}

	return &CompletionResponse{
		Content: apiResp.Choices[0].Message.Content,
		Model:   apiResp.Model,
		Usage: Usage{
			PromptTokens:     apiResp.Usage.PromptTokens,
			CompletionTokens: apiResp.Usage.CompletionTokens,
			TotalTokens:      apiResp.Usage.TotalTokens,
		},
	}, nil
}
