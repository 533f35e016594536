package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ErrMissingAPIKey is returned when a keyed provider is configured without a key.
var ErrMissingAPIKey = errors.New("api key is missing")

// ErrEmptyResponse is returned when the provider answers with no choices.
var ErrEmptyResponse = errors.New("empty response from provider")

// Client talks to any OpenAI-compatible chat completions endpoint.
type Client struct {
	api      *openai.Client
	provider string
	baseURL  string
}

// NewClient builds a client for provider. Keyed providers require cfg.APIKey.
func NewClient(provider string, cfg RuntimeConfig) (*Client, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		if provider != ProviderOllama {
			return nil, fmt.Errorf("%s: %w", provider, ErrMissingAPIKey)
		}
		key = "ollama"
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 60 * time.Second
	}
	oc := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.HTTPTimeout}
	return &Client{
		api:      openai.NewClientWithConfig(oc),
		provider: provider,
		baseURL:  oc.BaseURL,
	}, nil
}

// Provider returns the provider name the client was built for.
func (c *Client) Provider() string { return c.provider }

func (c *Client) ValidateModel(model string) error {
	if model == "" {
		return errors.New("model cannot be empty")
	}
	return nil
}

// Generate sends one chat completion request. There are no retries; callers
// decide what to do on failure.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if err := c.ValidateModel(req.Model); err != nil {
		return nil, err
	}
	msgs := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    msgs,
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		return nil, classifyError(err, c.baseURL)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}
	out := &GenerateResponse{
		ID:    resp.ID,
		Model: resp.Model,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		RequestID: extractRequestID(resp.Header()),
	}
	for _, ch := range resp.Choices {
		out.Choices = append(out.Choices, Choice{
			Message:      Message{Role: ch.Message.Role, Content: ch.Message.Content},
			FinishReason: string(ch.FinishReason),
		})
	}
	return out, nil
}

// extractRequestID pulls a best-effort request ID from common headers.
func extractRequestID(h http.Header) string {
	for _, k := range []string{"X-Request-Id", "OpenAI-Request-ID", "Openrouter-Request-ID"} {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return ""
}
