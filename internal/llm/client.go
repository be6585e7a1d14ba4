// Package llm talks to the text-generation service through its chat endpoint.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Roles for chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Config configures the chat client.
type Config struct {
	// Endpoint is the full URL of the chat endpoint (usually a credential-hiding proxy).
	Endpoint string

	// Model is the model name sent with every request.
	Model string

	// Temperature controls creativity in responses.
	Temperature float64

	// MaxTokens caps the reply length.
	MaxTokens int

	// RequestTimeout bounds a single chat request, including reading the reply.
	RequestTimeout time.Duration

	// RequestsPerMinute throttles outgoing requests. Zero disables throttling.
	RequestsPerMinute int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Endpoint:          "http://localhost:8787/api/chat",
		Model:             "gpt-4o-mini",
		Temperature:       0.7,
		MaxTokens:         2000,
		RequestTimeout:    120 * time.Second,
		RequestsPerMinute: 20,
	}
}

// ChatMessage represents a chat message.
type ChatMessage struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// ChatRequest is the request body for chat completions.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

// ChatResponse is the reply to a chat request.
type ChatResponse struct {
	Model   string      `json:"model,omitempty"`
	Message ChatMessage `json:"message"`
}

// wireResponse accepts both the choices[] shape and a bare message object.
type wireResponse struct {
	Model   string       `json:"model"`
	Message *ChatMessage `json:"message"`
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
}

// StatusError is returned when the service answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chat failed with status %d: %s", e.StatusCode, e.Body)
}

// ErrEmptyReply is returned when the service answers without any assistant message.
var ErrEmptyReply = errors.New("chat response contained no message")

// Client sends chat requests to the text-generation service.
type Client struct {
	config     *Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new chat client.
func NewClient(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	limit := rate.Inf
	if config.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(config.RequestsPerMinute))
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.RequestTimeout},
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// Chat sends the conversation and returns the assistant's reply.
func (c *Client) Chat(ctx context.Context, messages []ChatMessage) (*ChatResponse, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("no messages to send")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(&ChatRequest{
		Model:       c.config.Model,
		Messages:    messages,
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	var wire wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	chatResp := &ChatResponse{Model: wire.Model}
	switch {
	case len(wire.Choices) > 0:
		chatResp.Message = wire.Choices[0].Message
	case wire.Message != nil:
		chatResp.Message = *wire.Message
	default:
		return nil, ErrEmptyReply
	}
	if chatResp.Message.Role == "" {
		chatResp.Message.Role = RoleAssistant
	}

	return chatResp, nil
}

// GetConfig returns the current configuration.
func (c *Client) GetConfig() *Config {
	return c.config
}
