package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OllamaConfig configures the Ollama client.
type OllamaConfig struct {
	// BaseURL is the Ollama API endpoint.
	BaseURL string

	// Model is the model name to use.
	Model string

	Temperature float64

	// MaxTokens maps to Ollama's num_predict.
	MaxTokens int

	// RequestTimeout bounds status requests.
	RequestTimeout time.Duration

	// InferenceTimeout bounds a chat request. Local models can be slow to load.
	InferenceTimeout time.Duration
}

// DefaultOllamaConfig returns sensible defaults.
func DefaultOllamaConfig() *OllamaConfig {
	return &OllamaConfig{
		BaseURL:          "http://localhost:11434",
		Model:            "qwen3:8b",
		Temperature:      0.7,
		MaxTokens:        2000,
		RequestTimeout:   10 * time.Second,
		InferenceTimeout: 300 * time.Second,
	}
}

// OllamaClient talks to a local Ollama server through its native chat API.
type OllamaClient struct {
	config     *OllamaConfig
	httpClient *http.Client
}

// OllamaStatus represents the status of Ollama.
type OllamaStatus struct {
	Available    bool     `json:"available"`
	Version      string   `json:"version,omitempty"`
	ModelReady   bool     `json:"model_ready"`
	ModelName    string   `json:"model_name"`
	ModelsLoaded []string `json:"models_loaded,omitempty"`
	Error        string   `json:"error,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []ChatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  *ollamaOptions `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Model   string      `json:"model"`
	Message ChatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// NewOllamaClient creates a new Ollama client.
func NewOllamaClient(config *OllamaConfig) *OllamaClient {
	if config == nil {
		config = DefaultOllamaConfig()
	}

	// Per-request contexts carry the timeouts; the two kinds of call need different bounds.
	return &OllamaClient{
		config:     config,
		httpClient: &http.Client{},
	}
}

// Chat sends the conversation to /api/chat without streaming and returns the reply.
func (c *OllamaClient) Chat(ctx context.Context, messages []ChatMessage) (*ChatResponse, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("no messages to send")
	}

	if c.config.InferenceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.InferenceTimeout)
		defer cancel()
	}

	body, err := json.Marshal(&ollamaChatRequest{
		Model:    c.config.Model,
		Messages: messages,
		Options: &ollamaOptions{
			Temperature: c.config.Temperature,
			NumPredict:  c.config.MaxTokens,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama chat request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	var wire ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if wire.Message.Content == "" {
		return nil, ErrEmptyReply
	}
	if wire.Message.Role == "" {
		wire.Message.Role = RoleAssistant
	}

	return &ChatResponse{Model: wire.Model, Message: wire.Message}, nil
}

// CheckAvailability reports whether Ollama is reachable and has the configured model.
func (c *OllamaClient) CheckAvailability(ctx context.Context) *OllamaStatus {
	status := &OllamaStatus{ModelName: c.config.Model}

	if c.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.RequestTimeout)
		defer cancel()
	}

	var version struct {
		Version string `json:"version"`
	}
	if err := c.getJSON(ctx, "/api/version", &version); err != nil {
		status.Error = fmt.Sprintf("Ollama not available: %v", err)
		return status
	}
	status.Available = true
	status.Version = version.Version

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := c.getJSON(ctx, "/api/tags", &tags); err != nil {
		status.Error = fmt.Sprintf("Failed to list models: %v", err)
		return status
	}

	// "llama3" matches "llama3:latest"; a tagged name must match exactly.
	want := c.config.Model
	for _, m := range tags.Models {
		status.ModelsLoaded = append(status.ModelsLoaded, m.Name)
		if m.Name == want || (!strings.Contains(want, ":") && strings.HasPrefix(m.Name, want+":")) {
			status.ModelReady = true
		}
	}
	if !status.ModelReady {
		status.Error = fmt.Sprintf("model %s is not pulled; run: ollama pull %s", want, want)
	}

	return status
}

func (c *OllamaClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// GetConfig returns the current configuration.
func (c *OllamaClient) GetConfig() *OllamaConfig {
	return c.config
}
