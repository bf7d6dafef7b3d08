// Package genai implements the generative-text client over an
// OpenAI-compatible chat-completions endpoint. It satisfies the
// Generator interfaces declared by the salvage pipeline and the search
// orchestrator.
package genai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/havenapps/selah/core/errors"
	"github.com/havenapps/selah/internal/logging"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// DefaultBaseURL is the production chat-completions endpoint root.
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o-mini"

	serviceName    = "generative"
	defaultTimeout = 30 * time.Second
)

// Config configures a Client.
type Config struct {
	BaseURL string        // empty = DefaultBaseURL
	APIKey  string        // bearer token
	Model   string        // empty = DefaultModel
	Timeout time.Duration // whole-request timeout; 0 = default
}

// Client calls a chat-completions endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient creates a generative-text client.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Generate sends one system+user exchange and returns the raw completion
// text. The caller owns all parsing; the text is returned exactly as the
// model produced it.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", apperrors.NewUpstream(serviceName, "generate", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", apperrors.NewUpstream(serviceName, "generate", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperrors.NewUpstream(serviceName, "generate", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperrors.NewUpstream(serviceName, "generate", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logging.ProviderError("generate",
			fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(body), 200)),
			"model", c.model)
		return "", statusError(resp.StatusCode, body)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", apperrors.NewUpstream(serviceName, "generate", err)
	}
	if len(parsed.Choices) == 0 {
		return "", apperrors.NewUpstream(serviceName, "generate",
			fmt.Errorf("no choices in response"))
	}
	return parsed.Choices[0].Message.Content, nil
}

// statusError maps an error status to an upstream error. The body's
// error message is preserved so the salvage layer can classify quota
// exhaustion by its wording.
func statusError(status int, body []byte) error {
	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil {
		return &apperrors.UpstreamError{
			Service:   serviceName,
			Operation: "generate",
			Status:    status,
			Err:       fmt.Errorf("%s: %s", parsed.Error.Type, parsed.Error.Message),
		}
	}
	return apperrors.NewUpstreamStatus(serviceName, "generate", status)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
