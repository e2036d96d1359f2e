package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"pulsescore-backend/internal/llm"
	"pulsescore-backend/internal/shared/telemetry"
)

const (
	defaultEndpoint = "https://api.openai.com/v1/chat/completions"
	defaultTimeout  = 60 * time.Second
	// Error bodies are only echoed into messages up to this many bytes.
	maxErrorBody = 512

	systemPrompt = "You are an organisational psychologist advising team leads on survey results. Reply with concise, practical recommendations."
)

// Client implements llm.TextClient using OpenAI Chat Completions.
type Client struct {
	endpoint string
	apiKey   string
	model    string
	http     *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithEndpoint points the client at a compatible Chat Completions URL.
func WithEndpoint(url string) Option {
	return func(c *Client) { c.endpoint = url }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient constructs a new OpenAI client. The request timeout comes from
// OPENAI_TIMEOUT_SECONDS unless WithHTTPClient is given.
func NewClient(apiKey, model string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("LLM_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("OPENAI_API_KEY is required")
	}
	c := &Client{
		endpoint: defaultEndpoint,
		apiKey:   apiKey,
		model:    strings.TrimSpace(model),
		http:     &http.Client{Timeout: timeoutFromEnv(os.Getenv("OPENAI_TIMEOUT_SECONDS"))},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func timeoutFromEnv(raw string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || secs <= 0 {
		return defaultTimeout
	}
	return time.Duration(secs) * time.Second
}

// APIError is a non-2xx answer from the completions endpoint.
type APIError struct {
	Status  int
	Type    string
	Message string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("openai: status %d: %s (%s)", e.Status, e.Message, e.Type)
	}
	return fmt.Sprintf("openai: status %d: %s", e.Status, e.Message)
}

// Retryable reports whether the call may succeed if repeated later.
func (e *APIError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type completionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		Prompt     int `json:"prompt_tokens"`
		Completion int `json:"completion_tokens"`
		Total      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (c *Client) Provider() string { return "openai" }

// Complete returns the model's text reply to prompt.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(c.requestFor(prompt))
	if err != nil {
		return "", fmt.Errorf("openai: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("openai: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai: send: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("openai: read response: %w", err)
	}
	var out completionResponse
	decodeErr := json.Unmarshal(raw, &out)
	if resp.StatusCode/100 != 2 {
		return "", apiError(resp.StatusCode, out, decodeErr, raw)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("openai: decode response: %w", decodeErr)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("openai: response has no choices")
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)

	telemetry.Info("llm.response", map[string]any{
		"provider":          c.Provider(),
		"model":             c.model,
		"finish_reason":     out.Choices[0].FinishReason,
		"prompt_tokens":     out.Usage.Prompt,
		"completion_tokens": out.Usage.Completion,
		"total_tokens":      out.Usage.Total,
		"latency_ms":        time.Since(started).Milliseconds(),
		"request_id":        telemetry.RequestID(ctx),
	})
	if text == "" {
		return "", errors.New("openai: empty completion")
	}
	return text, nil
}

func (c *Client) requestFor(prompt string) completionRequest {
	req := completionRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
	}
	// gpt-5 models reject any temperature other than the default.
	if !fixedTemperature(c.model) {
		t := 0.2
		req.Temperature = &t
	}
	return req
}

func apiError(status int, out completionResponse, decodeErr error, raw []byte) *APIError {
	e := &APIError{Status: status}
	if decodeErr == nil && out.Error != nil {
		e.Type = out.Error.Type
		e.Message = out.Error.Message
		return e
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	e.Message = msg
	return e
}

func fixedTemperature(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

var _ llm.TextClient = (*Client)(nil)
