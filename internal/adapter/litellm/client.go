// Package litellm provides an HTTP client for the LiteLLM Proxy's
// OpenAI-compatible chat completions API.
package litellm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Strob0t/ilmihal/internal/port/llm"
	"github.com/Strob0t/ilmihal/internal/resilience"
)

// ErrEmptyCompletion is returned when the proxy answers without any choice.
var ErrEmptyCompletion = errors.New("litellm: empty completion")

// StatusError is a non-2xx answer from the proxy.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("litellm API error %d: %s", e.Code, e.Body)
}

type completionRequest struct {
	Model    string        `json:"model"`
	Messages []llm.Message `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message llm.Message `json:"message"`
	} `json:"choices"`
}

// Client talks to the LiteLLM Proxy.
type Client struct {
	baseURL    string
	masterKey  string
	model      string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewClient creates a LiteLLM client that sends completions to model.
func NewClient(baseURL, masterKey, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		masterKey: masterKey,
		model:     model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// Model returns the model name completions are requested for.
func (c *Client) Model() string { return c.model }

// Complete sends the conversation to /chat/completions and returns the
// content of the first choice.
func (c *Client) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	body, err := json.Marshal(completionRequest{Model: c.model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("marshal completion: %w", err)
	}

	data, err := c.doRequest(ctx, http.MethodPost, "/chat/completions", body)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	var resp completionResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("unmarshal completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyCompletion
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Health checks if LiteLLM is reachable. It bypasses the breaker so a
// health probe never counts as a failure.
func (c *Client) Health(ctx context.Context) (bool, error) {
	_, err := c.send(ctx, http.MethodGet, "/health/liveliness", nil)
	return err == nil, err
}

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if c.breaker == nil {
		return c.send(ctx, method, path, body)
	}
	var result []byte
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		data, err := c.send(ctx, method, path, body)
		if err != nil {
			return err
		}
		result = data
		return nil
	})
	return result, err
}

func (c *Client) send(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.masterKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.masterKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}
