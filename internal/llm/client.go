// Package llm provides a client for an Ollama-compatible generation API.
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

// Client is a client for the Ollama /api/generate endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new client for the given backend base URL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		// Per-call deadlines come from the request context; this is a
		// backstop for calls issued without one.
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

// GenerateRequest describes a single completion call.
type GenerateRequest struct {
	Model       string
	Prompt      string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// generatePayload is the request format for the Ollama generate API.
type generatePayload struct {
	Model   string  `json:"model"`
	Prompt  string  `json:"prompt"`
	Stream  bool    `json:"stream"`
	Options options `json:"options"`
}

type options struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

// Generate sends a non-streaming completion request and returns the
// generated text. It fails with *BackendUnavailableError on any transport
// problem and *MalformedResponseError when a successful response lacks
// the expected text field.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	payload := generatePayload{
		Model:  req.Model,
		Prompt: req.Prompt,
		Stream: false,
		Options: options{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &BackendUnavailableError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &BackendUnavailableError{
			Err: fmt.Errorf("API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	// The response field must be present even when empty, so decode into
	// a pointer to tell absence apart from "".
	var decoded struct {
		Response *string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &MalformedResponseError{Detail: fmt.Sprintf("decode response: %v", err)}
	}
	if decoded.Response == nil {
		return "", &MalformedResponseError{Detail: `missing "response" field`}
	}

	return strings.TrimSpace(*decoded.Response), nil
}

// Ping checks if the backend is reachable.
func (c *Client) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &BackendUnavailableError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &BackendUnavailableError{Err: fmt.Errorf("API error %d", resp.StatusCode)}
	}

	return nil
}
