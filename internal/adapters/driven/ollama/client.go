// Package ollama is a small client for the Ollama REST API, shared by the
// embedding and LLM adapters.
package ollama

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

// DefaultBaseURL is where a local Ollama listens.
const DefaultBaseURL = "http://localhost:11434"

// maxErrorBody caps how much of an error reply is kept.
const maxErrorBody = 4 << 10

// APIError is a reply with a non-200 status or an "error" field.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status != http.StatusOK {
		return fmt.Sprintf("ollama error (status %d): %s", e.Status, e.Message)
	}
	return "ollama error: " + e.Message
}

// Client calls one Ollama server.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient returns a client for baseURL. An empty baseURL means
// DefaultBaseURL; timeout bounds each request.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// BaseURL returns the server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Post sends in as JSON to path and decodes the reply into out.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

// Models lists the models pulled on the server.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := c.do(req, &tags); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// Ping checks the server answers without running a model.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.Models(ctx); err != nil {
		return fmt.Errorf("ollama: ping %s: %w", c.baseURL, err)
	}
	return nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var failure struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &failure); err == nil && failure.Error != "" {
		return &APIError{Status: resp.StatusCode, Message: failure.Error}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
