// Package ollama provides an LLM service adapter using Ollama.
package ollama

import (
	"context"
	"time"

	ollamaapi "github.com/custodia-labs/shelfwise/internal/adapters/driven/ollama"
	"github.com/custodia-labs/shelfwise/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultLLMModel   = "llama3.2"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig holds configuration for the Ollama LLM service.
type LLMConfig struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the LLM model to use (default: llama3.2).
	Model string

	// Timeout bounds each request (default: 120s). The synthesizer's own
	// deadline is usually shorter.
	Timeout time.Duration
}

// LLMService answers prompts with a local Ollama model.
type LLMService struct {
	client *ollamaapi.Client
	model  string
}

type generateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	Stream  bool     `json:"stream"`
	Format  string   `json:"format,omitempty"`
	Options *options `json:"options,omitempty"`
}

type options struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewLLMService creates a new Ollama LLM service.
func NewLLMService(cfg LLMConfig) *LLMService {
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	return &LLMService{
		client: ollamaapi.NewClient(cfg.BaseURL, cfg.Timeout),
		model:  cfg.Model,
	}
}

// Generate runs a single non-streaming completion. With opts.JSON the
// model is constrained to emit a JSON value.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	temperature := opts.Temperature
	req := generateRequest{
		Model:  s.model,
		Prompt: prompt,
		Options: &options{
			NumPredict:  opts.MaxTokens,
			Temperature: &temperature,
			Stop:        opts.StopWords,
		},
	}
	if opts.JSON {
		req.Format = "json"
	}

	var resp generateResponse
	if err := s.client.Post(ctx, "/api/generate", req, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping checks the Ollama server is reachable.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
