package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/shelfwise/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/shelfwise/internal/core/domain"
	"github.com/custodia-labs/shelfwise/internal/core/ports/driven"
)

// --- Mock implementations ---

// stubEmbedder implements driven.EmbeddingService with a pluggable embed function.
type stubEmbedder struct {
	model string
	dims  int
	embed func(ctx context.Context, text string) ([]float32, error)
	calls atomic.Int64
}

func (m *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.calls.Add(1)
	return m.embed(ctx, text)
}

func (m *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *stubEmbedder) Dimensions() int              { return m.dims }
func (m *stubEmbedder) ModelName() string            { return m.model }
func (m *stubEmbedder) Ping(_ context.Context) error { return nil }
func (m *stubEmbedder) Close() error                 { return nil }

// hashingEmbedder returns the built-in hashing embedder.
func hashingEmbedder(t *testing.T) driven.EmbeddingService {
	t.Helper()
	svc, err := hashing.New(hashing.Config{})
	require.NoError(t, err)
	return svc
}

// keywordEmbedder scores each vocabulary word by presence. Texts containing
// failOn fail to embed.
func keywordEmbedder(model string, vocab []string, failOn string) *stubEmbedder {
	return &stubEmbedder{
		model: model,
		dims:  len(vocab),
		embed: func(ctx context.Context, text string) ([]float32, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if failOn != "" && strings.Contains(text, failOn) {
				return nil, errors.New("embedding backend refused input")
			}
			lower := strings.ToLower(text)
			vec := make([]float32, len(vocab))
			for i, w := range vocab {
				if strings.Contains(lower, w) {
					vec[i] = 1
				}
			}
			return vec, nil
		},
	}
}

// stubLLM implements driven.LLMService returning a canned reply.
type stubLLM struct {
	mu      sync.Mutex
	reply   string
	err     error
	block   bool
	prompts []string
	opts    []driven.GenerateOptions
}

func (m *stubLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	m.mu.Unlock()

	if m.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *stubLLM) ModelName() string            { return "stub-llm" }
func (m *stubLLM) Ping(_ context.Context) error { return nil }
func (m *stubLLM) Close() error                 { return nil }

func (m *stubLLM) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

func (m *stubLLM) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// stubLock implements driven.RebuildLock.
type stubLock struct {
	err      error
	acquired atomic.Int64
	released atomic.Int64
}

func (m *stubLock) Acquire(_ context.Context) (func() error, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.acquired.Add(1)
	return func() error {
		m.released.Add(1)
		return nil
	}, nil
}

// stubPrompts implements driven.PromptStore.
type stubPrompts struct {
	prompts map[string]string
}

func (m *stubPrompts) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (m *stubPrompts) Reload() {}

// stubSource implements driven.RecordSource.
type stubSource struct {
	records []domain.ProductRecord
	skipped int
	err     error
}

func (m *stubSource) Records(_ context.Context, _ string) ([]domain.ProductRecord, int, error) {
	return m.records, m.skipped, m.err
}

// --- Fixtures ---

func catalogFixture() []domain.ProductRecord {
	return []domain.ProductRecord{
		{
			ID: "A1", Title: "Wireless Earbuds Pro", Brand: "Acme",
			Price: domain.Ptr(39.99), Rating: domain.Ptr(4.5), ReviewCount: domain.Ptr(1234),
		},
		{
			ID: "A2", Title: "Gaming Headset", Brand: "Zorg",
			Price: domain.Ptr(79.00), Rating: domain.Ptr(4.1), ReviewCount: domain.Ptr(88),
		},
		{
			ID: "A3", Title: "Massage Gun X",
			Price: domain.Ptr(129.50), Rating: domain.Ptr(4.8),
		},
	}
}
