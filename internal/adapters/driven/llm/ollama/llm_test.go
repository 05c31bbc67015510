package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/shelfwise/internal/core/ports/driven"
)

func TestLLMService_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.2", req.Model)
		assert.Equal(t, "json", req.Format)
		assert.False(t, req.Stream)
		require.NotNil(t, req.Options)
		require.NotNil(t, req.Options.Temperature)
		assert.Zero(t, *req.Options.Temperature)
		assert.Equal(t, 128, req.Options.NumPredict)

		_ = json.NewEncoder(w).Encode(generateResponse{Response: `{"answer": "x", "sources": []}`, Done: true})
	}))
	defer server.Close()

	svc := NewLLMService(LLMConfig{BaseURL: server.URL})
	out, err := svc.Generate(context.Background(), "prompt", driven.GenerateOptions{JSON: true, MaxTokens: 128})
	require.NoError(t, err)
	assert.Equal(t, `{"answer": "x", "sources": []}`, out)
}

func TestLLMService_Generate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"status", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"error field", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"error": "model not loaded"}`))
		}},
		{"bad body", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := NewLLMService(LLMConfig{BaseURL: server.URL}).Generate(context.Background(), "p", driven.GenerateOptions{})
			assert.Error(t, err)
		})
	}
}

func TestLLMService_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"models": []}`))
	}))
	svc := NewLLMService(LLMConfig{BaseURL: server.URL})
	assert.NoError(t, svc.Ping(context.Background()))

	server.Close()
	assert.Error(t, svc.Ping(context.Background()))
}
