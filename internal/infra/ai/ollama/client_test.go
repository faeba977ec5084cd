package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/solidity-sec/internal/domain/ai"
)

func TestGenerate_Success(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(generateResponse{Response: `{"vulnerabilities": []}`, Done: true})
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Model: "deepseek-coder-v2:latest"})
	out, err := c.Generate(context.Background(), ai.Request{
		SystemPrompt: "system part",
		UserPrompt:   "user part",
		Sampling:     ai.Sampling{Temperature: 0.1, MaxTokens: 4096},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"vulnerabilities": []}`, out)

	assert.Equal(t, "deepseek-coder-v2:latest", got.Model)
	assert.Equal(t, "system part\n\nuser part", got.Prompt)
	assert.False(t, got.Stream)
	assert.InDelta(t, 0.1, got.Options.Temperature, 0.001)
	assert.Equal(t, 4096, got.Options.NumPredict)
}

func TestGenerate_ServiceUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Model: "m"})
	_, err := c.Generate(context.Background(), ai.Request{UserPrompt: "x"})
	assert.True(t, ai.IsUnavailable(err))
}

func TestGenerate_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // nothing listening anymore

	c := New(Config{BaseURL: srv.URL, Model: "m"})
	_, err := c.Generate(context.Background(), ai.Request{UserPrompt: "x"})
	assert.True(t, ai.IsUnavailable(err))
}

func TestGenerate_BadRequestIsNotTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown model", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Model: "m"})
	_, err := c.Generate(context.Background(), ai.Request{UserPrompt: "x"})
	require.Error(t, err)
	assert.False(t, ai.IsUnavailable(err))
}

func TestGenerate_InlineError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(generateResponse{Error: "model not found"})
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Model: "m"})
	_, err := c.Generate(context.Background(), ai.Request{UserPrompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
}

func TestGenerate_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "late"})
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Model: "m"})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Generate(ctx, ai.Request{UserPrompt: "x"})
	assert.True(t, ai.IsUnavailable(err))
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Model: "m"})
	assert.NoError(t, c.Ping(context.Background()))

	srv.Close()
	assert.Error(t, c.Ping(context.Background()))
}
