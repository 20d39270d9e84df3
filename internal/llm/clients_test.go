package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/scrypster/rolodex/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req openAIChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "classify this", req.Messages[0].Content)
		require.NotNil(t, req.ResponseFormat)
		assert.Equal(t, "json_object", req.ResponseFormat.Type)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"intent\":\"greeting\"}"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/"})
	out, err := c.Complete(context.Background(), "classify this")
	require.NoError(t, err)
	assert.Equal(t, `{"intent":"greeting"}`, out)
	assert.Equal(t, "gpt-4o-mini", c.GetModel())
}

func TestOpenAIClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewOpenAIClient(OpenAIConfig{BaseURL: srv.URL})
	_, err := c.Complete(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai:")
	assert.Contains(t, err.Error(), "429")
}

func TestOpenAIClient_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(OpenAIConfig{BaseURL: srv.URL})
	_, err := c.Complete(context.Background(), "x")
	assert.True(t, errors.Is(err, ErrEmptyResponse))
}

func TestOllamaClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "qwen2.5:7b", req.Model)
		assert.Equal(t, "json", req.Format)
		assert.False(t, req.Stream)

		_, _ = w.Write([]byte(`{"response":"{\"intent\":\"finish\"}","done":true}`))
	}))
	defer srv.Close()

	c := NewOllamaClient(OllamaConfig{BaseURL: srv.URL})
	out, err := c.Complete(context.Background(), "done")
	require.NoError(t, err)
	assert.Equal(t, `{"intent":"finish"}`, out)
}

func TestOllamaClient_CircuitOpensAfterFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewOllamaClient(OllamaConfig{BaseURL: srv.URL})
	for i := 0; i < 3; i++ {
		_, err := c.Complete(context.Background(), "x")
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrCircuitOpen))
	}

	_, err := c.Complete(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCircuitOpen))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestAnthropicClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"), r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("X-Api-Key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-haiku-4-5-20251001",
			"content": [{"type": "text", "text": "{\"intent\":\"help\"}"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient(AnthropicConfig{APIKey: "sk-ant-test", BaseURL: srv.URL})
	out, err := c.Complete(context.Background(), "help me")
	require.NoError(t, err)
	assert.Equal(t, `{"intent":"help"}`, out)
	assert.Equal(t, "claude-haiku-4-5-20251001", c.GetModel())
}

func TestCircuitBreaker_HalfOpenRecovers(t *testing.T) {
	cb := NewCircuitBreakerWithConfig(CircuitBreakerConfig{
		Name:        "test",
		MaxFailures: 2,
		Timeout:     50 * time.Millisecond,
	})
	fail := func() (string, error) { return "", errors.New("boom") }
	ok := func() (string, error) { return "ok", nil }

	_, _ = cb.Do(context.Background(), fail)
	_, _ = cb.Do(context.Background(), fail)
	assert.Equal(t, "open", cb.State())

	_, err := cb.Do(context.Background(), ok)
	assert.True(t, errors.Is(err, ErrCircuitOpen))

	time.Sleep(80 * time.Millisecond)
	out, err := cb.Do(context.Background(), ok)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, "closed", cb.State())
}

func TestCircuitBreaker_CancelledContextSkipsCall(t *testing.T) {
	cb := NewCircuitBreaker("ctx")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, err := cb.Do(ctx, func() (string, error) {
		called = true
		return "", nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
	assert.Equal(t, uint32(1), cb.Counts().ConsecutiveFailures)
}

type stubGenerator struct {
	calls int32
	out   string
}

func (s *stubGenerator) Complete(context.Context, string) (string, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.out, nil
}

func (s *stubGenerator) GetModel() string { return "stub" }

func TestRateLimited_BlocksBeyondBurst(t *testing.T) {
	stub := &stubGenerator{out: "{}"}
	gen := NewRateLimited(stub, 1, 1)

	_, err := gen.Complete(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = gen.Complete(ctx, "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
	assert.Equal(t, int32(1), atomic.LoadInt32(&stub.calls))
	assert.Equal(t, "stub", gen.GetModel())
}

func TestRateLimited_DisabledReturnsInner(t *testing.T) {
	stub := &stubGenerator{}
	assert.Same(t, stub, NewRateLimited(stub, 0, 5))
}

func TestNewTextGenerator(t *testing.T) {
	gen, err := NewTextGenerator(config.LLMConfig{LLMProvider: "none"})
	require.NoError(t, err)
	assert.Nil(t, gen)

	_, err = NewTextGenerator(config.LLMConfig{LLMProvider: "carrier-pigeon"})
	require.Error(t, err)

	gen, err = NewTextGenerator(config.LLMConfig{LLMProvider: "ollama", OllamaModel: "llama3", RequestsPerMin: 60})
	require.NoError(t, err)
	_, limited := gen.(*RateLimited)
	assert.True(t, limited)
	assert.Equal(t, "llama3", gen.GetModel())

	gen, err = NewTextGenerator(config.LLMConfig{LLMProvider: "openai"})
	require.NoError(t, err)
	_, isOpenAI := gen.(*OpenAIClient)
	assert.True(t, isOpenAI)
}
