// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/skill-factory/pkg/types"
)

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}
}

const anthropicOK = `{"id":"msg_1","type":"message","role":"assistant","model":"claude-test",
"content":[{"type":"text","text":"hello "},{"type":"text","text":"world"}],
"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":2}}`

const anthropicErr = `{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`

func TestAnthropicTransport(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantText string
		wantKind Kind
	}{
		{name: "text blocks are joined", status: 200, body: anthropicOK, wantText: "hello world"},
		{name: "429 is rate limited", status: 429, body: anthropicErr, wantKind: KindRateLimited},
		{name: "404 is not found", status: 404, body: anthropicErr, wantKind: KindNotFound},
		{name: "529 is server", status: 529, body: anthropicErr, wantKind: KindServer},
		{name: "no text is empty", status: 200, body: `{"id":"m","type":"message","role":"assistant","model":"x","content":[],"stop_reason":"max_tokens","usage":{"input_tokens":1,"output_tokens":0}}`, wantKind: KindEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(jsonHandler(tt.status, tt.body))
			defer srv.Close()

			tr := NewAnthropicTransport("test-key", srv.URL)
			text, err := tr.Generate(context.Background(), "claude-test", types.InvocationRequest{
				Prompt: "hi", SystemPrompt: "sys", MaxOutputTokens: 100,
			})
			if tt.wantText != "" {
				require.NoError(t, err)
				assert.Equal(t, tt.wantText, text)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, KindOf(err))
		})
	}
}

func TestAnthropicTransportSendsSystemPrompt(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, anthropicOK)
	}))
	defer srv.Close()

	tr := NewAnthropicTransport("test-key", srv.URL)
	_, err := tr.Generate(context.Background(), "claude-test", types.InvocationRequest{
		Prompt: "hi", SystemPrompt: "be terse", MaxOutputTokens: 64,
	})
	require.NoError(t, err)
	assert.Equal(t, "claude-test", body["model"])
	assert.EqualValues(t, 64, body["max_tokens"])
	system, ok := body["system"].([]any)
	require.True(t, ok)
	require.Len(t, system, 1)
	assert.Equal(t, "be terse", system[0].(map[string]any)["text"])
}

const openAIOK = `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-test",
"choices":[{"index":0,"message":{"role":"assistant","content":"draft"},"finish_reason":"stop"}]}`

func TestOpenAITransport(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantText string
		wantKind Kind
	}{
		{name: "first choice", status: 200, body: openAIOK, wantText: "draft"},
		{name: "no choices", status: 200, body: `{"id":"c","object":"chat.completion","created":1,"model":"m","choices":[]}`, wantKind: KindEmpty},
		{name: "429", status: 429, body: `{"error":{"message":"rate"}}`, wantKind: KindRateLimited},
		{name: "500", status: 500, body: `{"error":{"message":"oops"}}`, wantKind: KindServer},
		{name: "401", status: 401, body: `{"error":{"message":"bad key"}}`, wantKind: KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(jsonHandler(tt.status, tt.body))
			defer srv.Close()

			tr := NewOpenAITransport("test-key", srv.URL)
			text, err := tr.Generate(context.Background(), "gpt-test", types.InvocationRequest{Prompt: "hi", MaxOutputTokens: 10})
			if tt.wantText != "" {
				require.NoError(t, err)
				assert.Equal(t, tt.wantText, text)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, KindOf(err))
		})
	}
}

const geminiOK = `{"candidates":[{"content":{"role":"model","parts":[{"text":"gemini says hi"}]},"finishReason":"STOP"}]}`

func TestGeminiTransportRotatesKeys(t *testing.T) {
	var keys []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		key := r.Header.Get("x-goog-api-key")
		keys = append(keys, key)
		w.Header().Set("Content-Type", "application/json")
		if key == "key-1" {
			w.WriteHeader(http.StatusTooManyRequests)
			io.WriteString(w, `{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`)
			return
		}
		io.WriteString(w, geminiOK)
	}))
	defer srv.Close()

	tr, err := NewGeminiTransport(context.Background(), []string{"key-1", "key-2"}, srv.URL)
	require.NoError(t, err)

	req := types.InvocationRequest{Prompt: "hi", SystemPrompt: "sys", MaxOutputTokens: 10}
	_, err = tr.Generate(context.Background(), "gemini-test", req)
	require.Error(t, err)
	assert.Equal(t, KindRateLimited, KindOf(err))

	require.True(t, tr.RotateKey())
	assert.False(t, tr.RotateKey(), "every key already tried")

	text, err := tr.Generate(context.Background(), "gemini-test", req)
	require.NoError(t, err)
	assert.Equal(t, "gemini says hi", text)
	assert.Equal(t, []string{"key-1", "key-2"}, keys)

	require.True(t, tr.RotateKey(), "rotation wraps back to the first key")
	_, err = tr.Generate(context.Background(), "gemini-test", req)
	assert.Equal(t, KindRateLimited, KindOf(err))
	assert.False(t, tr.RotateKey())

	tr.ResetRotation()
	require.True(t, tr.RotateKey())
	_, err = tr.Generate(context.Background(), "gemini-test", req)
	require.NoError(t, err)
	assert.Equal(t, []string{"key-1", "key-2", "key-1", "key-2"}, keys)
}

func TestGeminiTransportNotFound(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(404, `{"error":{"code":404,"message":"model not found","status":"NOT_FOUND"}}`))
	defer srv.Close()

	tr, err := NewGeminiTransport(context.Background(), []string{"k"}, srv.URL)
	require.NoError(t, err)
	_, err = tr.Generate(context.Background(), "missing", types.InvocationRequest{Prompt: "hi"})
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.False(t, tr.RotateKey())
}

func TestNewGeminiTransportNeedsKey(t *testing.T) {
	_, err := NewGeminiTransport(context.Background(), nil, "")
	assert.Error(t, err)
}

func TestNewFromConfig(t *testing.T) {
	cfg := types.LLMConfig{
		Providers: []types.ProviderConfig{
			{Name: types.ProviderGemini, Models: []string{"g1"}},
			{Name: types.ProviderAnthropic, Models: []string{"a1", "a2"}, APIKeys: []string{"k"}},
			{Name: types.ProviderClaudeCLI, Models: []string{"sonnet"}},
		},
	}
	c, err := NewFromConfig(context.Background(), cfg, nil)
	require.NoError(t, err)

	var got []string
	for _, cand := range c.Candidates() {
		got = append(got, cand.String())
	}
	assert.Equal(t, []string{"anthropic:a1", "anthropic:a2", "claude-cli:sonnet"}, got)

	_, err = NewFromConfig(context.Background(), types.LLMConfig{
		Providers: []types.ProviderConfig{{Name: types.ProviderOpenAI, Models: []string{"m"}}},
	}, nil)
	assert.ErrorContains(t, err, "no usable providers")

	_, err = NewFromConfig(context.Background(), types.LLMConfig{
		Providers: []types.ProviderConfig{{Name: "bard", Models: []string{"m"}}},
	}, nil)
	assert.ErrorContains(t, err, `unknown provider "bard"`)
}
