// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/pdiddy/skill-factory/pkg/types"
)

// GeminiTransport calls the Gemini API. It may hold several API keys and
// rotate to the next one when the active key is rate limited.
type GeminiTransport struct {
	mu      sync.Mutex
	clients []*genai.Client
	active  int
	rotated int
}

// NewGeminiTransport creates one API client per key. baseURL is optional.
func NewGeminiTransport(ctx context.Context, apiKeys []string, baseURL string) (*GeminiTransport, error) {
	if len(apiKeys) == 0 {
		return nil, fmt.Errorf("gemini: no api keys")
	}
	t := &GeminiTransport{}
	for i, key := range apiKeys {
		cc := &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		}
		if baseURL != "" {
			cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
		}
		client, err := genai.NewClient(ctx, cc)
		if err != nil {
			return nil, fmt.Errorf("gemini: creating client for key %d: %w", i+1, err)
		}
		t.clients = append(t.clients, client)
	}
	return t, nil
}

func (t *GeminiTransport) Name() string { return types.ProviderGemini }

// RotateKey moves to the next key, wrapping around after the last. It
// returns false once every key has been tried since the last ResetRotation
// or successful call.
func (t *GeminiTransport) RotateKey() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.rotated >= len(t.clients)-1 {
		return false
	}
	t.active = (t.active + 1) % len(t.clients)
	t.rotated++
	return true
}

// ResetRotation lets RotateKey cycle through every key again.
func (t *GeminiTransport) ResetRotation() {
	t.mu.Lock()
	t.rotated = 0
	t.mu.Unlock()
}

func (t *GeminiTransport) current() *genai.Client {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.clients[t.active]
}

// Generate calls GenerateContent with the system prompt as the system
// instruction.
func (t *GeminiTransport) Generate(ctx context.Context, model string, req types.InvocationRequest) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.MaxOutputTokens),
	}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}

	resp, err := t.current().Models.GenerateContent(ctx, model, genai.Text(req.Prompt), cfg)
	if err != nil {
		status := 0
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			status = apiErr.Code
		}
		return "", classify(t.Name(), model, status, err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", &Error{Kind: KindEmpty, Provider: t.Name(), Model: model, Err: errors.New("no text in candidates")}
	}

	t.ResetRotation()
	return text, nil
}
