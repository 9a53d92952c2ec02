// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/pdiddy/skill-factory/pkg/types"
)

// AnthropicTransport calls the Anthropic Messages API.
type AnthropicTransport struct {
	client anthropic.Client
}

// NewAnthropicTransport returns a transport authenticated with apiKey.
// baseURL is optional. SDK-level retries are disabled; the Client owns the
// retry policy.
func NewAnthropicTransport(apiKey, baseURL string) *AnthropicTransport {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &AnthropicTransport{client: anthropic.NewClient(opts...)}
}

func (t *AnthropicTransport) Name() string { return types.ProviderAnthropic }

// Generate sends req as a single user message.
func (t *AnthropicTransport) Generate(ctx context.Context, model string, req types.InvocationRequest) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   int64(req.MaxOutputTokens),
		Temperature: anthropic.Float(req.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}

	msg, err := t.client.Messages.New(ctx, params)
	if err != nil {
		status := 0
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			status = apiErr.StatusCode
		}
		return "", classify(t.Name(), model, status, err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", &Error{Kind: KindEmpty, Provider: t.Name(), Model: model, Err: fmt.Errorf("no text content (stop reason %q)", msg.StopReason)}
	}
	return b.String(), nil
}
