// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/pdiddy/skill-factory/pkg/types"
)

// OpenAITransport calls a chat completions endpoint. Any OpenAI-compatible
// gateway works when baseURL is set.
type OpenAITransport struct {
	client openai.Client
}

// NewOpenAITransport returns a transport authenticated with apiKey.
func NewOpenAITransport(apiKey, baseURL string) *OpenAITransport {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAITransport{client: openai.NewClient(opts...)}
}

func (t *OpenAITransport) Name() string { return types.ProviderOpenAI }

func (t *OpenAITransport) Generate(ctx context.Context, model string, req types.InvocationRequest) (string, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	resp, err := t.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(model),
		Messages:            messages,
		MaxCompletionTokens: openai.Int(int64(req.MaxOutputTokens)),
		Temperature:         openai.Float(req.Temperature),
	})
	if err != nil {
		status := 0
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			status = apiErr.StatusCode
		}
		return "", classify(t.Name(), model, status, err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", &Error{Kind: KindEmpty, Provider: t.Name(), Model: model, Err: errors.New("no choices with content")}
	}
	return resp.Choices[0].Message.Content, nil
}
