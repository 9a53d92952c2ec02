// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/skill-factory/pkg/types"
)

// NewFromConfig builds transports and candidates from cfg. Providers without
// credentials are skipped with a warning; claude-cli needs none. Candidate
// priority follows the configured provider order, then model order.
func NewFromConfig(ctx context.Context, cfg types.LLMConfig, log *zap.Logger) (*Client, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var transports []Transport
	var candidates []types.ModelCandidate
	for _, p := range cfg.Providers {
		t, err := newTransport(ctx, p)
		if err != nil {
			return nil, err
		}
		if t == nil {
			log.Warn("provider skipped, no api key", zap.String("provider", p.Name))
			continue
		}
		transports = append(transports, t)
		for _, m := range p.Models {
			candidates = append(candidates, types.ModelCandidate{
				Provider: p.Name,
				Model:    m,
				Priority: len(candidates),
			})
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no usable providers: configure an api key or the claude-cli provider")
	}

	return New(transports, candidates, Options{
		MaxRetries:         cfg.MaxRetries,
		RateLimitPolicy:    cfg.RateLimitPolicy,
		RateLimitBaseDelay: cfg.RateLimitBaseDelay,
		ServerBaseDelay:    cfg.ServerBaseDelay,
		RetryDelay:         cfg.RetryDelay,
		CallTimeout:        cfg.CallTimeout,
		MaxOutputTokens:    cfg.MaxOutputTokens,
	}, log)
}

// newTransport returns nil, nil when the provider has no key.
func newTransport(ctx context.Context, p types.ProviderConfig) (Transport, error) {
	switch p.Name {
	case types.ProviderClaudeCLI:
		return NewClaudeCLITransport(p.Command), nil
	case types.ProviderGemini:
		if len(p.APIKeys) == 0 {
			return nil, nil
		}
		return NewGeminiTransport(ctx, p.APIKeys, p.BaseURL)
	case types.ProviderAnthropic:
		if len(p.APIKeys) == 0 {
			return nil, nil
		}
		return NewAnthropicTransport(p.APIKeys[0], p.BaseURL), nil
	case types.ProviderOpenAI:
		if len(p.APIKeys) == 0 {
			return nil, nil
		}
		return NewOpenAITransport(p.APIKeys[0], p.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", p.Name)
	}
}
