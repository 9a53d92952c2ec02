// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// ModelCandidate is one (provider, model) pair the LLM client may try.
type ModelCandidate struct {
	// Provider identifies the transport (e.g. "gemini", "anthropic").
	Provider string `json:"provider" yaml:"provider"`

	// Model is the provider-specific model identifier.
	Model string `json:"model" yaml:"model"`

	// Priority orders candidates; lower values are tried first.
	Priority int `json:"priority" yaml:"priority"`
}

// Key returns the provider/model identity used for deduplication.
func (c ModelCandidate) Key() string {
	return c.Provider + "/" + c.Model
}

func (c ModelCandidate) String() string {
	return fmt.Sprintf("%s:%s", c.Provider, c.Model)
}

// InvocationRequest is a single prompt sent to a text generation service.
// Stages build it once and never modify it afterwards.
type InvocationRequest struct {
	Prompt          string  `json:"prompt" yaml:"prompt"`
	SystemPrompt    string  `json:"system_prompt,omitempty" yaml:"system_prompt,omitempty"`
	MaxOutputTokens int     `json:"max_output_tokens" yaml:"max_output_tokens"`
	Temperature     float64 `json:"temperature" yaml:"temperature"`
}

// InvocationResult is the outcome of one successful invocation.
type InvocationResult struct {
	// Text is the generated response; never empty.
	Text string `json:"text" yaml:"text"`

	// Provider and Model identify the candidate that produced Text.
	Provider string `json:"provider" yaml:"provider"`
	Model    string `json:"model" yaml:"model"`
}
