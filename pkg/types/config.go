// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make plain
// HTTP requests (topic sources).
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "skill-factory/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// RateLimitPolicy selects how the LLM client reacts to a rate-limited
// candidate. The policy is fixed per client, never chosen per call.
type RateLimitPolicy string

const (
	// RateLimitAdvance moves to the next candidate immediately.
	RateLimitAdvance RateLimitPolicy = "advance"

	// RateLimitBackoff sleeps with exponential backoff and jitter, then
	// retries the same candidate within the retry budget.
	RateLimitBackoff RateLimitPolicy = "backoff"
)

// Provider identifiers understood by the LLM client factory.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderClaudeCLI = "claude-cli"
)

// ProviderConfig describes one text generation provider and its ordered
// model candidates.
type ProviderConfig struct {
	// Name is one of gemini, anthropic, openai, claude-cli.
	Name string `json:"name" yaml:"name" mapstructure:"name" validate:"required,oneof=gemini anthropic openai claude-cli"`

	// Models lists model identifiers in priority order.
	Models []string `json:"models" yaml:"models" mapstructure:"models" validate:"required,min=1,dive,required"`

	// APIKeys holds one or more keys; keys after the first are rotated in
	// when the provider reports a rate limit.
	APIKeys []string `json:"-" yaml:"-" mapstructure:"api_keys"`

	// BaseURL overrides the provider endpoint (OpenAI-compatible gateways).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// Command is the executable for the claude-cli provider (default "claude").
	Command string `json:"command,omitempty" yaml:"command,omitempty" mapstructure:"command"`
}

// LLMConfig holds settings for the resilient LLM client.
type LLMConfig struct {
	// Providers are tried in order; each provider's models in order.
	Providers []ProviderConfig `json:"providers" yaml:"providers" mapstructure:"providers" validate:"required,min=1,dive"`

	// MaxRetries is the number of attempts per candidate (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries" validate:"gte=1"`

	// RateLimitPolicy is advance (default) or backoff.
	RateLimitPolicy RateLimitPolicy `json:"rate_limit_policy" yaml:"rate_limit_policy" mapstructure:"rate_limit_policy" validate:"oneof=advance backoff"`

	// RateLimitBaseDelay is the backoff base for rate-limited calls (default 10s).
	RateLimitBaseDelay time.Duration `json:"rate_limit_base_delay" yaml:"rate_limit_base_delay" mapstructure:"rate_limit_base_delay"`

	// ServerBaseDelay is the backoff base for server errors (default 5s).
	ServerBaseDelay time.Duration `json:"server_base_delay" yaml:"server_base_delay" mapstructure:"server_base_delay"`

	// RetryDelay is the fixed pause after transient or unclassified errors (default 2s).
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay" mapstructure:"retry_delay"`

	// CallTimeout bounds every single provider call (default 5m).
	CallTimeout time.Duration `json:"call_timeout" yaml:"call_timeout" mapstructure:"call_timeout"`

	// MaxOutputTokens is the default output budget per call (default 4096).
	MaxOutputTokens int `json:"max_output_tokens" yaml:"max_output_tokens" mapstructure:"max_output_tokens" validate:"gte=1"`
}

// ReviewMode selects how drafted artifacts are reviewed.
type ReviewMode string

const (
	// ReviewRules runs the deterministic validator only.
	ReviewRules ReviewMode = "rules"

	// ReviewAgent asks a reviewer model for a verdict and corrections,
	// then runs the validator on the result.
	ReviewAgent ReviewMode = "agent"
)

// PipelineConfig holds settings for the generation state machine.
type PipelineConfig struct {
	// MaxAttempts bounds drafting cycles per run (default 3).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts" mapstructure:"max_attempts" validate:"gte=1,lte=10"`

	// ReviewMode is rules (default) or agent.
	ReviewMode ReviewMode `json:"review_mode" yaml:"review_mode" mapstructure:"review_mode" validate:"oneof=rules agent"`

	// StageDelay is the minimum pause between consecutive LLM stages.
	StageDelay time.Duration `json:"stage_delay" yaml:"stage_delay" mapstructure:"stage_delay"`

	// PersistUnapproved writes artifacts of abandoned runs as well.
	PersistUnapproved bool `json:"persist_unapproved" yaml:"persist_unapproved" mapstructure:"persist_unapproved"`

	// Timezone is the IANA zone used for post dates (default Asia/Seoul).
	Timezone string `json:"timezone" yaml:"timezone" mapstructure:"timezone"`

	// PromptsDir holds per-agent system prompt files; built-in prompts are
	// used for any file that is missing.
	PromptsDir string `json:"prompts_dir" yaml:"prompts_dir" mapstructure:"prompts_dir"`

	// Strategy is the default topic strategy (default auto).
	Strategy string `json:"strategy" yaml:"strategy" mapstructure:"strategy" validate:"oneof=auto keyword trend request extend"`
}

// ValidationConfig parameterizes the validator rule set.
type ValidationConfig struct {
	RequiredSkillFields []string `json:"required_skill_fields" yaml:"required_skill_fields" mapstructure:"required_skill_fields"`
	RequiredPostFields  []string `json:"required_post_fields" yaml:"required_post_fields" mapstructure:"required_post_fields"`
	Categories          []string `json:"categories" yaml:"categories" mapstructure:"categories" validate:"min=1"`
	Difficulties        []string `json:"difficulties" yaml:"difficulties" mapstructure:"difficulties" validate:"min=1"`
	ForbiddenTerms      []string `json:"forbidden_terms" yaml:"forbidden_terms" mapstructure:"forbidden_terms"`

	// SecretPatterns are regular expressions matched against generated code.
	SecretPatterns []string `json:"secret_patterns" yaml:"secret_patterns" mapstructure:"secret_patterns"`

	// MinImages is the hard minimum of image placeholders in a post (default 3).
	MinImages int `json:"min_images" yaml:"min_images" mapstructure:"min_images" validate:"gte=0"`

	// ImageMarker is the placeholder prefix counted in posts.
	ImageMarker string `json:"image_marker" yaml:"image_marker" mapstructure:"image_marker"`

	EntryPointMarkers    []string `json:"entry_point_markers" yaml:"entry_point_markers" mapstructure:"entry_point_markers"`
	ErrorHandlingMarkers []string `json:"error_handling_markers" yaml:"error_handling_markers" mapstructure:"error_handling_markers"`
	SDKImportMarkers     []string `json:"sdk_import_markers" yaml:"sdk_import_markers" mapstructure:"sdk_import_markers"`
}

// SourcesConfig points at optional topic sources. Each value is a file path
// or an http(s) URL.
type SourcesConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	Trending string `json:"trending" yaml:"trending" mapstructure:"trending"`
	Requests string `json:"requests" yaml:"requests" mapstructure:"requests"`
}

// StoreConfig holds output locations.
type StoreConfig struct {
	// SkillsDir receives one directory per generated skill.
	SkillsDir string `json:"skills_dir" yaml:"skills_dir" mapstructure:"skills_dir" validate:"required"`

	// PostsDir receives dated blog posts.
	PostsDir string `json:"posts_dir" yaml:"posts_dir" mapstructure:"posts_dir" validate:"required"`

	// DataDir holds the run database and the registry export.
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir" validate:"required"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `json:"format" yaml:"format" mapstructure:"format" validate:"oneof=console json"`

	// File enables a rotated JSON log file when set.
	File       string `json:"file" yaml:"file" mapstructure:"file"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `json:"compress" yaml:"compress" mapstructure:"compress"`
}

// Config groups all settings.
type Config struct {
	LLM        LLMConfig        `json:"llm" yaml:"llm" mapstructure:"llm"`
	Pipeline   PipelineConfig   `json:"pipeline" yaml:"pipeline" mapstructure:"pipeline"`
	Validation ValidationConfig `json:"validation" yaml:"validation" mapstructure:"validation"`
	Sources    SourcesConfig    `json:"sources" yaml:"sources" mapstructure:"sources"`
	Store      StoreConfig      `json:"store" yaml:"store" mapstructure:"store"`
	Logging    LoggingConfig    `json:"logging" yaml:"logging" mapstructure:"logging"`
}
