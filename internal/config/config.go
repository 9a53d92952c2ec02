// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config turns a viper instance into a validated types.Config.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/pdiddy/skill-factory/internal/validate"
	"github.com/pdiddy/skill-factory/pkg/types"
)

var structValidator = validator.New()

// DefaultProviders is the candidate order used when no providers are
// configured: Gemini first, then Anthropic, then the local claude CLI.
func DefaultProviders() []types.ProviderConfig {
	return []types.ProviderConfig{
		{Name: types.ProviderGemini, Models: []string{"gemini-2.5-flash", "gemini-2.0-flash", "gemini-2.0-flash-lite"}},
		{Name: types.ProviderAnthropic, Models: []string{"claude-sonnet-4-5", "claude-3-5-haiku-latest"}},
		{Name: types.ProviderClaudeCLI, Models: []string{"sonnet"}},
	}
}

// SetDefaults registers scalar defaults on v. Registering them also lets
// AutomaticEnv resolve the matching environment variables.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.rate_limit_policy", string(types.RateLimitAdvance))
	v.SetDefault("llm.rate_limit_base_delay", 10*time.Second)
	v.SetDefault("llm.server_base_delay", 5*time.Second)
	v.SetDefault("llm.retry_delay", 2*time.Second)
	v.SetDefault("llm.call_timeout", 5*time.Minute)
	v.SetDefault("llm.max_output_tokens", 4096)

	v.SetDefault("pipeline.max_attempts", 3)
	v.SetDefault("pipeline.review_mode", string(types.ReviewRules))
	v.SetDefault("pipeline.stage_delay", 2*time.Second)
	v.SetDefault("pipeline.persist_unapproved", false)
	v.SetDefault("pipeline.timezone", "Asia/Seoul")
	v.SetDefault("pipeline.prompts_dir", "prompts")
	v.SetDefault("pipeline.strategy", "auto")

	v.SetDefault("validation.min_images", 3)
	v.SetDefault("validation.image_marker", "[IMAGE_DESC:")

	v.SetDefault("sources.timeout", 30*time.Second)
	v.SetDefault("sources.user_agent", "skill-factory")
	v.SetDefault("sources.trending", "sources/trending_topics.json")
	v.SetDefault("sources.requests", "sources/user_requests.json")

	v.SetDefault("store.skills_dir", "skills")
	v.SetDefault("store.posts_dir", "_posts")
	v.SetDefault("store.data_dir", "data")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)
}

// Load applies defaults to v, unmarshals it and validates the result.
// Empty provider and validation lists take the built-in defaults.
func Load(v *viper.Viper) (types.Config, error) {
	SetDefaults(v)

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}

	if len(cfg.LLM.Providers) == 0 {
		cfg.LLM.Providers = DefaultProviders()
	}
	fillValidation(&cfg.Validation)

	if err := Validate(cfg); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// Validate checks cfg against its struct tags and reports every failing
// field in one error.
func Validate(cfg types.Config) error {
	err := structValidator.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("%s: failed %q", fieldPath(fe.Namespace()), fe.Tag())
		if fe.Param() != "" {
			msg += " (" + fe.Param() + ")"
		}
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// fieldPath drops the root type name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func fillValidation(vc *types.ValidationConfig) {
	def := validate.DefaultConfig()
	fill := func(dst *[]string, src []string) {
		if len(*dst) == 0 {
			*dst = src
		}
	}
	fill(&vc.RequiredSkillFields, def.RequiredSkillFields)
	fill(&vc.RequiredPostFields, def.RequiredPostFields)
	fill(&vc.Categories, def.Categories)
	fill(&vc.Difficulties, def.Difficulties)
	fill(&vc.ForbiddenTerms, def.ForbiddenTerms)
	fill(&vc.SecretPatterns, def.SecretPatterns)
	fill(&vc.EntryPointMarkers, def.EntryPointMarkers)
	fill(&vc.ErrorHandlingMarkers, def.ErrorHandlingMarkers)
	fill(&vc.SDKImportMarkers, def.SDKImportMarkers)
	if vc.ImageMarker == "" {
		vc.ImageMarker = def.ImageMarker
	}
}
