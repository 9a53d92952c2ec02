// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/skill-factory/pkg/types"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.LLM.MaxRetries)
	assert.Equal(t, types.RateLimitAdvance, cfg.LLM.RateLimitPolicy)
	assert.Equal(t, 10*time.Second, cfg.LLM.RateLimitBaseDelay)
	assert.Equal(t, 5*time.Minute, cfg.LLM.CallTimeout)
	assert.Equal(t, DefaultProviders(), cfg.LLM.Providers)

	assert.Equal(t, 3, cfg.Pipeline.MaxAttempts)
	assert.Equal(t, types.ReviewRules, cfg.Pipeline.ReviewMode)
	assert.Equal(t, "Asia/Seoul", cfg.Pipeline.Timezone)
	assert.Equal(t, "auto", cfg.Pipeline.Strategy)

	assert.Equal(t, 3, cfg.Validation.MinImages)
	assert.Contains(t, cfg.Validation.Categories, "Workflow")
	assert.Equal(t, "skills", cfg.Store.SkillsDir)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "skill-factory", cfg.Sources.UserAgent)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skill-factory.yaml")
	content := `
llm:
  rate_limit_policy: backoff
  retry_delay: 500ms
  providers:
    - name: openai
      models: [gpt-4o-mini]
      base_url: http://localhost:8080/v1
pipeline:
  max_attempts: 5
  review_mode: agent
  stage_delay: 0s
sources:
  timeout: 5s
  trending: https://example.com/trending.json
store:
  data_dir: /tmp/sf
logging:
  level: debug
  file: logs/sf.log
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, types.RateLimitBackoff, cfg.LLM.RateLimitPolicy)
	assert.Equal(t, 500*time.Millisecond, cfg.LLM.RetryDelay)
	require.Len(t, cfg.LLM.Providers, 1)
	assert.Equal(t, "openai", cfg.LLM.Providers[0].Name)
	assert.Equal(t, []string{"gpt-4o-mini"}, cfg.LLM.Providers[0].Models)
	assert.Equal(t, "http://localhost:8080/v1", cfg.LLM.Providers[0].BaseURL)
	assert.Equal(t, 5, cfg.Pipeline.MaxAttempts)
	assert.Equal(t, types.ReviewAgent, cfg.Pipeline.ReviewMode)
	assert.Equal(t, time.Duration(0), cfg.Pipeline.StageDelay)
	assert.Equal(t, 5*time.Second, cfg.Sources.Timeout)
	assert.Equal(t, "https://example.com/trending.json", cfg.Sources.Trending)
	assert.Equal(t, "/tmp/sf", cfg.Store.DataDir)
	assert.Equal(t, "_posts", cfg.Store.PostsDir)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "logs/sf.log", cfg.Logging.File)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name   string
		set    map[string]any
		errMsg string
	}{
		{
			name:   "unknown rate limit policy",
			set:    map[string]any{"llm.rate_limit_policy": "wait"},
			errMsg: "LLM.RateLimitPolicy",
		},
		{
			name:   "attempts out of range",
			set:    map[string]any{"pipeline.max_attempts": 11},
			errMsg: "Pipeline.MaxAttempts",
		},
		{
			name:   "unknown review mode",
			set:    map[string]any{"pipeline.review_mode": "human"},
			errMsg: "Pipeline.ReviewMode",
		},
		{
			name:   "unknown strategy",
			set:    map[string]any{"pipeline.strategy": "random"},
			errMsg: "Pipeline.Strategy",
		},
		{
			name:   "empty data dir",
			set:    map[string]any{"store.data_dir": ""},
			errMsg: "Store.DataDir",
		},
		{
			name: "provider without models",
			set: map[string]any{"llm.providers": []map[string]any{
				{"name": "gemini"},
			}},
			errMsg: "LLM.Providers[0].Models",
		},
		{
			name: "unknown provider",
			set: map[string]any{"llm.providers": []map[string]any{
				{"name": "mistral", "models": []string{"m"}},
			}},
			errMsg: "LLM.Providers[0].Name",
		},
		{
			name:   "bad log level",
			set:    map[string]any{"logging.level": "trace"},
			errMsg: "Logging.Level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			for k, val := range tt.set {
				v.Set(k, val)
			}
			_, err := Load(v)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid config")
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestFieldPath(t *testing.T) {
	assert.Equal(t, "LLM.Providers[0].Name", fieldPath("Config.LLM.Providers[0].Name"))
	assert.Equal(t, "Config", fieldPath("Config"))
}
