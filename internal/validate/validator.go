// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate scores generated skill artifacts against a fixed rule
// set. Errors block approval; warnings only lower the score.
package validate

import (
	"fmt"
	"regexp"

	"github.com/pdiddy/skill-factory/pkg/types"
)

const (
	// MaxScore is the score of a result with no findings.
	MaxScore = 100

	errorPenalty   = 10
	warningPenalty = 2
)

var defaultSecrets = mustCompileAll(DefaultConfig().SecretPatterns)

func mustCompileAll(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

// DefaultConfig returns the built-in rule set.
func DefaultConfig() types.ValidationConfig {
	return types.ValidationConfig{
		RequiredSkillFields: []string{"name", "version", "category", "difficulty"},
		RequiredPostFields:  []string{"title", "date", "categories", "skill_path", "difficulty"},
		Categories: []string{
			string(types.CategoryWorkflow), string(types.CategoryAgent), string(types.CategorySkill),
		},
		Difficulties: []string{
			string(types.DifficultyBeginner), string(types.DifficultyIntermediate), string(types.DifficultyAdvanced),
		},
		ForbiddenTerms: []string{"자동 생성", "AI Pipeline", "Gemini", "AutoBlog", "auto-generated", "자동생성"},
		SecretPatterns: []string{
			`sk-ant-[a-zA-Z0-9-_]{40,}`,
			`api_key\s*=\s*["'][^"']{20,}["']`,
			`ANTHROPIC_API_KEY\s*=\s*["'][^"']+["']`,
		},
		MinImages:            3,
		ImageMarker:          "[IMAGE_DESC:",
		EntryPointMarkers:    []string{"def main", "if __name__"},
		ErrorHandlingMarkers: []string{"try:", "except"},
		SDKImportMarkers:     []string{"anthropic"},
	}
}

// Validator applies the rule set. It holds no per-call state.
type Validator struct {
	cfg     types.ValidationConfig
	secrets []*regexp.Regexp
}

// New compiles cfg. Empty lists and a zero image marker fall back to the
// defaults; MinImages is used as given.
func New(cfg types.ValidationConfig) (*Validator, error) {
	def := DefaultConfig()
	fill := func(dst *[]string, src []string) {
		if len(*dst) == 0 {
			*dst = src
		}
	}
	fill(&cfg.RequiredSkillFields, def.RequiredSkillFields)
	fill(&cfg.RequiredPostFields, def.RequiredPostFields)
	fill(&cfg.Categories, def.Categories)
	fill(&cfg.Difficulties, def.Difficulties)
	fill(&cfg.ForbiddenTerms, def.ForbiddenTerms)
	fill(&cfg.SecretPatterns, def.SecretPatterns)
	fill(&cfg.EntryPointMarkers, def.EntryPointMarkers)
	fill(&cfg.ErrorHandlingMarkers, def.ErrorHandlingMarkers)
	fill(&cfg.SDKImportMarkers, def.SDKImportMarkers)
	if cfg.ImageMarker == "" {
		cfg.ImageMarker = def.ImageMarker
	}

	v := &Validator{cfg: cfg}
	for _, p := range cfg.SecretPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compiling secret pattern %q: %w", p, err)
		}
		v.secrets = append(v.secrets, re)
	}
	return v, nil
}

// Default returns a validator with the built-in rule set.
func Default() *Validator {
	return &Validator{cfg: DefaultConfig(), secrets: defaultSecrets}
}

// Validate checks the skill document, the example code and the blog post.
// Missing artifacts are treated as empty text.
func (v *Validator) Validate(a types.Artifacts) types.ValidationResult {
	var f findings
	v.checkSkill(a[types.ArtifactSkill], &f)
	v.checkCode(a[types.ArtifactCode], &f)
	v.checkPost(a[types.ArtifactPost], &f)

	return types.ValidationResult{
		Approved: len(f.errors) == 0,
		Score:    Score(len(f.errors), len(f.warnings)),
		Errors:   f.errors,
		Warnings: f.warnings,
	}
}

// Score is MaxScore minus 10 per error and 2 per warning, clamped to
// [0, MaxScore].
func Score(errors, warnings int) int {
	s := MaxScore - errorPenalty*errors - warningPenalty*warnings
	return max(0, min(MaxScore, s))
}

type findings struct {
	errors   []string
	warnings []string
}

func (f *findings) errorf(format string, args ...any) {
	f.errors = append(f.errors, fmt.Sprintf(format, args...))
}

func (f *findings) warnf(format string, args ...any) {
	f.warnings = append(f.warnings, fmt.Sprintf(format, args...))
}
