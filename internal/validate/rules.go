// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"fmt"
	"slices"
	"strings"

	"github.com/pdiddy/skill-factory/internal/parser"
)

func (v *Validator) checkSkill(doc string, f *findings) {
	meta, _, found, err := parser.SplitFrontMatter(doc)
	switch {
	case err != nil:
		f.errorf("SKILL.md: YAML parse error - %v", err)
	case !found:
		f.errorf("SKILL.md: Missing front matter")
		return
	default:
		v.requireFields("SKILL.md", meta, v.cfg.RequiredSkillFields, f)
		if c, ok := meta["category"]; ok && !slices.Contains(v.cfg.Categories, fmt.Sprint(c)) {
			f.errorf("SKILL.md: Invalid category '%v'", c)
		}
		if d, ok := meta["difficulty"]; ok && !slices.Contains(v.cfg.Difficulties, fmt.Sprint(d)) {
			f.errorf("SKILL.md: Invalid difficulty '%v'", d)
		}
	}

	if !hasFence(doc, "python", "bash") {
		f.warnf("SKILL.md: No code examples found")
	}
}

func (v *Validator) checkCode(code string, f *findings) {
	for _, re := range v.secrets {
		if re.MatchString(code) {
			f.errorf("Code: Possible hardcoded API key detected")
			break
		}
	}

	if !containsAny(strings.ToLower(code), lowerAll(v.cfg.SDKImportMarkers)) {
		f.warnf("Code: No Anthropic import found")
	}
	if !containsAny(code, v.cfg.EntryPointMarkers) {
		f.warnf("Code: No main function or entry point")
	}
	if !containsAny(code, v.cfg.ErrorHandlingMarkers) {
		f.warnf("Code: No error handling found")
	}
}

func (v *Validator) checkPost(doc string, f *findings) {
	meta, body, found, err := parser.SplitFrontMatter(doc)
	if err != nil {
		f.errorf("Post: YAML parse error - %v", err)
		return
	}
	if !found {
		f.errorf("Post: Missing front matter")
		return
	}

	v.requireFields("Post", meta, v.cfg.RequiredPostFields, f)
	for _, c := range categoryList(meta["categories"]) {
		if !slices.Contains(v.cfg.Categories, c) {
			f.errorf("Post: Invalid category '%s'", c)
		}
	}

	lower := strings.ToLower(doc)
	for _, term := range v.cfg.ForbiddenTerms {
		if strings.Contains(lower, strings.ToLower(term)) {
			f.errorf("Post: Forbidden word found '%s'", term)
		}
	}

	if n := strings.Count(doc, v.cfg.ImageMarker); n < v.cfg.MinImages {
		f.errorf("Post: Only %d images found (minimum %d required)", n, v.cfg.MinImages)
	}

	if !hasFence(body) {
		f.warnf("Post: No code blocks found")
	}

	if sp, ok := meta["skill_path"]; ok {
		path := fmt.Sprint(sp)
		if !strings.Contains(body, path) && !strings.Contains(body, "/skills/") {
			f.warnf("Post: skill_path not referenced in body")
		}
	}
}

func (v *Validator) requireFields(label string, meta map[string]any, fields []string, f *findings) {
	for _, field := range fields {
		if _, ok := meta[field]; !ok {
			f.errorf("%s: Missing required field '%s'", label, field)
		}
	}
}

// categoryList accepts a YAML list or a single scalar.
func categoryList(v any) []string {
	switch c := v.(type) {
	case nil:
		return nil
	case []any:
		out := make([]string, 0, len(c))
		for _, item := range c {
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return []string{fmt.Sprint(c)}
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
