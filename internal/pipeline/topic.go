// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/skill-factory/internal/parser"
	"github.com/pdiddy/skill-factory/pkg/types"
)

// Topic selection strategies.
const (
	StrategyAuto    = "auto"
	StrategyKeyword = "keyword"
	StrategyTrend   = "trend"
	StrategyRequest = "request"
	StrategyExtend  = "extend"

	strategyUserTopic = "user_request"
)

// strategyLabels are the values recorded in TopicInfo.Strategy.
var strategyLabels = map[string]string{
	StrategyKeyword: "keyword_combination",
	StrategyTrend:   "trend_based",
	StrategyRequest: "user_request",
	StrategyExtend:  "skill_extension",
}

var topicKeywords = []string{
	"PDF", "API", "Git", "문서", "코드", "데이터", "파일", "이미지",
	"분석", "생성", "변환", "요약", "검증", "자동화", "모니터링",
}

const (
	keywordSample = 5
	defaultTrends = "MCP, Claude Code, AI Agent, Workflow Automation"
)

// ValidStrategy reports whether s names a strategy.
func ValidStrategy(s string) bool {
	return s == StrategyAuto || strategyLabels[s] != ""
}

// topicSelector turns a strategy and its inputs into a topic prompt.
type topicSelector struct {
	rng *rand.Rand
}

// resolve picks a concrete strategy. Auto chooses among keyword, trend and
// extend, plus request when the queue is not empty. Request and extend
// degrade to keyword when they have nothing to work from.
func (s *topicSelector) resolve(strategy string, existing []string, src types.TopicSources) string {
	if strategy == StrategyAuto || strategy == "" {
		choices := []string{StrategyKeyword, StrategyTrend, StrategyExtend}
		if len(src.Requests) > 0 {
			choices = append(choices, StrategyRequest)
		}
		strategy = choices[s.rng.IntN(len(choices))]
	}
	switch {
	case strategy == StrategyRequest && len(src.Requests) == 0:
		return StrategyKeyword
	case strategy == StrategyExtend && len(existing) == 0:
		return StrategyKeyword
	}
	return strategy
}

// prompt fills promptData for strategy, which must already be resolved.
func (s *topicSelector) prompt(strategy string, existing []string, src types.TopicSources) promptData {
	data := promptData{Existing: existing, StrategyName: strategyLabels[strategy]}

	var b strings.Builder
	switch strategy {
	case StrategyKeyword:
		perm := s.rng.Perm(len(topicKeywords))
		sample := make([]string, 0, keywordSample)
		for _, i := range perm[:min(keywordSample, len(perm))] {
			sample = append(sample, topicKeywords[i])
		}
		fmt.Fprintf(&b, "Strategy: keyword combination (keyword_combination)\n\n")
		fmt.Fprintf(&b, "Combine some of these keywords into a new skill topic:\n%s\n\n", strings.Join(sample, ", "))
		b.WriteString("Examples:\n- \"PDF\" + \"summary\" -> \"PDF summarizer skill\"\n- \"Git\" + \"analysis\" -> \"Git commit analysis skill\"\n")

	case StrategyTrend:
		trends := defaultTrends
		if len(src.Trending) > 0 {
			if js, err := json.MarshalIndent(src.Trending, "", "  "); err == nil {
				trends = string(js)
			}
		}
		fmt.Fprintf(&b, "Strategy: trend based (trend_based)\n\nCurrent trending topics:\n%s\n\n", trends)
		b.WriteString("Pick a skill topic that reflects these trends.\n")

	case StrategyRequest:
		req := src.Requests[0]
		fmt.Fprintf(&b, "Strategy: user request (user_request)\n\nPending request:\n")
		fmt.Fprintf(&b, "- Topic: %s\n- Category hint: %s\n- Priority: %s\n\n", orNA(req.Topic), orNA(req.CategoryHint), orDefault(req.Priority, "normal"))
		b.WriteString("Define a skill that answers this request.\n")

	case StrategyExtend:
		base := existing[s.rng.IntN(len(existing))]
		fmt.Fprintf(&b, "Strategy: skill extension (skill_extension)\n\n")
		fmt.Fprintf(&b, "Propose a new skill that extends or complements the existing skill %q.\n\n", base)
		b.WriteString("Examples:\n- \"basic API call\" -> \"API call with rate limiting\"\n- \"single file analysis\" -> \"whole directory analysis\"\n")
	}
	data.StrategyBlock = b.String()
	return data
}

// parseTopic reads the YAML block of a topic response. Unparseable or
// untitled responses yield the default topic with Fallback set.
func parseTopic(raw, strategyLabel string) types.TopicInfo {
	var t types.TopicInfo
	if err := yaml.Unmarshal([]byte(parser.FencedBlock(raw, "yaml")), &t); err != nil || strings.TrimSpace(t.Topic) == "" {
		return defaultTopic(strategyLabel)
	}
	t.Topic = strings.TrimSpace(t.Topic)
	if t.Strategy == "" {
		t.Strategy = strategyLabel
	}
	t.Category = normalizeCategory(t.Category)
	t.Difficulty = normalizeDifficulty(t.Difficulty)
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return t
}

func defaultTopic(strategyLabel string) types.TopicInfo {
	return types.TopicInfo{
		Topic:       "Claude Code 기본 스킬",
		Category:    types.CategorySkill,
		Difficulty:  types.DifficultyBeginner,
		Strategy:    strategyLabel,
		Tags:        []string{"Claude", "기본"},
		Description: "Claude Code 기본 사용법 스킬",
		Fallback:    true,
	}
}

func normalizeCategory(c types.Category) types.Category {
	for _, v := range []types.Category{types.CategoryWorkflow, types.CategoryAgent, types.CategorySkill} {
		if strings.EqualFold(strings.TrimSpace(string(c)), string(v)) {
			return v
		}
	}
	return types.CategorySkill
}

func normalizeDifficulty(d types.Difficulty) types.Difficulty {
	for _, v := range []types.Difficulty{types.DifficultyBeginner, types.DifficultyIntermediate, types.DifficultyAdvanced} {
		if strings.EqualFold(strings.TrimSpace(string(d)), string(v)) {
			return v
		}
	}
	return types.DifficultyIntermediate
}

func orNA(s string) string { return orDefault(s, "N/A") }

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
