// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"go.uber.org/zap"

	"github.com/pdiddy/skill-factory/internal/parser"
	"github.com/pdiddy/skill-factory/internal/validate"
	"github.com/pdiddy/skill-factory/pkg/types"
)

// Review is the outcome of one review pass.
type Review struct {
	// Result always carries the validator score.
	Result types.ValidationResult

	// Artifacts are the reviewed artifacts, including any corrections.
	Artifacts types.Artifacts

	// Notes is free-form reviewer feedback for the next attempt.
	Notes string
}

// Reviewer judges a drafted artifact set.
type Reviewer interface {
	Review(ctx context.Context, topic types.TopicInfo, attempt int, a types.Artifacts) (Review, error)
}

// RulesReviewer runs the deterministic validator only.
type RulesReviewer struct {
	Validator *validate.Validator
}

// Review implements Reviewer.
func (r RulesReviewer) Review(_ context.Context, _ types.TopicInfo, _ int, a types.Artifacts) (Review, error) {
	return Review{Result: r.Validator.Validate(a), Artifacts: a}, nil
}

// agentReviewer asks a model to approve or reject the draft, applies the
// corrections it returns and then runs the validator on the result.
type agentReviewer struct {
	o         *Orchestrator
	validator *validate.Validator
}

func (r *agentReviewer) Review(ctx context.Context, topic types.TopicInfo, attempt int, a types.Artifacts) (Review, error) {
	pre := r.validator.Validate(a)

	prompt, err := render(reviewTmpl, promptData{
		Topic:    topic,
		Attempt:  attempt,
		Skill:    a[types.ArtifactSkill],
		Code:     a[types.ArtifactCode],
		Post:     a[types.ArtifactPost],
		Errors:   pre.Errors,
		Warnings: pre.Warnings,
		Markers:  primaryMarkers(reviewGrammar),
	})
	if err != nil {
		return Review{}, err
	}

	raw, err := r.o.invoke(ctx, types.StageReview, AgentReviewer, prompt, reviewTemperature)
	if err != nil {
		if ctx.Err() != nil {
			return Review{}, ctx.Err()
		}
		r.o.log.Warn("review agent failed, using rule check", zap.Error(err))
		return Review{Result: pre, Artifacts: a}, nil
	}

	verdict := parseReview(raw)
	fixed := a.Clone()
	var notes []string
	for _, c := range []struct {
		kind    types.ArtifactKind
		text    string
		label   string
		cleanup func(string) string
	}{
		{types.ArtifactSkill, verdict.skill, "SKILL.md", unwrapDocument},
		{types.ArtifactCode, verdict.code, "example.py", cleanCode},
		{types.ArtifactPost, verdict.post, "post", unwrapDocument},
	} {
		if c.text == "" {
			continue
		}
		updated := c.cleanup(c.text)
		ins, del := diffSize(fixed[c.kind], updated)
		if ins == 0 && del == 0 {
			continue
		}
		fixed[c.kind] = updated
		notes = append(notes, fmt.Sprintf("reviewer revised %s (+%d/-%d chars)", c.label, ins, del))
		r.o.log.Info("review correction applied",
			zap.String("artifact", c.label), zap.Int("inserted", ins), zap.Int("deleted", del))
	}

	res := r.validator.Validate(fixed)
	if !verdict.approved {
		reason := "Review: rejected"
		if first := firstLine(verdict.feedback); first != "" {
			reason += " - " + first
		}
		res.Errors = append(res.Errors, reason)
		res.Approved = false
		res.Score = validate.Score(len(res.Errors), len(res.Warnings))
	}

	if verdict.feedback != "" {
		notes = append([]string{verdict.feedback}, notes...)
	}
	return Review{Result: res, Artifacts: fixed, Notes: strings.Join(notes, "\n")}, nil
}

type reviewVerdict struct {
	approved bool
	feedback string

	skill, code, post string
}

// parseReview reads a review response. Without a verdict section the whole
// response is searched for the verdict words; corrections need sections.
func parseReview(raw string) reviewVerdict {
	res := parser.Extract(raw, reviewGrammar)
	if res.Fallback {
		return reviewVerdict{approved: approves(raw), feedback: strings.TrimSpace(raw)}
	}
	return reviewVerdict{
		approved: approves(res.Text(sectionVerdict)),
		feedback: res.Text(sectionFeedback),
		skill:    res.Text(sectionSkill),
		code:     res.Text(sectionCode),
		post:     res.Text(sectionPost),
	}
}

// approves reports an APPROVE verdict that is not also a REJECT.
func approves(s string) bool {
	u := strings.ToUpper(s)
	return strings.Contains(u, "APPROVE") && !strings.Contains(u, "REJECT")
}

// diffSize counts inserted and deleted characters between a and b.
func diffSize(a, b string) (inserted, deleted int) {
	if a == b {
		return 0, 0
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(a, b, false))
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			inserted += len([]rune(d.Text))
		case diffmatchpatch.DiffDelete:
			deleted += len([]rune(d.Text))
		}
	}
	return inserted, deleted
}

func firstLine(s string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(first)
}
