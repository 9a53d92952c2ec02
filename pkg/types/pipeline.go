// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"slices"
	"time"
)

// Category classifies a generated skill.
type Category string

const (
	CategoryWorkflow Category = "Workflow"
	CategoryAgent    Category = "Agent"
	CategorySkill    Category = "Skill"
)

// Difficulty classifies the expected reader level.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// TopicInfo is the structured part of the Topic stage output.
type TopicInfo struct {
	// Topic is the human-readable title of the skill.
	Topic string `json:"topic" yaml:"topic"`

	// Category is one of Workflow, Agent, Skill.
	Category Category `json:"category" yaml:"category"`

	// Difficulty is one of beginner, intermediate, advanced.
	Difficulty Difficulty `json:"difficulty" yaml:"difficulty"`

	// Strategy records how the topic was chosen (keyword_combination, trend_based, ...).
	Strategy string `json:"strategy_used" yaml:"strategy_used"`

	// Tags are short topic labels.
	Tags []string `json:"tags" yaml:"tags"`

	// Description is a one-line summary.
	Description string `json:"description" yaml:"description"`

	// Fallback is set when the model response could not be parsed and
	// default values were substituted.
	Fallback bool `json:"fallback,omitempty" yaml:"fallback,omitempty"`
}

// Map returns the topic as a string-keyed mapping for prompt contexts.
func (t TopicInfo) Map() map[string]any {
	return map[string]any{
		"topic":         t.Topic,
		"category":      string(t.Category),
		"difficulty":    string(t.Difficulty),
		"strategy_used": t.Strategy,
		"tags":          t.Tags,
		"description":   t.Description,
	}
}

// StageKind identifies the variant carried by a StageOutput.
type StageKind string

const (
	StageTopic  StageKind = "topic"
	StageDesign StageKind = "design"
	StageCode   StageKind = "code"
	StagePost   StageKind = "post"
	StageReview StageKind = "review"
)

// StageOutput is the tagged result of one pipeline stage. Topic is set only
// for StageTopic; every output carries the topic slug so artifacts can be
// placed next to each other.
type StageOutput struct {
	Kind StageKind `json:"kind" yaml:"kind"`
	Slug string    `json:"slug" yaml:"slug"`
	Raw  string    `json:"raw" yaml:"raw"`
	Text string    `json:"text" yaml:"text"`

	Topic *TopicInfo `json:"topic,omitempty" yaml:"topic,omitempty"`
}

// ArtifactKind names one generated text blob.
type ArtifactKind string

const (
	ArtifactSkill ArtifactKind = "skill"
	ArtifactCode  ArtifactKind = "code"
	ArtifactPost  ArtifactKind = "post"
)

// Artifacts is the set of named text blobs produced by a drafting cycle.
type Artifacts map[ArtifactKind]string

// Clone returns a copy of the artifact set.
func (a Artifacts) Clone() Artifacts {
	out := make(Artifacts, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Kinds returns the kinds present in a: skill, code, post first, then any
// other kinds in lexical order.
func (a Artifacts) Kinds() []ArtifactKind {
	kinds := make([]ArtifactKind, 0, len(a))
	for _, k := range []ArtifactKind{ArtifactSkill, ArtifactCode, ArtifactPost} {
		if _, ok := a[k]; ok {
			kinds = append(kinds, k)
		}
	}
	var extra []ArtifactKind
	for k := range a {
		if k != ArtifactSkill && k != ArtifactCode && k != ArtifactPost {
			extra = append(extra, k)
		}
	}
	slices.Sort(extra)
	return append(kinds, extra...)
}

// StageArtifact is one entry of the ordered stage log.
type StageArtifact struct {
	Stage StageKind `json:"stage" yaml:"stage"`
	Text  string    `json:"text" yaml:"text"`
}

// PipelineContext carries state between stages of one run.
type PipelineContext struct {
	TopicInfo      map[string]any  `json:"topic_info" yaml:"topic_info"`
	StageArtifacts []StageArtifact `json:"stage_artifacts" yaml:"stage_artifacts"`
	Attempt        int             `json:"attempt" yaml:"attempt"`
	Feedback       string          `json:"feedback,omitempty" yaml:"feedback,omitempty"`
}

// NewPipelineContext returns a context positioned at the first attempt.
func NewPipelineContext() *PipelineContext {
	return &PipelineContext{
		TopicInfo: map[string]any{},
		Attempt:   1,
	}
}

// Append records a stage's output.
func (p *PipelineContext) Append(stage StageKind, text string) {
	p.StageArtifacts = append(p.StageArtifacts, StageArtifact{Stage: stage, Text: text})
}

// Latest returns the most recent output of stage, if any.
func (p *PipelineContext) Latest(stage StageKind) (string, bool) {
	for i := len(p.StageArtifacts) - 1; i >= 0; i-- {
		if p.StageArtifacts[i].Stage == stage {
			return p.StageArtifacts[i].Text, true
		}
	}
	return "", false
}

// ValidationResult is the verdict of one validation pass.
type ValidationResult struct {
	Approved bool     `json:"approved" yaml:"approved"`
	Score    int      `json:"score" yaml:"score"`
	Errors   []string `json:"errors" yaml:"errors"`
	Warnings []string `json:"warnings" yaml:"warnings"`
}

// Reason returns the first error, or an empty string when approved.
func (v ValidationResult) Reason() string {
	if len(v.Errors) == 0 {
		return ""
	}
	return v.Errors[0]
}

// RunState is a state of the generation state machine.
type RunState string

const (
	StateSelectingTopic RunState = "selecting_topic"
	StateDrafting       RunState = "drafting"
	StateReviewing      RunState = "reviewing"
	StateRetrying       RunState = "retrying"
	StateApproved       RunState = "approved"
	StateAbandoned      RunState = "abandoned"
	StateFailed         RunState = "failed"
)

// Terminal reports whether no further transitions happen from s.
func (s RunState) Terminal() bool {
	return s == StateApproved || s == StateAbandoned || s == StateFailed
}

// RunOutcome is what a pipeline run hands back to its caller.
type RunOutcome struct {
	RunID      string           `json:"run_id" yaml:"run_id"`
	State      RunState         `json:"state" yaml:"state"`
	Approved   bool             `json:"approved" yaml:"approved"`
	Topic      TopicInfo        `json:"topic" yaml:"topic"`
	Slug       string           `json:"slug" yaml:"slug"`
	Date       string           `json:"date" yaml:"date"`
	Artifacts  Artifacts        `json:"artifacts" yaml:"artifacts"`
	Validation ValidationResult `json:"validation" yaml:"validation"`
	Attempts   int              `json:"attempts" yaml:"attempts"`
	Feedback   []string         `json:"feedback,omitempty" yaml:"feedback,omitempty"`
	Paths      []string         `json:"paths,omitempty" yaml:"paths,omitempty"`
	Error      string           `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt  time.Time        `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time        `json:"finished_at" yaml:"finished_at"`
}

// Unapproved reports whether the run ended with artifacts that did not pass
// review. Callers decide whether to publish them.
func (o RunOutcome) Unapproved() bool {
	return o.State == StateAbandoned && !o.Approved
}

// TopicRequest is one queued user request for a skill.
type TopicRequest struct {
	Topic        string `json:"topic" yaml:"topic"`
	CategoryHint string `json:"category_hint,omitempty" yaml:"category_hint,omitempty"`
	Priority     string `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// TopicSources holds optional inputs for topic selection.
type TopicSources struct {
	// Trending maps a source name to its current trending topics.
	Trending map[string]any `json:"trending,omitempty" yaml:"trending,omitempty"`

	// Requests is the pending user request queue, oldest first.
	Requests []TopicRequest `json:"requests,omitempty" yaml:"requests,omitempty"`
}
