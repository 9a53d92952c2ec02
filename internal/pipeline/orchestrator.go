// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline generates one skill per run: it selects a topic, drafts
// SKILL.md, example.py and a blog post, reviews the drafts and revises them
// with reviewer feedback until they are approved or the attempt budget is
// spent.
//
// A run is a bounded state machine:
//
//	SelectingTopic -> Drafting -> Reviewing -> Approved
//	                     ^            |
//	                     +- Retrying -+-> Abandoned (attempt == MaxAttempts)
//
// Provider exhaustion during topic selection or drafting ends the run in
// Failed. Unparseable model output never does.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/skill-factory/internal/validate"
	"github.com/pdiddy/skill-factory/pkg/types"
)

// DefaultMaxAttempts bounds drafting cycles when the config leaves it unset.
const DefaultMaxAttempts = 3

const skippedWarning = "Validation skipped"

// Invoker sends one prompt to a text generation service.
type Invoker interface {
	Invoke(ctx context.Context, req types.InvocationRequest) (types.InvocationResult, error)
}

// Persister stores the results of finished runs.
type Persister interface {
	// ExistingTopics lists titles of skills already generated.
	ExistingTopics(ctx context.Context) ([]string, error)

	// SaveArtifacts writes the artifacts of out and returns the written paths.
	SaveArtifacts(ctx context.Context, out types.RunOutcome) ([]string, error)

	// RecordRun stores the outcome of a finished run.
	RecordRun(ctx context.Context, out types.RunOutcome) error
}

// StageError reports a stage that could not produce output.
type StageError struct {
	Stage types.StageKind
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Deps are the collaborators of an Orchestrator. Every field is optional.
type Deps struct {
	Prompts   *Prompts
	Validator *validate.Validator

	// Reviewer overrides the reviewer selected by the configured mode.
	Reviewer Reviewer

	// Persister receives finished runs; nil keeps results in memory only.
	Persister Persister

	Sources types.TopicSources

	// Progress receives one line per state transition.
	Progress io.Writer

	Now  func() time.Time
	Rand *rand.Rand
}

// RunRequest parameterizes a single run.
type RunRequest struct {
	// Topic, when set, is used instead of a topic strategy.
	Topic string

	// Strategy overrides the configured topic strategy.
	Strategy string

	// SkipValidation approves the first draft without review.
	SkipValidation bool
}

// Orchestrator drives runs. It is not safe for concurrent use.
type Orchestrator struct {
	llm      Invoker
	cfg      types.PipelineConfig
	prompts  *Prompts
	reviewer Reviewer
	store    Persister
	sources  types.TopicSources
	topics   *topicSelector
	limiter  *rate.Limiter
	loc      *time.Location
	log      *zap.Logger
	w        io.Writer
	now      func() time.Time
}

// New creates an Orchestrator.
func New(llm Invoker, cfg types.PipelineConfig, deps Deps, log *zap.Logger) (*Orchestrator, error) {
	if llm == nil {
		return nil, errors.New("pipeline: nil invoker")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyAuto
	}
	if !ValidStrategy(cfg.Strategy) {
		return nil, fmt.Errorf("pipeline: unknown topic strategy %q", cfg.Strategy)
	}

	o := &Orchestrator{
		llm:     llm,
		cfg:     cfg,
		prompts: deps.Prompts,
		store:   deps.Persister,
		sources: deps.Sources,
		loc:     LoadLocation(cfg.Timezone),
		log:     log,
		w:       deps.Progress,
		now:     deps.Now,
	}
	if o.prompts == nil {
		p, err := LoadPrompts(cfg.PromptsDir)
		if err != nil {
			return nil, err
		}
		o.prompts = p
	}
	if o.w == nil {
		o.w = io.Discard
	}
	if o.now == nil {
		o.now = time.Now
	}
	rng := deps.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	o.topics = &topicSelector{rng: rng}

	if cfg.StageDelay > 0 {
		o.limiter = rate.NewLimiter(rate.Every(cfg.StageDelay), 1)
	} else {
		o.limiter = rate.NewLimiter(rate.Inf, 1)
	}

	v := deps.Validator
	if v == nil {
		v = validate.Default()
	}
	switch {
	case deps.Reviewer != nil:
		o.reviewer = deps.Reviewer
	case cfg.ReviewMode == types.ReviewAgent:
		o.reviewer = &agentReviewer{o: o, validator: v}
	default:
		o.reviewer = RulesReviewer{Validator: v}
	}
	return o, nil
}

// Run executes one generation run. The outcome is returned even when err is
// non-nil; its State is then Failed. An abandoned run is not an error: check
// RunOutcome.Approved.
func (o *Orchestrator) Run(ctx context.Context, req RunRequest) (types.RunOutcome, error) {
	out := types.RunOutcome{
		RunID:     uuid.NewString(),
		State:     types.StateSelectingTopic,
		StartedAt: o.now(),
	}
	log := o.log.With(zap.String("run_id", out.RunID))
	pc := types.NewPipelineContext()

	strategy := req.Strategy
	if strategy == "" {
		strategy = o.cfg.Strategy
	}
	if !ValidStrategy(strategy) {
		return o.fail(ctx, out, fmt.Errorf("unknown topic strategy %q", strategy))
	}

	existing := o.existingTopics(ctx)
	fmt.Fprintf(o.w, "selecting topic (%s)\n", topicMode(req.Topic, strategy))
	topicOut, err := o.selectTopic(ctx, req.Topic, strategy, existing)
	if err != nil {
		return o.fail(ctx, out, err)
	}
	out.Topic = *topicOut.Topic
	out.Slug = topicOut.Slug
	out.Date = PostDate(out.StartedAt, o.loc)
	pc.TopicInfo = out.Topic.Map()
	pc.Append(types.StageTopic, topicOut.Text)
	fmt.Fprintf(o.w, "topic: %s [%s/%s] -> %s\n", out.Topic.Topic, out.Topic.Category, out.Topic.Difficulty, out.Slug)
	log.Info("topic selected",
		zap.String("topic", out.Topic.Topic),
		zap.String("strategy", out.Topic.Strategy),
		zap.Bool("fallback", out.Topic.Fallback))

	d := draft{topic: out.Topic, slug: out.Slug, date: out.Date}
	for {
		out.State = types.StateDrafting
		out.Attempts = pc.Attempt
		fmt.Fprintf(o.w, "attempt %d/%d: drafting\n", pc.Attempt, o.cfg.MaxAttempts)

		artifacts, err := o.draftAll(ctx, d, pc)
		if err != nil {
			return o.fail(ctx, out, err)
		}
		out.Artifacts = artifacts

		if req.SkipValidation {
			out.Validation = types.ValidationResult{Approved: true, Score: validate.MaxScore, Warnings: []string{skippedWarning}}
			out.State = types.StateApproved
			out.Approved = true
			fmt.Fprintf(o.w, "validation skipped\n")
			break
		}

		out.State = types.StateReviewing
		rev, err := o.reviewer.Review(ctx, out.Topic, pc.Attempt, artifacts)
		if err != nil {
			return o.fail(ctx, out, &StageError{Stage: types.StageReview, Err: err})
		}
		out.Artifacts = rev.Artifacts
		out.Validation = rev.Result
		fmt.Fprintf(o.w, "review: score %d, %d errors, %d warnings\n",
			rev.Result.Score, len(rev.Result.Errors), len(rev.Result.Warnings))

		if rev.Result.Approved {
			out.State = types.StateApproved
			out.Approved = true
			break
		}

		note := feedbackNote(rev)
		out.Feedback = append(out.Feedback, note)
		log.Info("draft rejected",
			zap.Int("attempt", pc.Attempt),
			zap.Int("score", rev.Result.Score),
			zap.String("reason", rev.Result.Reason()))

		if pc.Attempt >= o.cfg.MaxAttempts {
			out.State = types.StateAbandoned
			break
		}
		out.State = types.StateRetrying
		fmt.Fprintf(o.w, "retrying: %s\n", rev.Result.Reason())
		pc.Feedback = note
		pc.Attempt++
	}

	return o.finish(ctx, out)
}

// draftAll runs the design, code and post stages in order.
func (o *Orchestrator) draftAll(ctx context.Context, d draft, pc *types.PipelineContext) (types.Artifacts, error) {
	skill, err := o.design(ctx, d, pc.Feedback)
	if err != nil {
		return nil, err
	}
	pc.Append(types.StageDesign, skill.Text)

	code, err := o.code(ctx, d, skill.Text, pc.Feedback)
	if err != nil {
		return nil, err
	}
	pc.Append(types.StageCode, code.Text)

	post, err := o.post(ctx, d, skill.Text, code.Text, pc.Feedback)
	if err != nil {
		return nil, err
	}
	pc.Append(types.StagePost, post.Text)

	return types.Artifacts{
		types.ArtifactSkill: skill.Text,
		types.ArtifactCode:  code.Text,
		types.ArtifactPost:  post.Text,
	}, nil
}

// finish persists a run that reached Approved or Abandoned.
func (o *Orchestrator) finish(ctx context.Context, out types.RunOutcome) (types.RunOutcome, error) {
	out.FinishedAt = o.now()
	if o.store == nil {
		o.report(out)
		return out, nil
	}

	if out.Approved || o.cfg.PersistUnapproved {
		paths, err := o.store.SaveArtifacts(ctx, out)
		if err != nil {
			return o.fail(ctx, out, fmt.Errorf("saving artifacts: %w", err))
		}
		out.Paths = paths
		for _, p := range paths {
			fmt.Fprintf(o.w, "wrote: %s\n", p)
		}
	}
	o.record(ctx, out)
	o.report(out)
	return out, nil
}

// fail ends the run in Failed and records it.
func (o *Orchestrator) fail(ctx context.Context, out types.RunOutcome, err error) (types.RunOutcome, error) {
	out.State = types.StateFailed
	out.Approved = false
	out.Error = err.Error()
	out.FinishedAt = o.now()
	o.record(ctx, out)
	o.report(out)
	return out, err
}

// record stores out. A failure here is logged and does not change the
// outcome.
func (o *Orchestrator) record(ctx context.Context, out types.RunOutcome) {
	if o.store == nil {
		return
	}
	if err := o.store.RecordRun(context.WithoutCancel(ctx), out); err != nil {
		o.log.Warn("recording run failed", zap.String("run_id", out.RunID), zap.Error(err))
	}
}

func (o *Orchestrator) report(out types.RunOutcome) {
	switch out.State {
	case types.StateApproved:
		fmt.Fprintf(o.w, "approved after %d attempt(s): %s (score %d)\n", out.Attempts, out.Slug, out.Validation.Score)
	case types.StateAbandoned:
		fmt.Fprintf(o.w, "abandoned after %d attempt(s): %s (score %d, %s)\n",
			out.Attempts, out.Slug, out.Validation.Score, out.Validation.Reason())
	case types.StateFailed:
		fmt.Fprintf(o.w, "failed: %s\n", out.Error)
	}
	o.log.Info("run finished",
		zap.String("run_id", out.RunID),
		zap.String("state", string(out.State)),
		zap.Int("attempts", out.Attempts),
		zap.Duration("elapsed", out.FinishedAt.Sub(out.StartedAt)))
}

func (o *Orchestrator) existingTopics(ctx context.Context) []string {
	if o.store == nil {
		return nil
	}
	topics, err := o.store.ExistingTopics(ctx)
	if err != nil {
		o.log.Warn("listing existing skills failed", zap.Error(err))
		return nil
	}
	return topics
}

// feedbackNote summarizes a rejected review for the next drafting cycle.
func feedbackNote(r Review) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Rejected: %s\n", r.Result.Reason())
	if len(r.Result.Errors) > 0 {
		b.WriteString("Errors:\n")
		for _, e := range r.Result.Errors {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}
	if len(r.Result.Warnings) > 0 {
		b.WriteString("Warnings:\n")
		for _, w := range r.Result.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	if notes := strings.TrimSpace(r.Notes); notes != "" {
		fmt.Fprintf(&b, "Reviewer notes:\n%s\n", notes)
	}
	return b.String()
}

func topicMode(userTopic, strategy string) string {
	if strings.TrimSpace(userTopic) != "" {
		return strategyUserTopic
	}
	return strategy
}
