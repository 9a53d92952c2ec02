// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/skill-factory/internal/parser"
	"github.com/pdiddy/skill-factory/pkg/types"
)

// Section names used by the stage grammars.
const (
	sectionSkill    = "skill_md"
	sectionNotes    = "notes"
	sectionCode     = "code"
	sectionPost     = "post"
	sectionVerdict  = "verdict"
	sectionFeedback = "feedback"
)

var (
	designGrammar = parser.Grammar{
		{Name: sectionSkill, Markers: []string{"===SKILL_MD===", "===SKILL==="}},
		{Name: sectionNotes, Markers: []string{"===NOTES==="}},
	}
	codeGrammar = parser.Grammar{
		{Name: sectionCode, Markers: []string{"===CODE===", "===EXAMPLE_PY==="}},
	}
	postGrammar = parser.Grammar{
		{Name: sectionPost, Markers: []string{"===POST==="}},
	}
	reviewGrammar = parser.Grammar{
		{Name: sectionVerdict, Markers: []string{"===VERDICT==="}},
		{Name: sectionFeedback, Markers: []string{"===FEEDBACK==="}},
		{Name: sectionSkill, Markers: []string{"===SKILL_MD===", "===SKILL==="}},
		{Name: sectionCode, Markers: []string{"===CODE===", "===EXAMPLE_PY==="}},
		{Name: sectionPost, Markers: []string{"===POST==="}},
	}
)

// Sampling temperatures per stage.
const (
	topicTemperature  = 0.9
	draftTemperature  = 0.7
	reviewTemperature = 0.2
)

const shebang = "#!/usr/bin/env python3"

// primaryMarkers lists the preferred sentinel of every section in g.
func primaryMarkers(g parser.Grammar) []string {
	out := make([]string, 0, len(g))
	for _, s := range g {
		if len(s.Markers) > 0 {
			out = append(out, s.Markers[0])
		}
	}
	return out
}

// draft identifies the skill being drafted.
type draft struct {
	topic types.TopicInfo
	slug  string
	date  string
}

func (d draft) data(g parser.Grammar) promptData {
	return promptData{Topic: d.topic, Slug: d.slug, Date: d.date, Markers: primaryMarkers(g)}
}

// invoke sends one stage prompt. Provider failures are wrapped in a
// StageError naming stage.
func (o *Orchestrator) invoke(ctx context.Context, stage types.StageKind, agent, prompt string, temperature float64) (string, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return "", &StageError{Stage: stage, Err: err}
	}
	res, err := o.llm.Invoke(ctx, types.InvocationRequest{
		Prompt:       prompt,
		SystemPrompt: o.prompts.System(agent),
		Temperature:  temperature,
	})
	if err != nil {
		return "", &StageError{Stage: stage, Err: err}
	}
	o.log.Debug("stage response",
		zap.String("stage", string(stage)),
		zap.String("provider", res.Provider),
		zap.String("model", res.Model),
		zap.Int("chars", len(res.Text)))
	return res.Text, nil
}

// selectTopic runs the topic stage. A non-empty userTopic replaces the
// strategy; a response without a usable YAML block degrades to the default
// topic (keeping userTopic as the title when one was given).
func (o *Orchestrator) selectTopic(ctx context.Context, userTopic, strategy string, existing []string) (types.StageOutput, error) {
	var (
		prompt string
		label  string
		err    error
	)
	if userTopic = strings.TrimSpace(userTopic); userTopic != "" {
		label = strategyUserTopic
		prompt, err = render(userTopicTmpl, promptData{Topic: types.TopicInfo{Topic: userTopic}})
	} else {
		resolved := o.topics.resolve(strategy, existing, o.sources)
		label = strategyLabels[resolved]
		prompt, err = render(topicTmpl, o.topics.prompt(resolved, existing, o.sources))
	}
	if err != nil {
		return types.StageOutput{}, err
	}

	raw, err := o.invoke(ctx, types.StageTopic, AgentTopic, prompt, topicTemperature)
	if err != nil {
		return types.StageOutput{}, err
	}

	topic := parseTopic(raw, label)
	if topic.Fallback {
		if userTopic != "" {
			topic.Topic = userTopic
		}
		o.log.Warn("topic response unparseable, using defaults", zap.String("topic", topic.Topic))
	}
	return types.StageOutput{
		Kind:  types.StageTopic,
		Slug:  Slugify(topic.Topic),
		Raw:   raw,
		Text:  topic.Topic,
		Topic: &topic,
	}, nil
}

// design drafts SKILL.md.
func (o *Orchestrator) design(ctx context.Context, d draft, feedback string) (types.StageOutput, error) {
	data := d.data(designGrammar)
	data.Feedback = feedback
	prompt, err := render(designTmpl, data)
	if err != nil {
		return types.StageOutput{}, err
	}
	raw, err := o.invoke(ctx, types.StageDesign, AgentDesigner, prompt, draftTemperature)
	if err != nil {
		return types.StageOutput{}, err
	}

	text := sectionOrRaw(parser.Extract(raw, designGrammar), sectionSkill)
	text, err = ensureSkillFrontMatter(unwrapDocument(text), d)
	if err != nil {
		return types.StageOutput{}, err
	}
	return types.StageOutput{Kind: types.StageDesign, Slug: d.slug, Raw: raw, Text: text}, nil
}

// code drafts example.py from the skill document.
func (o *Orchestrator) code(ctx context.Context, d draft, skill, feedback string) (types.StageOutput, error) {
	data := d.data(codeGrammar)
	data.Skill = skill
	data.Feedback = feedback
	prompt, err := render(codeTmpl, data)
	if err != nil {
		return types.StageOutput{}, err
	}
	raw, err := o.invoke(ctx, types.StageCode, AgentCoder, prompt, draftTemperature)
	if err != nil {
		return types.StageOutput{}, err
	}

	text := cleanCode(sectionOrRaw(parser.Extract(raw, codeGrammar), sectionCode))
	return types.StageOutput{Kind: types.StageCode, Slug: d.slug, Raw: raw, Text: text}, nil
}

// post drafts the blog post from the skill document and code.
func (o *Orchestrator) post(ctx context.Context, d draft, skill, code, feedback string) (types.StageOutput, error) {
	data := d.data(postGrammar)
	data.Skill = skill
	data.Code = code
	data.Feedback = feedback
	prompt, err := render(postTmpl, data)
	if err != nil {
		return types.StageOutput{}, err
	}
	raw, err := o.invoke(ctx, types.StagePost, AgentWriter, prompt, draftTemperature)
	if err != nil {
		return types.StageOutput{}, err
	}

	text := sectionOrRaw(parser.Extract(raw, postGrammar), sectionPost)
	text, err = ensurePostFrontMatter(unwrapDocument(text), d, o.loc)
	if err != nil {
		return types.StageOutput{}, err
	}
	return types.StageOutput{Kind: types.StagePost, Slug: d.slug, Raw: raw, Text: text}, nil
}

// sectionOrRaw returns the named section, or the whole response when the
// response was unstructured.
func sectionOrRaw(r parser.Result, name string) string {
	if r.Fallback {
		return strings.TrimSpace(r.Raw)
	}
	return r.Text(name)
}

// unwrapDocument removes a Markdown fence wrapped around a whole document.
// Fences inside the document are left alone.
func unwrapDocument(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") || !strings.HasSuffix(text, "```") {
		return text
	}
	_, inner, ok := strings.Cut(text, "\n")
	if !ok {
		return text
	}
	return strings.TrimSpace(strings.TrimSuffix(inner, "```"))
}

// cleanCode strips fences and makes sure the script starts with a shebang.
func cleanCode(text string) string {
	code := parser.StripFences(text)
	if !strings.HasPrefix(code, "#!") {
		code = shebang + "\n\n" + code
	}
	return strings.TrimRight(code, "\n") + "\n"
}

type skillFrontMatter struct {
	Name       string           `yaml:"name"`
	Version    string           `yaml:"version"`
	Author     string           `yaml:"author"`
	Category   types.Category   `yaml:"category"`
	Difficulty types.Difficulty `yaml:"difficulty"`
	Tags       []string         `yaml:"tags"`
	Requires   []string         `yaml:"requires"`
}

type postImage struct {
	Path string `yaml:"path"`
	Alt  string `yaml:"alt"`
}

type postFrontMatter struct {
	Layout     string           `yaml:"layout"`
	Title      string           `yaml:"title"`
	Date       string           `yaml:"date"`
	Categories []types.Category `yaml:"categories"`
	Tags       []string         `yaml:"tags"`
	SkillPath  string           `yaml:"skill_path"`
	Difficulty types.Difficulty `yaml:"difficulty"`
	Image      postImage        `yaml:"image"`
}

const (
	skillVersion = "1.0.0"
	skillAuthor  = "Skill Factory"
	maxPostTags  = 5
)

// ensureSkillFrontMatter prepends front matter built from the topic when
// doc has none. Documents with front matter, valid or not, are kept as
// written.
func ensureSkillFrontMatter(doc string, d draft) (string, error) {
	if _, _, found, _ := parser.SplitFrontMatter(doc); found {
		return doc, nil
	}
	return parser.FormatFrontMatter(skillFrontMatter{
		Name:       d.slug,
		Version:    skillVersion,
		Author:     skillAuthor,
		Category:   d.topic.Category,
		Difficulty: d.topic.Difficulty,
		Tags:       nonNil(d.topic.Tags),
		Requires:   []string{"python>=3.9", "anthropic>=0.35.0"},
	}, doc)
}

// ensurePostFrontMatter prepends Jekyll front matter when doc has none.
func ensurePostFrontMatter(doc string, d draft, loc *time.Location) (string, error) {
	if _, _, found, _ := parser.SplitFrontMatter(doc); found {
		return doc, nil
	}
	tags := nonNil(d.topic.Tags)
	if len(tags) > maxPostTags {
		tags = tags[:maxPostTags]
	}
	return parser.FormatFrontMatter(postFrontMatter{
		Layout:     "post",
		Title:      d.topic.Topic,
		Date:       postTime(d.date, loc),
		Categories: []types.Category{d.topic.Category},
		Tags:       tags,
		SkillPath:  skillPath(d.slug),
		Difficulty: d.topic.Difficulty,
		Image: postImage{
			Path: "/assets/img/posts/" + d.date + "-" + d.slug + "/cover.png",
			Alt:  d.topic.Topic,
		},
	}, doc)
}

func skillPath(slug string) string { return "/skills/" + slug + "/" }

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
