// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/pdiddy/skill-factory/internal/parser"
	"github.com/pdiddy/skill-factory/pkg/types"
)

// Agent prompt names. Each maps to <name>.md in the prompts directory.
const (
	AgentConcept  = "concept"
	AgentTopic    = "skill-topic-selector"
	AgentDesigner = "skill-designer"
	AgentCoder    = "code-generator"
	AgentWriter   = "post-writer"
	AgentReviewer = "reviewer"
)

var builtinPrompts = map[string]string{
	AgentConcept: `The platform publishes practical, runnable skills for working with Claude.
Each skill ships as a SKILL.md document, an example.py script and a Korean blog post
that explains it. Readers are developers who want something they can run today.`,

	AgentTopic: `You choose the next skill to publish. Pick topics that are concrete,
useful on their own and not already covered by an existing skill. Answer only with
the requested YAML block.`,

	AgentDesigner: `You write SKILL.md documents. A SKILL.md opens with YAML front matter
(name, version, category, difficulty, tags, requires) followed by an overview,
parameters, usage scenarios and at least one fenced python or bash example.`,

	AgentCoder: `You write a single runnable Python 3 script for a skill. Use the anthropic
SDK with the key from the ANTHROPIC_API_KEY environment variable, type hints,
docstrings, try/except error handling and a main() guarded by if __name__ == "__main__".
Never embed credentials.`,

	AgentWriter: `You write Jekyll blog posts in Korean with a friendly but professional
tone. Every post opens with front matter (layout, title, date, categories, tags,
skill_path, difficulty), contains at least three [IMAGE_DESC: ...] placeholders,
at least one fenced code block and a link to the skill_path.`,

	AgentReviewer: `You review a generated skill before publication. Check that the three
artifacts agree with each other, that the code is runnable and safe, and that the
post follows the publishing rules. Fix what you can and say what you fixed.`,
}

// Prompts holds the system prompt of every agent.
type Prompts struct {
	system map[string]string
}

// LoadPrompts reads <dir>/<agent>.md for every agent, dropping any front
// matter. Agents without a file keep the built-in prompt. An empty dir
// selects the built-in prompts only.
func LoadPrompts(dir string) (*Prompts, error) {
	p := &Prompts{system: make(map[string]string, len(builtinPrompts))}
	for name, text := range builtinPrompts {
		p.system[name] = text
	}
	if dir == "" {
		return p, nil
	}

	for name := range builtinPrompts {
		data, err := os.ReadFile(filepath.Join(dir, name+".md"))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("reading prompt %s: %w", name, err)
		}
		_, body, _, err := parser.SplitFrontMatter(string(data))
		if err != nil {
			return nil, fmt.Errorf("prompt %s: %w", name, err)
		}
		if body = strings.TrimSpace(body); body != "" {
			p.system[name] = body
		}
	}
	return p, nil
}

// System returns the system prompt for agent with the platform concept
// appended.
func (p *Prompts) System(agent string) string {
	return p.system[agent] + "\n\n---\n\n# Platform context\n\n" + p.system[AgentConcept]
}

const sectionsHint = `
Answer using these sentinel lines, each on its own line, with nothing before the first one:
{{range .Markers}}{{.}}
{{end}}`

var (
	topicTmpl = newTemplate("topic", `Existing skills (do not duplicate):
{{if .Existing}}{{range .Existing}}- {{.}}
{{end}}{{else}}none
{{end}}
{{.StrategyBlock}}
Answer only with this YAML block:

` + "```yaml" + `
topic: "Skill title"
category: Workflow | Agent | Skill
difficulty: beginner | intermediate | advanced
strategy_used: {{.StrategyName}}
tags:
  - tag1
  - tag2
  - tag3
description: "One line summary"
` + "```\n")

	userTopicTmpl = newTemplate("user-topic", `A user asked for a skill on this topic:

"{{.Topic.Topic}}"

Choose a fitting category, difficulty and tags. Answer only with this YAML block:

` + "```yaml" + `
topic: "{{.Topic.Topic}}"
category: Workflow | Agent | Skill
difficulty: beginner | intermediate | advanced
strategy_used: user_request
tags:
  - tag1
  - tag2
description: "One line summary"
` + "```\n")

	designTmpl = newTemplate("design", `Write the SKILL.md document for this topic.

## Topic
- Title: {{.Topic.Topic}}
- Category: {{.Topic.Category}}
- Difficulty: {{.Topic.Difficulty}}
- Tags: {{join .Topic.Tags}}
- Description: {{.Topic.Description}}

## Requirements
1. Runnable code examples
2. Documented parameters
3. Practical usage scenarios
4. Uses the Anthropic Claude API
5. Starts with front matter (---)
{{template "feedback" .}}` + sectionsHint)

	codeTmpl = newTemplate("code", `Write the runnable example.py for this skill.

## Topic
- Title: {{.Topic.Topic}}
- Category: {{.Topic.Category}}
- Difficulty: {{.Topic.Difficulty}}

## SKILL.md
` + "```markdown" + `
{{.Skill}}
` + "```" + `

## Requirements
1. Complete script, starts with #!/usr/bin/env python3
2. Anthropic SDK, key from ANTHROPIC_API_KEY
3. Type hints and docstrings
4. Error handling
5. main() and an if __name__ == "__main__" block
{{template "feedback" .}}` + sectionsHint)

	postTmpl = newTemplate("post", `Write the blog post for this skill.

## Topic
- Title: {{.Topic.Topic}}
- Category: {{.Topic.Category}}
- Difficulty: {{.Topic.Difficulty}}
- Tags: {{join .Topic.Tags}}
- Description: {{.Topic.Description}}
- Skill path: /skills/{{.Slug}}/

## SKILL.md summary
` + "```markdown" + `
{{.Skill}}
` + "```" + `

## Example code
` + "```python" + `
{{.Code}}
` + "```" + `

## Meta
- Date: {{.Date}}
- Slug: {{.Slug}}
- Image path: /assets/img/posts/{{.Date}}-{{.Slug}}/

## Requirements
1. Front matter with layout: post
2. At least three [IMAGE_DESC: description] placeholders
3. At least one code block
4. Link to the skill_path
5. Written in Korean
{{template "feedback" .}}` + sectionsHint)

	reviewTmpl = newTemplate("review", `Review the generated skill "{{.Topic.Topic}}" (attempt {{.Attempt}}).

Deterministic checks currently report:
{{if .Errors}}{{range .Errors}}- error: {{.}}
{{end}}{{end}}{{if .Warnings}}{{range .Warnings}}- warning: {{.}}
{{end}}{{end}}{{if not (or .Errors .Warnings)}}- no findings
{{end}}
Answer APPROVE or REJECT in the verdict section and explain in the feedback section.
Repeat an artifact section only when you changed it; leave the others out.

## SKILL.md
{{.Skill}}

## example.py
{{.Code}}

## Post
{{.Post}}
` + sectionsHint)
)

// feedbackTmpl is associated with every template as "feedback".
const feedbackTmpl = `{{if .Feedback}}
## Reviewer feedback from the previous attempt
{{.Feedback}}
Address every point above.
{{end}}`

var funcs = template.FuncMap{"join": func(s []string) string { return strings.Join(s, ", ") }}

func newTemplate(name, text string) *template.Template {
	t := template.Must(template.New(name).Funcs(funcs).Parse(text))
	template.Must(t.New("feedback").Parse(feedbackTmpl))
	return t
}

// promptData is the value every prompt template is executed with.
type promptData struct {
	Topic    types.TopicInfo
	Slug     string
	Date     string
	Skill    string
	Code     string
	Post     string
	Feedback string
	Attempt  int
	Markers  []string

	Errors   []string
	Warnings []string

	Existing      []string
	StrategyName  string
	StrategyBlock string
}

// render executes tmpl with data.
func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
