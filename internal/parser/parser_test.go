// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testGrammar = Grammar{
	{Name: "skill", Markers: []string{"===SKILL_MD===", "===SKILL==="}},
	{Name: "code", Markers: []string{"===CODE===", "===EXAMPLE_PY==="}},
	{Name: "notes", Markers: []string{"===NOTES==="}},
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantFallback bool
		want         map[string]string
	}{
		{
			name: "all sections in order",
			raw:  "===SKILL_MD===\n# Skill\n===CODE===\nprint(1)\n===NOTES===\nnone",
			want: map[string]string{"skill": "# Skill", "code": "print(1)", "notes": "none"},
		},
		{
			name: "preamble is ignored",
			raw:  "Sure! Here you go.\n===SKILL_MD===\nbody",
			want: map[string]string{"skill": "body"},
		},
		{
			name: "sections out of order",
			raw:  "===CODE===\nx = 1\n===SKILL_MD===\nskill text",
			want: map[string]string{"skill": "skill text", "code": "x = 1"},
		},
		{
			name: "sentinel surrounded by whitespace",
			raw:  "  ===SKILL===  \nalias body\n\t===EXAMPLE_PY===\ncode",
			want: map[string]string{"skill": "alias body", "code": "code"},
		},
		{
			name: "preferred spelling wins over alias",
			raw:  "===SKILL===\nold\n===SKILL_MD===\nnew",
			want: map[string]string{"skill": "new"},
		},
		{
			name: "sentinel inside a line is not a boundary",
			raw:  "===SKILL_MD===\nsee ===CODE=== below",
			want: map[string]string{"skill": "see ===CODE=== below"},
		},
		{
			name: "empty section",
			raw:  "===SKILL_MD===\n===CODE===\ncode",
			want: map[string]string{"skill": "", "code": "code"},
		},
		{
			name:         "missing first section falls back",
			raw:          "===CODE===\nprint(1)",
			wantFallback: true,
		},
		{
			name:         "no sentinels",
			raw:          "just prose",
			wantFallback: true,
		},
		{
			name:         "empty input",
			raw:          "",
			wantFallback: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.raw, testGrammar)
			assert.Equal(t, tt.wantFallback, got.Fallback)
			if tt.wantFallback {
				assert.Equal(t, map[string]string{UnstructuredKey: tt.raw}, got.Map())
				return
			}
			assert.Equal(t, tt.want, got.Sections)
			assert.NotEmpty(t, got.Map())
		})
	}
}

func TestExtractCRLF(t *testing.T) {
	got := Extract("===SKILL_MD===\r\nbody\r\n===CODE===\r\ncode\r\n", testGrammar)
	require.False(t, got.Fallback)
	assert.Equal(t, "body", got.Text("skill"))
	assert.Equal(t, "code", got.Text("code"))
}

func TestResultAccessors(t *testing.T) {
	got := Extract("===SKILL_MD===\n\n  padded  \n", testGrammar)
	assert.True(t, got.Has("skill"))
	assert.False(t, got.Has("code"))
	assert.Equal(t, "padded", got.Text("skill"))
	assert.Equal(t, "", got.Text("code"))
}

func TestRenderRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		sections map[string]string
	}{
		{
			name:     "all sections",
			sections: map[string]string{"skill": "# Title\n\nbody", "code": "def main():\n    pass\n", "notes": "n"},
		},
		{
			name:     "empty segments",
			sections: map[string]string{"skill": "", "code": "", "notes": ""},
		},
		{
			name:     "leading and trailing blank lines kept",
			sections: map[string]string{"skill": "\n\nx\n\n", "notes": "  y  "},
		},
		{
			name:     "first section only",
			sections: map[string]string{"skill": "only"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Render(testGrammar, tt.sections)
			got := Extract(out, testGrammar)
			require.False(t, got.Fallback)
			assert.Equal(t, tt.sections, got.Sections)
		})
	}
}

func TestRenderOrder(t *testing.T) {
	out := Render(testGrammar, map[string]string{"notes": "n", "skill": "s"})
	assert.Equal(t, "===SKILL_MD===\ns\n===NOTES===\nn", out)
}

func TestFencedBlock(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		lang string
		want string
	}{
		{"matching language", "text\n```yaml\na: 1\n```\n```python\nx=1\n```", "python", "x=1"},
		{"case insensitive", "```YAML\na: 1\n```", "yaml", "a: 1"},
		{"falls back to any fence", "```\nplain\n```", "yaml", "plain"},
		{"no fence returns raw", "  a: 1  \n", "yaml", "a: 1"},
		{"multi line body", "```python\nimport os\n\nprint(os.sep)\n```", "python", "import os\n\nprint(os.sep)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FencedBlock(tt.raw, tt.lang))
		})
	}
}

const docstringScript = "#!/usr/bin/env python3\n\"\"\"Usage:\n```bash\npython example.py notes.txt\n```\n\"\"\"\nimport sys\n\n\ndef main():\n    print(sys.argv)\n\n\nif __name__ == \"__main__\":\n    main()"

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"complete fence", "```python\nprint(1)\n```", "print(1)"},
		{"prose around fence", "Here:\n```python\nprint(1)\n```\nDone.", "print(1)"},
		{"unterminated fence", "```python\nprint(1)\n", "print(1)"},
		{"stray closing fence", "print(1)\n```", "print(1)"},
		{"no fence", "  print(1)\n", "print(1)"},
		{"fence inside docstring", docstringScript, docstringScript},
		{"wrapped script with inner fence", "```python\n" + docstringScript + "\n```", docstringScript},
		{"wrapped script with trailing prose", "```python\nimport os\n```\nThat is all.", "import os"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.raw))
		})
	}
}

func TestLooksLikeCode(t *testing.T) {
	assert.True(t, LooksLikeCode("\n#!/usr/bin/env python3"))
	assert.True(t, LooksLikeCode("import os"))
	assert.True(t, LooksLikeCode("client = anthropic.Anthropic()"))
	assert.False(t, LooksLikeCode("Here is the script:"))
	assert.False(t, LooksLikeCode(""))
}

func TestSplitFrontMatter(t *testing.T) {
	doc := "---\nname: demo\nversion: 1.0.0\ntags: [a, b]\n---\n\n# Body\n"
	meta, body, found, err := SplitFrontMatter(doc)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "demo", meta["name"])
	assert.Equal(t, "1.0.0", meta["version"])
	assert.Equal(t, []any{"a", "b"}, meta["tags"])
	assert.Equal(t, "\n# Body\n", body)

	_, body, found, err = SplitFrontMatter("# No front matter")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, "# No front matter", body)

	_, _, found, err = SplitFrontMatter("---\nname: [unclosed\n---\nbody")
	assert.True(t, found)
	assert.Error(t, err)

	_, _, found, _ = SplitFrontMatter("---\nname: never closed\n")
	assert.False(t, found)
}

func TestFormatFrontMatter(t *testing.T) {
	type meta struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	}
	out, err := FormatFrontMatter(meta{Name: "demo", Version: "1.0.0"}, "\n# Demo\n")
	require.NoError(t, err)
	assert.Equal(t, "---\nname: demo\nversion: 1.0.0\n---\n\n# Demo\n", out)

	got, body, found, err := SplitFrontMatter(out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "demo", got["name"])
	assert.Equal(t, "\n# Demo\n", body)
}
