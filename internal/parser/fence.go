// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parser

import (
	"regexp"
	"strings"
)

// anyFence matches a complete fenced block; group 1 is the info string and
// group 2 the body.
var anyFence = regexp.MustCompile("(?s)```([^\\n`]*)\\n(.*?)\\n?```")

// codeLine matches the first line of a bare script: a comment or shebang,
// a docstring, an import, a definition, an assignment or a call.
var codeLine = regexp.MustCompile(`^(#|"""|'''|@|(import|from|def|class|async|if|for|while|try|with|return)\b|[A-Za-z_][\w.]*\s*(=|\())`)

// FencedBlock returns the body of the first fenced block whose language is
// lang (case-insensitive). When none has that language the first fenced
// block of any language is used, and when raw has no complete fence raw is
// returned trimmed.
func FencedBlock(raw, lang string) string {
	matches := anyFence.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return strings.TrimSpace(raw)
	}
	if lang != "" {
		for _, m := range matches {
			if strings.EqualFold(strings.TrimSpace(m[1]), lang) {
				return m[2]
			}
		}
	}
	return matches[0][2]
}

// StripFences removes Markdown fences that wrap code. Only a fence around
// the whole text is removed, so fences inside a script (a usage example in a
// docstring) survive. When prose comes before the first fence the body of
// that fence is returned instead.
func StripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		return unwrapFence(text)
	}
	if !LooksLikeCode(text) && anyFence.MatchString(text) {
		return FencedBlock(text, "")
	}
	if strings.Count(text, "```")%2 == 1 {
		text = strings.TrimSuffix(strings.TrimRight(text, " \t\n"), "```")
	}
	return strings.TrimSpace(text)
}

// unwrapFence drops the opening fence line and its closing fence. Prose after
// the closing fence is dropped; an unterminated fence keeps everything.
func unwrapFence(text string) string {
	_, body, ok := strings.Cut(text, "\n")
	if !ok {
		return ""
	}
	body = strings.TrimRight(body, " \t\n")
	if strings.HasSuffix(body, "```") {
		return strings.TrimSpace(strings.TrimSuffix(body, "```"))
	}
	lines := strings.Split(body, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "```" {
			continue
		}
		if LooksLikeCode(strings.Join(lines[i+1:], "\n")) {
			break
		}
		return strings.TrimSpace(strings.Join(lines[:i], "\n"))
	}
	return strings.TrimSpace(body)
}

// LooksLikeCode reports whether the first non-blank line of text reads as
// source code rather than prose.
func LooksLikeCode(text string) bool {
	for line := range strings.SplitSeq(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return codeLine.MatchString(line)
		}
	}
	return false
}
