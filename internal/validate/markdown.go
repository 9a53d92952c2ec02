// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New()

// fencedLanguages returns the lowercased info-string language of every
// fenced code block in src, in document order. Blocks without a language
// contribute an empty string.
func fencedLanguages(src string) []string {
	source := []byte(src)
	doc := markdown.Parser().Parse(text.NewReader(source))

	var langs []string
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if fcb, ok := n.(*ast.FencedCodeBlock); ok {
			langs = append(langs, strings.ToLower(string(fcb.Language(source))))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return langs
}

// hasFence reports whether src has a fenced code block. When langs is
// non-empty the block must use one of those languages.
func hasFence(src string, langs ...string) bool {
	found := fencedLanguages(src)
	if len(langs) == 0 {
		return len(found) > 0
	}
	for _, f := range found {
		for _, l := range langs {
			if f == l {
				return true
			}
		}
	}
	return false
}
