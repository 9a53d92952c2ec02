// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parser

import (
	"bytes"
	"fmt"
	"strings"

	"go.yaml.in/yaml/v3"
)

const frontMatterDelim = "---"

// SplitFrontMatter separates a leading YAML front matter block from the
// document body. found is false when doc does not open with a --- line or
// the block is never closed; in that case body is doc unchanged. A block
// that is present but not valid YAML returns an error.
func SplitFrontMatter(doc string) (meta map[string]any, body string, found bool, err error) {
	text := strings.TrimLeft(doc, " \t\r\n")
	first, rest, ok := strings.Cut(text, "\n")
	if !ok || strings.TrimSpace(first) != frontMatterDelim {
		return nil, doc, false, nil
	}

	lines := strings.Split(rest, "\n")
	for i, l := range lines {
		if strings.TrimSpace(l) != frontMatterDelim {
			continue
		}
		block := strings.Join(lines[:i], "\n")
		body = strings.Join(lines[i+1:], "\n")
		meta = map[string]any{}
		if err := yaml.Unmarshal([]byte(block), &meta); err != nil {
			return nil, body, true, fmt.Errorf("parsing front matter: %w", err)
		}
		if meta == nil {
			meta = map[string]any{}
		}
		return meta, body, true, nil
	}
	return nil, doc, false, nil
}

// FormatFrontMatter renders v as a YAML front matter block followed by body.
// Struct field order is preserved, so callers pass a struct when key order
// matters.
func FormatFrontMatter(v any, body string) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encoding front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encoding front matter: %w", err)
	}
	return frontMatterDelim + "\n" + buf.String() + frontMatterDelim + "\n\n" + strings.TrimLeft(body, "\n"), nil
}
