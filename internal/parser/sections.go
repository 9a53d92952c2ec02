// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package parser extracts named sections from free-form model output.
//
// A model is asked to separate its answer with sentinel lines such as
// ===SKILL_MD===. A Grammar lists the sections a stage expects, in order,
// with every accepted spelling of each sentinel. Extract never fails: when
// the leading section is missing the whole response is kept as an
// unstructured fallback so the caller can degrade instead of aborting.
package parser

import "strings"

// UnstructuredKey is the single key of a fallback result's mapping.
const UnstructuredKey = "unstructured"

// Section is one named part of a structured response.
type Section struct {
	// Name is the key the section is stored under.
	Name string

	// Markers are the accepted sentinel lines in preference order. The
	// first marker is the one Render writes.
	Markers []string
}

// Grammar is an ordered list of sections. The first section is the one
// whose presence makes a response structured.
type Grammar []Section

// Result is the outcome of Extract. Exactly one of the two shapes holds:
// Fallback with Raw set, or parsed with Sections holding every section
// whose sentinel was found.
type Result struct {
	Fallback bool
	Raw      string
	Sections map[string]string
}

// Map returns the result as a non-empty mapping. A fallback result maps
// UnstructuredKey to the raw text.
func (r Result) Map() map[string]string {
	if r.Fallback {
		return map[string]string{UnstructuredKey: r.Raw}
	}
	out := make(map[string]string, len(r.Sections))
	for k, v := range r.Sections {
		out[k] = v
	}
	return out
}

// Has reports whether the named section was found.
func (r Result) Has(name string) bool {
	_, ok := r.Sections[name]
	return ok
}

// Text returns the named section with surrounding whitespace removed, or
// an empty string when it is absent.
func (r Result) Text(name string) string {
	return strings.TrimSpace(r.Sections[name])
}

// line is one line of the input with its byte offsets. end is the index
// of the terminating newline, or len(raw) for the last line.
type line struct {
	text       string
	start, end int
}

func splitLines(raw string) []line {
	var lines []line
	start := 0
	for start <= len(raw) {
		i := strings.IndexByte(raw[start:], '\n')
		if i < 0 {
			lines = append(lines, line{text: raw[start:], start: start, end: len(raw)})
			break
		}
		lines = append(lines, line{text: raw[start : start+i], start: start, end: start + i})
		start += i + 1
	}
	return lines
}

// Extract splits raw according to g. A sentinel matches a whole line,
// ignoring surrounding whitespace. A section's text runs from the line
// after its sentinel up to the line before the next sentinel of any
// section, or to the end of raw. When a section has several spellings
// present, the earliest-preferred spelling wins; among repeated lines of
// the same spelling the first occurrence wins.
func Extract(raw string, g Grammar) Result {
	if len(g) == 0 {
		return Result{Fallback: true, Raw: raw}
	}

	lines := splitLines(raw)
	markerOf := make(map[string]bool)
	for _, s := range g {
		for _, m := range s.Markers {
			markerOf[m] = true
		}
	}

	// Indices of every sentinel line, in order.
	var boundaries []int
	for i, l := range lines {
		if markerOf[strings.TrimSpace(l.text)] {
			boundaries = append(boundaries, i)
		}
	}

	sections := make(map[string]string)
	for _, s := range g {
		idx, ok := findSentinel(lines, boundaries, s.Markers)
		if !ok {
			continue
		}
		sections[s.Name] = segment(raw, lines, boundaries, idx)
	}

	if _, ok := sections[g[0].Name]; !ok {
		return Result{Fallback: true, Raw: raw}
	}
	return Result{Raw: raw, Sections: sections}
}

// findSentinel returns the line index of the preferred marker's first
// occurrence.
func findSentinel(lines []line, boundaries []int, markers []string) (int, bool) {
	for _, m := range markers {
		for _, b := range boundaries {
			if strings.TrimSpace(lines[b].text) == m {
				return b, true
			}
		}
	}
	return 0, false
}

// segment returns the text between the sentinel at line idx and the next
// boundary. The newline ending the sentinel line and the newline before the
// next sentinel are not part of the segment.
func segment(raw string, lines []line, boundaries []int, idx int) string {
	from := lines[idx].end + 1
	if from > len(raw) {
		return ""
	}
	to := len(raw)
	for _, b := range boundaries {
		if b > idx {
			to = lines[b].start - 1
			break
		}
	}
	if to < from {
		return ""
	}
	return raw[from:to]
}

// Render writes sections in grammar order using each section's first
// marker. Sections missing from the map are skipped. For sections that
// contain no sentinel lines, Extract(Render(g, s), g) returns s.
func Render(g Grammar, sections map[string]string) string {
	var blocks []string
	for _, s := range g {
		text, ok := sections[s.Name]
		if !ok || len(s.Markers) == 0 {
			continue
		}
		blocks = append(blocks, s.Markers[0]+"\n"+text)
	}
	return strings.Join(blocks, "\n")
}
