// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	maxSlugRunes  = 50
	emptySlug     = "untitled"
	dateLayout    = "2006-01-02"
	defaultZone   = "Asia/Seoul"
	postHour      = 9
	postTimestamp = "2006-01-02 15:04:05 -0700"
)

// Slugify turns a title into a file-safe slug. Letters of any script and
// digits are kept, whitespace and underscores become hyphens, everything
// else is dropped. The result is NFC-normalized, lowercased and at most 50
// runes long.
func Slugify(title string) string {
	text := strings.ToLower(norm.NFC.String(title))

	var b strings.Builder
	lastHyphen := true // suppresses leading hyphens
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r):
			b.WriteRune(r)
			lastHyphen = false
		case r == '-' || r == '_' || unicode.IsSpace(r):
			if !lastHyphen {
				b.WriteRune('-')
				lastHyphen = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if runes := []rune(slug); len(runes) > maxSlugRunes {
		slug = strings.TrimRight(string(runes[:maxSlugRunes]), "-")
	}
	if slug == "" {
		return emptySlug
	}
	return slug
}

// LoadLocation resolves name, defaulting to Asia/Seoul. Unknown zones fall
// back to a fixed +09:00 offset.
func LoadLocation(name string) *time.Location {
	if name == "" {
		name = defaultZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

// PostDate formats now as a calendar date in loc.
func PostDate(now time.Time, loc *time.Location) string {
	return now.In(loc).Format(dateLayout)
}

// postTime returns the publication timestamp used in post front matter:
// 09:00 local time on date.
func postTime(date string, loc *time.Location) string {
	d, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return date
	}
	return time.Date(d.Year(), d.Month(), d.Day(), postHour, 0, 0, 0, loc).Format(postTimestamp)
}
