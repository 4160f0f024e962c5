package filter

import (
	"strings"

	goaway "github.com/TwiN/go-away"
)

// forbidden covers the characters no filesystem target accepts in a
// single path component.
const forbidden = `<>:"/\|?*`

// ContentFilter is a stateless profanity predicate plus filename
// sanitizer. A single instance is safe to share across tasks.
type ContentFilter struct {
	enabled  bool
	detector *goaway.ProfanityDetector
}

func New(enabled bool) *ContentFilter {
	return &ContentFilter{
		enabled:  enabled,
		detector: goaway.NewProfanityDetector(),
	}
}

func (filter *ContentFilter) Enabled() bool {
	return filter.enabled
}

// ContainsProfanity reports whether text trips the word-list censor.
// A disabled filter always answers false.
func (filter *ContentFilter) ContainsProfanity(text string) bool {
	if !filter.enabled {
		return false
	}
	return filter.detector.IsProfane(text)
}

// CleanFilename strips forbidden filesystem characters, censors
// profane substrings when the filter is enabled, and trims the result.
// It never fails; the worst case is an empty string.
func (filter *ContentFilter) CleanFilename(name string) string {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(forbidden, r) {
			return -1
		}
		return r
	}, name)

	if filter.enabled {
		clean = filter.detector.Censor(clean)
	}

	return strings.TrimSpace(clean)
}
