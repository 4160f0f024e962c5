// Package normalize turns raw display titles into canonical song
// titles usable for metadata matching and filenames.
package normalize

import (
	"regexp"
	"strings"
)

// decorations is the catalog of suffixes/prefixes upload platforms
// like to append to song titles. Matched case-insensitively at either
// end of the string.
var decorations = []string{
	"(Official Music Video)",
	"(Official Video)",
	"(Official Audio)",
	"(Lyric Video)",
	"(Music Video)",
	"[Official Music Video]",
	"[Official Video]",
	"[Official Audio]",
	"[Lyric Video]",
	"[Music Video]",
	"(HD)",
	"(HQ)",
	"(4K)",
	"(1080p)",
	"(720p)",
	"(Official)",
	"(Audio)",
	"(Lyrics)",
	"Official Video",
	"Official Audio",
	"Lyric Video",
	"Music Video",
	"Official Music Video",
}

// featuring matches a featuring indicator as its own token, so that
// words like "craft" survive untouched. Truncation happens at the
// token start, which also covers the dotted "ft." and "feat." forms.
var featuring = regexp.MustCompile(`(?i)\b(?:featuring|feat|ft)\b`)

// Title cleans a raw display title. Applying it to its own output
// yields the same output.
func Title(title string) string {
	title = strings.TrimSpace(title)

	// an "Artist - Title" prefix is an artist tag, keep the remainder
	if _, rest, found := strings.Cut(title, " - "); found {
		title = strings.TrimSpace(rest)
	}

	for _, decoration := range decorations {
		lower := strings.ToLower(title)
		suffix := strings.ToLower(decoration)
		if strings.HasSuffix(lower, suffix) {
			title = strings.TrimSpace(title[:len(title)-len(decoration)])
		}
		lower = strings.ToLower(title)
		if strings.HasPrefix(lower, suffix) {
			title = strings.TrimSpace(title[len(decoration):])
		}
	}

	if loc := featuring.FindStringIndex(title); loc != nil && loc[0] > 0 {
		title = strings.TrimSpace(title[:loc[0]])
	}

	for strings.HasSuffix(title, ")") && strings.Contains(title, "(") {
		title = strings.TrimSpace(title[:strings.LastIndex(title, "(")])
	}
	for strings.HasSuffix(title, "]") && strings.Contains(title, "[") {
		title = strings.TrimSpace(title[:strings.LastIndex(title, "[")])
	}

	return strings.TrimSpace(title)
}
