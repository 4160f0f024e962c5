package musicbrainz

import (
	"context"
	"fmt"
	"strings"

	"github.com/tunegrab/tunegrab/entity"
	"github.com/tunegrab/tunegrab/normalize"
	"go.uber.org/zap"
)

// Acceptance thresholds for the two lookup strategies. The title-only
// strategy needs a higher bar because the artist is unconstrained.
const (
	artistTitleThreshold = 0.70
	titleOnlyThreshold   = 0.80
)

// Resolver matches (artist, title) targets against the metadata
// lookup service with layered strategies. Lookup failures are never
// propagated, they degrade to fallback metadata.
type Resolver struct {
	service Service
	log     *zap.Logger
}

func NewResolver(service Service, log *zap.Logger) *Resolver {
	return &Resolver{service: service, log: log}
}

// Resolve returns the best metadata for the target pair, falling back
// to metadata built from the pair itself when no confident match
// exists.
func (resolver *Resolver) Resolve(ctx context.Context, artist, title string) entity.TrackMetadata {
	title = normalize.Title(title)
	artist = strings.TrimSpace(artist)

	query := fmt.Sprintf("artistname:%q AND recording:%q", artist, title)
	if recording, ok := resolver.lookup(ctx, query, 5, artist, title, artistTitleThreshold); ok {
		return resolver.metadata(recording, artist, title)
	}

	query = fmt.Sprintf("recording:%q", title)
	if recording, ok := resolver.lookup(ctx, query, 10, artist, title, titleOnlyThreshold); ok {
		return resolver.metadata(recording, artist, title)
	}

	return entity.Fallback(title, artist)
}

// ResolveForPath returns the artist/title/album path segments for a
// track, preferring authoritative names over the raw channel/title
// pair. Album is empty when unknown.
func (resolver *Resolver) ResolveForPath(ctx context.Context, normalizedTitle, channelName string) (artist, title, album string) {
	query := fmt.Sprintf("recording:%q", normalizedTitle)
	if recording, ok := resolver.lookup(ctx, query, 5, channelName, normalizedTitle, artistTitleThreshold); ok {
		artist, title = recording.ArtistCredit, recording.Title
		if release := bestRelease(recording.Releases); release != nil {
			album = release.Title
		}
		return artist, title, album
	}
	return channelName, normalizedTitle, ""
}

func (resolver *Resolver) lookup(ctx context.Context, query string, limit int, artist, title string, threshold float64) (Recording, bool) {
	recordings, err := resolver.service.SearchRecordings(ctx, query, limit)
	if err != nil {
		resolver.log.Warn("metadata lookup failed", zap.String("query", query), zap.Error(err))
		return Recording{}, false
	}

	var (
		best      Recording
		bestScore = -1.0
	)
	for _, recording := range recordings {
		if score := scoreMatch(recording, artist, title); score > bestScore {
			best, bestScore = recording, score
		}
	}
	return best, bestScore >= threshold
}

func (resolver *Resolver) metadata(recording Recording, artist, title string) entity.TrackMetadata {
	metadata := entity.TrackMetadata{
		Title:  orElse(recording.Title, title),
		Artist: orElse(recording.ArtistCredit, artist),
	}
	if release := bestRelease(recording.Releases); release != nil {
		metadata.Album = release.Title
		if len(release.Date) >= 4 {
			metadata.Year = release.Date[:4]
		}
	}
	if len(recording.Tags) > 0 {
		metadata.Genre = recording.Tags[0]
	}
	return metadata
}

// scoreMatch rates in [0,1] how well a record fits the target pair:
// title and artist each weigh 0.5, with small bonuses for records
// carrying release or ISRC info.
func scoreMatch(recording Recording, artist, title string) float64 {
	score := wordOverlap(recording.Title, title)*0.5 +
		wordOverlap(recording.ArtistCredit, artist)*0.5

	if len(recording.Releases) > 0 {
		score += 0.05
	}
	if len(recording.ISRCs) > 0 {
		score += 0.05
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// wordOverlap is 1 on a case-insensitive exact match, otherwise the
// shared-word ratio over the larger of the two word sets.
func wordOverlap(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b {
		return 1
	}

	wordsA, wordsB := fieldsSet(a), fieldsSet(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	common := 0
	for word := range wordsA {
		if _, ok := wordsB[word]; ok {
			common++
		}
	}
	larger := len(wordsA)
	if len(wordsB) > larger {
		larger = len(wordsB)
	}
	return float64(common) / float64(larger)
}

func fieldsSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range strings.Fields(text) {
		set[word] = struct{}{}
	}
	return set
}

// bestRelease picks the most tag-worthy release: albums beat EPs and
// singles, compilations score below everything, full dates and known
// cover art break ties. Ties keep the first encountered.
func bestRelease(releases []Release) *Release {
	if len(releases) == 0 {
		return nil
	}

	var (
		best      *Release
		bestScore = 0
	)
	for i := range releases {
		release := &releases[i]
		score := 0
		switch release.GroupType {
		case "Album":
			score += 2
		case "EP", "Single":
			score += 1
		case "Compilation":
			score -= 1
		}
		if strings.Count(release.Date, "-") == 2 {
			score++
		}
		if release.FrontCover {
			score++
		}
		if best == nil || score > bestScore {
			best, bestScore = release, score
		}
	}
	return best
}

func orElse(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
