package provider

import (
	"sort"
	"strings"

	"github.com/tunegrab/tunegrab/entity"
	"github.com/tunegrab/tunegrab/filter"
)

// ProfanitySentinel is attached to filtered-out candidates so they
// rank below anything legitimate without raising an error.
const ProfanitySentinel = -100.0

// MaxResults caps how many scored candidates a search yields.
const MaxResults = 10

// versionPenalties are the undesired-version keywords; each match
// independently costs penaltyPerKeyword points.
var versionPenalties = []string{
	"live", "cover", "remix", "instrumental", "karaoke",
	"extended", "concert", "performance", "rehearsal", "demo",
	"acoustic", "remake", "remaster", "mix", "mashup",
}

const penaltyPerKeyword = 8.0

// Ranker scores extraction-service candidates against the user query.
// Scoring is a pure function of its inputs.
type Ranker struct {
	filter *filter.ContentFilter
}

func NewRanker(filter *filter.ContentFilter) *Ranker {
	return &Ranker{filter: filter}
}

// Rank attaches a score to every candidate and returns them sorted by
// score descending, ties keeping service order, capped at MaxResults.
func (ranker *Ranker) Rank(candidates []entity.SearchCandidate, query string) []entity.ScoredCandidate {
	scored := make([]entity.ScoredCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		scored = append(scored, entity.ScoredCandidate{
			SearchCandidate: candidate,
			Score:           ranker.Score(candidate, query),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > MaxResults {
		scored = scored[:MaxResults]
	}
	return scored
}

// Score rates how well a candidate fits the query. Candidates
// tripping the content filter get ProfanitySentinel straight away.
func (ranker *Ranker) Score(candidate entity.SearchCandidate, query string) float64 {
	title := strings.ToLower(candidate.Title)
	channel := strings.ToLower(candidate.ChannelName)
	query = strings.ToLower(strings.TrimSpace(query))

	if ranker.filter.Enabled() &&
		(ranker.filter.ContainsProfanity(title) || ranker.filter.ContainsProfanity(channel)) {
		return ProfanitySentinel
	}

	score := 0.0

	if strings.Contains(title, query) {
		score += 10.0
	}

	switch duration := candidate.DurationSeconds; {
	case duration >= 180 && duration <= 360:
		score += 5.0
	case duration >= 120 && duration <= 480:
		score += 3.0
	case duration > 480:
		score -= 5.0
	}

	if strings.Contains(title, "official audio") {
		score += 25.0
	} else if strings.Contains(title, "audio") {
		score += 15.0
	}
	if strings.Contains(title, "lyric video") || strings.Contains(title, "lyrics") {
		score += 20.0
	}
	if strings.Contains(title, "radio edit") || strings.Contains(title, "radio version") {
		score += 12.0
	}
	if strings.Contains(title, "official") {
		score += 10.0
	}

	if strings.Contains(title, "official video") || strings.Contains(title, "music video") {
		score -= 5.0
	}

	for _, keyword := range versionPenalties {
		if strings.Contains(title, keyword) {
			score -= penaltyPerKeyword
		}
	}

	if candidate.ChannelVerified {
		score += 5.0
	}

	if candidate.ViewCount > 0 {
		bonus := float64(candidate.ViewCount) / 1_000_000
		if bonus > 5.0 {
			bonus = 5.0
		}
		score += bonus
	}

	if candidate.HasLikeCounts {
		total := candidate.LikeCount + candidate.DislikeCount
		if total > 0 {
			score += 3.0 * float64(candidate.LikeCount) / float64(total)
		}
	}

	return score
}
