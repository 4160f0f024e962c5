// Package musicbrainz resolves authoritative track metadata against
// the MusicBrainz recording index.
package musicbrainz

import "context"

// Recording is one remote metadata record, reduced to the fields the
// matching heuristic consumes.
type Recording struct {
	Title        string
	ArtistCredit string
	Releases     []Release
	Tags         []string
	ISRCs        []string
}

// Release is one release a recording appears on.
type Release struct {
	Title      string
	Date       string
	GroupType  string // Album, EP, Single, Compilation
	FrontCover bool
}

// Service is the metadata lookup boundary. Lookups are always live,
// there is no persistent cache.
type Service interface {
	SearchRecordings(ctx context.Context, query string, limit int) ([]Recording, error)
}
