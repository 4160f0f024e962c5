// Package provider defines the boundary with the media-extraction
// service and ranks the candidates it returns.
package provider

import (
	"context"
	"errors"
	"strings"

	"github.com/tunegrab/tunegrab/entity"
)

// Extractor is the media-extraction service the engine delegates to
// for searching, probing and fetching+transcoding media. It never
// touches metadata lookups.
type Extractor interface {
	SearchByQuery(ctx context.Context, text string, limit int) ([]entity.SearchCandidate, error)
	FetchInfo(ctx context.Context, ref string) (entity.CandidateInfo, error)
	// FetchAndTranscode writes the final audio file at targetStem plus
	// the audio extension, reporting stage progress along the way.
	FetchAndTranscode(ctx context.Context, ref, targetStem string, progress ProgressFunc) error
}

// Stage identifies which part of the retrieval pipeline a progress
// event belongs to.
type Stage int

const (
	StageDownloading Stage = iota
	StageConverting
	StageEmbeddingMetadata
	StageEmbeddingThumbnail
)

// Progress is a single extraction progress event. Percent is only
// meaningful for StageDownloading and ranges 0-100.
type Progress struct {
	Stage   Stage
	Percent float64
}

type ProgressFunc func(Progress)

// Extraction failures the engine distinguishes, each with its
// user-facing message.
var (
	ErrBlocked          = errors.New("the streaming platform is blocking requests, try again later or update the extraction backend")
	ErrUnavailable      = errors.New("this media is not available, it might be private or deleted")
	ErrAuthRequired     = errors.New("this media requires sign-in or age verification and cannot be fetched")
	ErrTranscodeMissing = errors.New("converted audio file not found")
)

// ClassifyOutput maps raw extraction backend output onto the failure
// taxonomy, falling back to the given error when nothing matches.
func ClassifyOutput(output string, fallback error) error {
	switch {
	case strings.Contains(output, "HTTP Error 403"), strings.Contains(output, "HTTP Error 429"):
		return ErrBlocked
	case strings.Contains(output, "Video unavailable"), strings.Contains(output, "Private video"):
		return ErrUnavailable
	case strings.Contains(output, "Sign in"):
		return ErrAuthRequired
	default:
		return fallback
	}
}
