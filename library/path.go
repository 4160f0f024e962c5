// Package library lays tracks out on disk: canonical paths under the
// music directory and lookups against what is already there.
package library

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tunegrab/tunegrab/entity"
	"github.com/tunegrab/tunegrab/filter"
)

// PathResolver combines resolved metadata with sanitized names into
// the canonical location baseDir/artist/[album/]title.mp3.
type PathResolver struct {
	baseDir string
	filter  *filter.ContentFilter
}

func NewPathResolver(baseDir string, filter *filter.ContentFilter) *PathResolver {
	return &PathResolver{baseDir: baseDir, filter: filter}
}

func (paths *PathResolver) BaseDir() string {
	return paths.baseDir
}

// Resolve returns the canonical path for the track and guarantees its
// parent directory exists before anything gets written there.
func (paths *PathResolver) Resolve(artist, title, album string) (string, error) {
	dir := filepath.Join(paths.baseDir, paths.filter.CleanFilename(artist))
	if album != "" {
		dir = filepath.Join(dir, paths.filter.CleanFilename(album))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating track directory: %w", err)
	}
	return filepath.Join(dir, fmt.Sprintf("%s.%s", paths.filter.CleanFilename(title), entity.TrackFormat)), nil
}
