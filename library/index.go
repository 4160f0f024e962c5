package library

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/tunegrab/tunegrab/entity"
)

// maxDistance is how far a filename stem may drift from the wanted
// title before it stops counting as the same track.
const maxDistance = 3

// FindExisting scans dir for an audio file already holding the given
// title, tolerating small naming drift. Returns the closest match.
func FindExisting(dir, title string) (string, bool) {
	wanted := strings.ToLower(strings.TrimSpace(title))
	if wanted == "" {
		return "", false
	}

	var (
		bestPath     string
		bestDistance = maxDistance + 1
	)
	_ = filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), "."+entity.TrackFormat) {
			return nil
		}

		stem := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
		distance := levenshtein.ComputeDistance(stem, wanted)
		if distance < bestDistance {
			bestPath, bestDistance = path, distance
		}
		return nil
	})

	return bestPath, bestPath != ""
}
