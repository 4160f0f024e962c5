package entity

// TrackMetadata holds the authoritative tags for a track.
// An empty string means unknown. Year, when set, is always
// a 4-character value.
type TrackMetadata struct {
	Title  string
	Artist string
	Album  string
	Year   string
	Genre  string
}

// Fallback builds metadata straight from extraction info, used
// whenever no confident external match exists.
func Fallback(title, artist string) TrackMetadata {
	return TrackMetadata{Title: title, Artist: artist}
}

// TagReport describes what a tag write actually committed, plus
// derived file facts for display purposes.
type TagReport struct {
	Fields   map[string]string
	Path     string
	Format   string
	Size     int64
	Duration int // in seconds, 0 when it could not be derived
}

const TrackFormat = "mp3"
