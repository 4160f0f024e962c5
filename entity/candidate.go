package entity

// SearchCandidate is a single search result coming back from the
// extraction service, not yet downloaded. It is never mutated once
// produced.
type SearchCandidate struct {
	ID              string
	Title           string
	ChannelName     string
	DurationSeconds int
	ViewCount       int64
	LikeCount       int64
	DislikeCount    int64
	HasLikeCounts   bool
	ChannelVerified bool
}

// ScoredCandidate pairs a candidate with its ranking score.
type ScoredCandidate struct {
	SearchCandidate
	Score float64
}

// CandidateInfo is the remote metadata fetched for a single reference
// before any media bytes are pulled.
type CandidateInfo struct {
	Title       string
	ChannelName string
	UploadDate  string // YYYYMMDD as reported upstream
	Album       string
	Genre       string
	Duration    int // in seconds
}

// UploadYear derives the 4-character year from the upload date,
// empty when unknown.
func (info CandidateInfo) UploadYear() string {
	if len(info.UploadDate) < 4 {
		return ""
	}
	return info.UploadDate[:4]
}
