package provider

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/tunegrab/tunegrab/entity"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// YTDLPOptions configures the yt-dlp backed extractor.
type YTDLPOptions struct {
	Binary       string
	AudioFormat  string
	AudioQuality string
}

// YTDLP shells out to yt-dlp for searching, probing and
// fetching+transcoding media.
type YTDLP struct {
	options YTDLPOptions
	log     *zap.Logger
}

func NewYTDLP(options YTDLPOptions, log *zap.Logger) *YTDLP {
	if options.Binary == "" {
		options.Binary = "yt-dlp"
	}
	if options.AudioFormat == "" {
		options.AudioFormat = entity.TrackFormat
	}
	if options.AudioQuality == "" {
		options.AudioQuality = "192K"
	}
	return &YTDLP{options: options, log: log}
}

// payload mirrors the subset of yt-dlp's JSON dump the engine cares
// about.
type payload struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Channel         string   `json:"channel"`
	Uploader        string   `json:"uploader"`
	Duration        float64  `json:"duration"`
	ViewCount       int64    `json:"view_count"`
	LikeCount       *int64   `json:"like_count"`
	DislikeCount    *int64   `json:"dislike_count"`
	ChannelVerified bool     `json:"channel_is_verified"`
	UploadDate      string   `json:"upload_date"`
	Album           string   `json:"album"`
	Genre           string   `json:"genre"`
	Categories      []string `json:"categories"`
}

func (p payload) channelName() string {
	if p.Channel != "" {
		return p.Channel
	}
	return p.Uploader
}

func (extractor *YTDLP) SearchByQuery(ctx context.Context, text string, limit int) ([]entity.SearchCandidate, error) {
	output, err := extractor.dump(ctx, fmt.Sprintf("ytsearch%d:%s", limit, text))
	if err != nil {
		return nil, err
	}

	var candidates []entity.SearchCandidate
	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var entry payload
		if err := json.Unmarshal(line, &entry); err != nil {
			extractor.log.Warn("skipping unparsable search entry", zap.Error(err))
			continue
		}
		candidate := entity.SearchCandidate{
			ID:              entry.ID,
			Title:           entry.Title,
			ChannelName:     entry.channelName(),
			DurationSeconds: int(entry.Duration),
			ViewCount:       entry.ViewCount,
			ChannelVerified: entry.ChannelVerified,
		}
		if entry.LikeCount != nil && entry.DislikeCount != nil {
			candidate.LikeCount = *entry.LikeCount
			candidate.DislikeCount = *entry.DislikeCount
			candidate.HasLikeCounts = true
		}
		candidates = append(candidates, candidate)
	}
	return candidates, scanner.Err()
}

func (extractor *YTDLP) FetchInfo(ctx context.Context, ref string) (entity.CandidateInfo, error) {
	output, err := extractor.dump(ctx, watchURL(ref))
	if err != nil {
		return entity.CandidateInfo{}, err
	}

	var entry payload
	if err := json.Unmarshal(bytes.TrimSpace(output), &entry); err != nil {
		return entity.CandidateInfo{}, fmt.Errorf("decoding media info: %w", err)
	}
	genre := entry.Genre
	if genre == "" && len(entry.Categories) > 0 {
		genre = entry.Categories[0]
	}
	return entity.CandidateInfo{
		Title:       entry.Title,
		ChannelName: entry.channelName(),
		UploadDate:  entry.UploadDate,
		Album:       entry.Album,
		Genre:       genre,
		Duration:    int(entry.Duration),
	}, nil
}

var downloadPercent = regexp.MustCompile(`\[download\]\s+([0-9.]+)%`)

func (extractor *YTDLP) FetchAndTranscode(ctx context.Context, ref, targetStem string, progress ProgressFunc) error {
	var output bytes.Buffer
	cmd := exec.CommandContext(ctx, extractor.options.Binary,
		"--format", "bestaudio",
		"--extract-audio",
		"--audio-format", extractor.options.AudioFormat,
		"--audio-quality", extractor.options.AudioQuality,
		"--output", targetStem+".%(ext)s",
		"--no-playlist",
		"--newline",
		watchURL(ref),
	)
	cmd.Stderr = &output

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		output.WriteString(line + "\n")
		extractor.emit(line, progress)
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		extractor.log.Warn("extraction backend failed", zap.String("ref", ref), zap.Error(err))
		return ClassifyOutput(output.String(), fmt.Errorf("extraction failed: %s", strings.TrimSpace(output.String())))
	}
	return nil
}

func (extractor *YTDLP) emit(line string, progress ProgressFunc) {
	if progress == nil {
		return
	}
	switch {
	case strings.HasPrefix(line, "[ExtractAudio]"):
		progress(Progress{Stage: StageConverting})
	case strings.HasPrefix(line, "[Metadata]"):
		progress(Progress{Stage: StageEmbeddingMetadata})
	case strings.HasPrefix(line, "[EmbedThumbnail]"):
		progress(Progress{Stage: StageEmbeddingThumbnail})
	default:
		if match := downloadPercent.FindStringSubmatch(line); match != nil {
			var percent float64
			if _, err := fmt.Sscanf(match[1], "%f", &percent); err == nil {
				progress(Progress{Stage: StageDownloading, Percent: percent})
			}
		}
	}
}

func (extractor *YTDLP) dump(ctx context.Context, target string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, extractor.options.Binary,
		"--dump-json",
		"--no-download",
		target,
	)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ClassifyOutput(stderr.String(), fmt.Errorf("extraction failed: %s", strings.TrimSpace(stderr.String())))
	}
	return stdout.Bytes(), nil
}

func watchURL(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return "https://youtube.com/watch?v=" + ref
}
