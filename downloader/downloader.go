// Package downloader drives a download end to end: info fetch,
// metadata resolution, retrieval and transcode, tag writing and
// cleanup, with cancellation checkpoints between every stage.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tunegrab/tunegrab/entity"
	"github.com/tunegrab/tunegrab/library"
	"github.com/tunegrab/tunegrab/normalize"
	"github.com/tunegrab/tunegrab/provider"
	"github.com/tunegrab/tunegrab/util"
	"go.uber.org/zap"
)

// ErrCancelled marks a task that was interrupted on request, distinct
// from a failure.
var ErrCancelled = errors.New("download cancelled")

// Sink receives progress updates for one task. It is invoked from the
// task's own goroutine; marshaling onto another execution context is
// the caller's concern.
type Sink func(status string, fraction float64)

// MetadataResolver yields authoritative artist/title/album data, never
// failing harder than a fallback built from its inputs.
type MetadataResolver interface {
	Resolve(ctx context.Context, artist, title string) entity.TrackMetadata
	ResolveForPath(ctx context.Context, normalizedTitle, channelName string) (artist, title, album string)
}

// PathResolver maps resolved names onto the canonical track location,
// guaranteeing the parent directory exists.
type PathResolver interface {
	Resolve(artist, title, album string) (string, error)
}

// TagWriter commits metadata into the downloaded audio container.
type TagWriter interface {
	Write(path string, metadata entity.TrackMetadata) (entity.TagReport, error)
}

// Orchestrator sequences downloads. One instance may serve many tasks;
// all per-download state lives on the task itself.
type Orchestrator struct {
	extractor provider.Extractor
	resolver  MetadataResolver
	paths     PathResolver
	tags      TagWriter
	ranker    *provider.Ranker
	log       *zap.Logger
}

func New(
	extractor provider.Extractor,
	resolver MetadataResolver,
	paths PathResolver,
	tags TagWriter,
	ranker *provider.Ranker,
	log *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		extractor: extractor,
		resolver:  resolver,
		paths:     paths,
		tags:      tags,
		ranker:    ranker,
		log:       log,
	}
}

// Search returns scored candidates for the query, best first, capped
// at provider.MaxResults.
func (orchestrator *Orchestrator) Search(ctx context.Context, query string) ([]entity.ScoredCandidate, error) {
	candidates, err := orchestrator.extractor.SearchByQuery(ctx, query, provider.MaxResults)
	if err != nil {
		return nil, err
	}
	return orchestrator.ranker.Rank(candidates, query), nil
}

// Download runs the task to a terminal state and returns the final
// audio file path. On failure every partial file sharing the output
// stem is removed before the error surfaces; on cancellation the same
// cleanup runs once media retrieval has started.
func (orchestrator *Orchestrator) Download(ctx context.Context, task *entity.DownloadTask, sink Sink) (string, error) {
	emit := func(status string, fraction float64) {
		if sink != nil {
			sink(status, fraction)
		}
	}

	emit("Starting download...", 0)
	if interrupted(ctx, task) {
		task.SetStatus(entity.TaskCancelled)
		return "", ErrCancelled
	}

	task.SetStatus(entity.TaskFetchingInfo)
	emit("Fetching video info...", 0.1)
	info, err := orchestrator.extractor.FetchInfo(ctx, task.VideoRef)
	if err != nil {
		return "", orchestrator.fail(task, emit, "", err)
	}
	if interrupted(ctx, task) {
		task.SetStatus(entity.TaskCancelled)
		return "", ErrCancelled
	}

	task.SetStatus(entity.TaskResolving)
	emit("Resolving track location...", 0.15)
	title := normalize.Title(info.Title)
	artist, resolvedTitle, album := orchestrator.resolver.ResolveForPath(ctx, title, info.ChannelName)
	outputPath, err := orchestrator.paths.Resolve(artist, resolvedTitle, album)
	if err != nil {
		return "", orchestrator.fail(task, emit, "", err)
	}
	task.OutputPath = outputPath
	if !task.Overwrite {
		if existing, ok := orchestrator.alreadyDownloaded(outputPath, resolvedTitle); ok {
			task.SetStatus(entity.TaskCompleted)
			emit("Already downloaded", 1.0)
			return existing, nil
		}
	}
	if interrupted(ctx, task) {
		task.SetStatus(entity.TaskCancelled)
		return "", ErrCancelled
	}

	task.SetStatus(entity.TaskDownloading)
	err = orchestrator.extractor.FetchAndTranscode(ctx, task.VideoRef, util.FileStem(outputPath), orchestrator.stageSink(task, emit))
	if err != nil {
		if errors.Is(err, context.Canceled) || task.Cancelled() {
			return "", orchestrator.cancel(task, outputPath)
		}
		return "", orchestrator.fail(task, emit, outputPath, err)
	}
	if interrupted(ctx, task) {
		return "", orchestrator.cancel(task, outputPath)
	}

	if _, err := os.Stat(outputPath); err != nil {
		return "", orchestrator.fail(task, emit, outputPath, provider.ErrTranscodeMissing)
	}

	task.SetStatus(entity.TaskTagging)
	emit("Finalizing metadata...", 0.95)
	metadata := orchestrator.resolver.Resolve(ctx, info.ChannelName, title)
	fillFromInfo(&metadata, info)
	if report, err := orchestrator.tags.Write(outputPath, metadata); err != nil {
		orchestrator.log.Warn("tag write failed", zap.String("path", outputPath), zap.Error(err))
		emit("Warning: metadata update failed, but download succeeded", 0.95)
	} else {
		orchestrator.log.Info("tags written",
			zap.String("path", outputPath),
			zap.Int("fields", len(report.Fields)),
			zap.String("size", util.HumanizeBytes(report.Size)))
	}

	task.SetStatus(entity.TaskCleaningUp)
	orchestrator.removeSiblings(outputPath)

	task.SetStatus(entity.TaskCompleted)
	emit("Download complete!", 1.0)
	return outputPath, nil
}

// stageSink maps extraction progress onto overall task progress:
// download percentage covers [0, 0.70], post-processing [0.70, 0.95].
func (orchestrator *Orchestrator) stageSink(task *entity.DownloadTask, emit Sink) provider.ProgressFunc {
	return func(progress provider.Progress) {
		switch progress.Stage {
		case provider.StageDownloading:
			emit(fmt.Sprintf("Downloading: %.1f%%", progress.Percent), progress.Percent/100*0.70)
		case provider.StageConverting:
			task.SetStatus(entity.TaskConverting)
			emit("Converting audio to MP3...", 0.80)
		case provider.StageEmbeddingThumbnail:
			emit("Adding album artwork...", 0.85)
		case provider.StageEmbeddingMetadata:
			emit("Adding metadata tags...", 0.90)
		}
	}
}

// fillFromInfo completes resolver output with whatever the extraction
// info knows that the lookup did not.
func fillFromInfo(metadata *entity.TrackMetadata, info entity.CandidateInfo) {
	if metadata.Album == "" {
		metadata.Album = info.Album
	}
	if metadata.Year == "" {
		metadata.Year = info.UploadYear()
	}
	if metadata.Genre == "" {
		metadata.Genre = info.Genre
	}
}

// alreadyDownloaded reports whether the track is already on disk,
// either at its exact canonical path or under a slightly drifted
// filename in the same directory.
func (orchestrator *Orchestrator) alreadyDownloaded(outputPath, title string) (string, bool) {
	if _, err := os.Stat(outputPath); err == nil {
		return outputPath, true
	}
	if existing, ok := library.FindExisting(filepath.Dir(outputPath), title); ok {
		orchestrator.log.Info("near-match already on disk",
			zap.String("wanted", outputPath), zap.String("found", existing))
		return existing, true
	}
	return "", false
}

func (orchestrator *Orchestrator) fail(task *entity.DownloadTask, emit Sink, outputPath string, err error) error {
	if outputPath != "" {
		orchestrator.removeStemFiles(outputPath)
	}
	task.SetStatus(entity.TaskFailed)
	emit(err.Error(), 0)
	return err
}

func (orchestrator *Orchestrator) cancel(task *entity.DownloadTask, outputPath string) error {
	orchestrator.removeStemFiles(outputPath)
	task.SetStatus(entity.TaskCancelled)
	return ErrCancelled
}

// removeStemFiles deletes every file sharing the output filename stem,
// whatever the extension, so a failed task leaves nothing behind.
func (orchestrator *Orchestrator) removeStemFiles(outputPath string) {
	var (
		dir  = filepath.Dir(outputPath)
		stem = strings.TrimSuffix(filepath.Base(outputPath), filepath.Ext(outputPath))
	)
	entries, err := os.ReadDir(dir)
	if err != nil {
		orchestrator.log.Warn("cleanup scan failed", zap.String("dir", dir), zap.Error(err))
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name != stem && !strings.HasPrefix(name, stem+".") {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) {
			orchestrator.log.Warn("failed to remove partial file", zap.String("file", name), zap.Error(err))
		}
	}
}

// siblingExtensions are the temporary artifacts the extraction service
// may leave next to the final audio file.
var siblingExtensions = []string{".webp", ".jpg", ".jpeg", ".png", ".part", ".ytdl"}

// removeSiblings clears leftover artifacts at the same base path,
// ignoring files already absent. Permission errors are logged, not
// escalated.
func (orchestrator *Orchestrator) removeSiblings(outputPath string) {
	stem := util.FileStem(outputPath)
	for _, extension := range siblingExtensions {
		if err := os.Remove(stem + extension); err != nil && !os.IsNotExist(err) {
			orchestrator.log.Warn("failed to remove temporary artifact",
				zap.String("file", stem+extension), zap.Error(err))
		}
	}
}

func interrupted(ctx context.Context, task *entity.DownloadTask) bool {
	return task.Cancelled() || ctx.Err() != nil
}
