package downloader

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tunegrab/tunegrab/entity"
	"github.com/tunegrab/tunegrab/filter"
	"github.com/tunegrab/tunegrab/library"
	"github.com/tunegrab/tunegrab/provider"
	"go.uber.org/zap"
)

type fakeExtractor struct {
	candidates   []entity.SearchCandidate
	info         entity.CandidateInfo
	infoErr      error
	afterInfo    func()
	transcodeErr error
	skipWrite    bool
	extraExts    []string
	events       []provider.Progress
	duringFetch  func()
	fetched      bool
}

func (extractor *fakeExtractor) SearchByQuery(context.Context, string, int) ([]entity.SearchCandidate, error) {
	return extractor.candidates, nil
}

func (extractor *fakeExtractor) FetchInfo(context.Context, string) (entity.CandidateInfo, error) {
	if extractor.afterInfo != nil {
		defer extractor.afterInfo()
	}
	return extractor.info, extractor.infoErr
}

func (extractor *fakeExtractor) FetchAndTranscode(_ context.Context, _ string, targetStem string, progress provider.ProgressFunc) error {
	extractor.fetched = true
	if extractor.duringFetch != nil {
		extractor.duringFetch()
	}
	for _, event := range extractor.events {
		progress(event)
	}
	for _, ext := range extractor.extraExts {
		if err := os.WriteFile(targetStem+ext, []byte("junk"), 0o644); err != nil {
			return err
		}
	}
	if extractor.transcodeErr != nil {
		return extractor.transcodeErr
	}
	if !extractor.skipWrite {
		return os.WriteFile(targetStem+".mp3", []byte("audio"), 0o644)
	}
	return nil
}

type fakeResolver struct{ metadata entity.TrackMetadata }

func (resolver fakeResolver) Resolve(_ context.Context, artist, title string) entity.TrackMetadata {
	if resolver.metadata != (entity.TrackMetadata{}) {
		return resolver.metadata
	}
	return entity.Fallback(title, artist)
}

func (resolver fakeResolver) ResolveForPath(_ context.Context, normalizedTitle, channelName string) (string, string, string) {
	return channelName, normalizedTitle, ""
}

type fakeTagWriter struct {
	err   error
	wrote []entity.TrackMetadata
}

func (writer *fakeTagWriter) Write(path string, metadata entity.TrackMetadata) (entity.TagReport, error) {
	if writer.err != nil {
		return entity.TagReport{}, writer.err
	}
	writer.wrote = append(writer.wrote, metadata)
	return entity.TagReport{Fields: map[string]string{"title": metadata.Title}, Path: path}, nil
}

type sinkRecorder struct {
	statuses  []string
	fractions []float64
}

func (recorder *sinkRecorder) record(status string, fraction float64) {
	recorder.statuses = append(recorder.statuses, status)
	recorder.fractions = append(recorder.fractions, fraction)
}

func (recorder *sinkRecorder) last() (string, float64) {
	if len(recorder.statuses) == 0 {
		return "", 0
	}
	return recorder.statuses[len(recorder.statuses)-1], recorder.fractions[len(recorder.fractions)-1]
}

func testOrchestrator(t *testing.T, extractor *fakeExtractor, tags TagWriter) (*Orchestrator, string) {
	t.Helper()
	base := t.TempDir()
	contentFilter := filter.New(false)
	return New(
		extractor,
		fakeResolver{},
		library.NewPathResolver(base, contentFilter),
		tags,
		provider.NewRanker(contentFilter),
		zap.NewNop(),
	), base
}

func filesUnder(t *testing.T, base string) []string {
	t.Helper()
	var files []string
	require.NoError(t, filepath.WalkDir(base, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			files = append(files, path)
		}
		return nil
	}))
	return files
}

func testInfo() entity.CandidateInfo {
	return entity.CandidateInfo{
		Title:       "Test Song (Official Audio)",
		ChannelName: "Test Artist",
		UploadDate:  "20190412",
	}
}

func TestDownloadSuccess(t *testing.T) {
	extractor := &fakeExtractor{info: testInfo(), extraExts: []string{".webp", ".jpg"}}
	tags := &fakeTagWriter{}
	orchestrator, base := testOrchestrator(t, extractor, tags)

	task := entity.NewDownloadTask("ref")
	sink := &sinkRecorder{}
	path, err := orchestrator.Download(context.Background(), task, sink.record)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, "Test Artist", "Test Song.mp3"), path)
	assert.Equal(t, entity.TaskCompleted, task.Status())
	assert.FileExists(t, path)

	// sibling artifacts are gone, only the audio file remains
	assert.Equal(t, []string{path}, filesUnder(t, base))

	status, fraction := sink.last()
	assert.Equal(t, "Download complete!", status)
	assert.Equal(t, 1.0, fraction)

	require.Len(t, tags.wrote, 1)
	assert.Equal(t, "Test Song", tags.wrote[0].Title)
	assert.Equal(t, "Test Artist", tags.wrote[0].Artist)
	assert.Equal(t, "2019", tags.wrote[0].Year)
}

func TestDownloadCancelledBeforeStart(t *testing.T) {
	extractor := &fakeExtractor{info: testInfo()}
	orchestrator, base := testOrchestrator(t, extractor, &fakeTagWriter{})

	task := entity.NewDownloadTask("ref")
	task.Cancel()
	_, err := orchestrator.Download(context.Background(), task, nil)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, entity.TaskCancelled, task.Status())
	assert.Empty(t, filesUnder(t, base))
}

func TestDownloadCancelledBeforeDownloading(t *testing.T) {
	extractor := &fakeExtractor{info: testInfo()}
	orchestrator, base := testOrchestrator(t, extractor, &fakeTagWriter{})

	task := entity.NewDownloadTask("ref")
	extractor.afterInfo = task.Cancel
	_, err := orchestrator.Download(context.Background(), task, nil)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, entity.TaskCancelled, task.Status())
	assert.Empty(t, filesUnder(t, base))
}

func TestDownloadCancelledMidDownload(t *testing.T) {
	extractor := &fakeExtractor{info: testInfo(), extraExts: []string{".part"}}
	orchestrator, base := testOrchestrator(t, extractor, &fakeTagWriter{})

	task := entity.NewDownloadTask("ref")
	extractor.duringFetch = task.Cancel
	_, err := orchestrator.Download(context.Background(), task, nil)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, entity.TaskCancelled, task.Status())
	// cleanup semantics still ran: nothing sharing the stem survives
	assert.Empty(t, filesUnder(t, base))
}

func TestDownloadFailureRemovesStemFiles(t *testing.T) {
	extractor := &fakeExtractor{info: testInfo()}
	orchestrator, base := testOrchestrator(t, extractor, &fakeTagWriter{})

	// the backend drops partial artifacts, then fails
	extractor.extraExts = []string{".part", ".webp"}
	extractor.transcodeErr = errors.New("network reset")

	task := entity.NewDownloadTask("ref")
	sink := &sinkRecorder{}
	_, err := orchestrator.Download(context.Background(), task, sink.record)
	require.Error(t, err)
	assert.Equal(t, entity.TaskFailed, task.Status())
	assert.Empty(t, filesUnder(t, base))

	status, fraction := sink.last()
	assert.Equal(t, "network reset", status)
	assert.Zero(t, fraction)
}

func TestDownloadTranscodeMissing(t *testing.T) {
	extractor := &fakeExtractor{info: testInfo(), skipWrite: true}
	orchestrator, base := testOrchestrator(t, extractor, &fakeTagWriter{})

	task := entity.NewDownloadTask("ref")
	_, err := orchestrator.Download(context.Background(), task, nil)
	assert.ErrorIs(t, err, provider.ErrTranscodeMissing)
	assert.Equal(t, entity.TaskFailed, task.Status())
	assert.Empty(t, filesUnder(t, base))
}

func TestDownloadInfoFailurePropagates(t *testing.T) {
	extractor := &fakeExtractor{infoErr: provider.ErrUnavailable}
	orchestrator, base := testOrchestrator(t, extractor, &fakeTagWriter{})

	task := entity.NewDownloadTask("ref")
	sink := &sinkRecorder{}
	_, err := orchestrator.Download(context.Background(), task, sink.record)
	assert.ErrorIs(t, err, provider.ErrUnavailable)
	assert.Equal(t, entity.TaskFailed, task.Status())
	assert.Empty(t, filesUnder(t, base))

	status, _ := sink.last()
	assert.Equal(t, provider.ErrUnavailable.Error(), status)
}

func TestDownloadTaggingFailureStillCompletes(t *testing.T) {
	extractor := &fakeExtractor{info: testInfo()}
	tags := &fakeTagWriter{err: errors.New("tag store corrupt")}
	orchestrator, _ := testOrchestrator(t, extractor, tags)

	task := entity.NewDownloadTask("ref")
	sink := &sinkRecorder{}
	path, err := orchestrator.Download(context.Background(), task, sink.record)
	require.NoError(t, err)
	assert.Equal(t, entity.TaskCompleted, task.Status())
	assert.FileExists(t, path)

	assert.Contains(t, sink.statuses, "Warning: metadata update failed, but download succeeded")
	status, fraction := sink.last()
	assert.Equal(t, "Download complete!", status)
	assert.Equal(t, 1.0, fraction)
}

func TestDownloadProgressMapping(t *testing.T) {
	extractor := &fakeExtractor{info: testInfo(), events: []provider.Progress{
		{Stage: provider.StageDownloading, Percent: 50},
		{Stage: provider.StageConverting},
		{Stage: provider.StageEmbeddingMetadata},
	}}
	orchestrator, _ := testOrchestrator(t, extractor, &fakeTagWriter{})

	task := entity.NewDownloadTask("ref")
	sink := &sinkRecorder{}
	_, err := orchestrator.Download(context.Background(), task, sink.record)
	require.NoError(t, err)

	assert.Contains(t, sink.statuses, "Downloading: 50.0%")
	assert.Contains(t, sink.fractions, 0.35)
	assert.Contains(t, sink.statuses, "Converting audio to MP3...")
	assert.Contains(t, sink.fractions, 0.80)
	assert.Contains(t, sink.fractions, 0.90)
}

func TestDownloadSkipsExistingTrack(t *testing.T) {
	extractor := &fakeExtractor{info: testInfo()}
	orchestrator, base := testOrchestrator(t, extractor, &fakeTagWriter{})

	existing := filepath.Join(base, "Test Artist", "Test Song.mp3")
	require.NoError(t, os.MkdirAll(filepath.Dir(existing), 0o755))
	require.NoError(t, os.WriteFile(existing, []byte("audio"), 0o644))

	task := entity.NewDownloadTask("ref")
	sink := &sinkRecorder{}
	path, err := orchestrator.Download(context.Background(), task, sink.record)
	require.NoError(t, err)
	assert.Equal(t, existing, path)
	assert.Equal(t, entity.TaskCompleted, task.Status())
	assert.False(t, extractor.fetched)

	status, fraction := sink.last()
	assert.Equal(t, "Already downloaded", status)
	assert.Equal(t, 1.0, fraction)
}

func TestDownloadOverwriteIgnoresExistingTrack(t *testing.T) {
	extractor := &fakeExtractor{info: testInfo()}
	orchestrator, base := testOrchestrator(t, extractor, &fakeTagWriter{})

	existing := filepath.Join(base, "Test Artist", "Test Song.mp3")
	require.NoError(t, os.MkdirAll(filepath.Dir(existing), 0o755))
	require.NoError(t, os.WriteFile(existing, []byte("stale"), 0o644))

	task := entity.NewDownloadTask("ref")
	task.Overwrite = true
	_, err := orchestrator.Download(context.Background(), task, nil)
	require.NoError(t, err)
	assert.True(t, extractor.fetched)
}

func TestSearchRanksAndSorts(t *testing.T) {
	extractor := &fakeExtractor{candidates: []entity.SearchCandidate{
		{ID: "1", Title: "Test Song (Live)", DurationSeconds: 200},
		{ID: "2", Title: "Test Song (Official Audio)", DurationSeconds: 200},
	}}
	orchestrator, _ := testOrchestrator(t, extractor, &fakeTagWriter{})

	scored, err := orchestrator.Search(context.Background(), "test song")
	require.NoError(t, err)
	require.Len(t, scored, 2)
	assert.Equal(t, "2", scored[0].ID)
	assert.Greater(t, scored[0].Score, scored[1].Score)
}
