// Package id3 applies resolved metadata to downloaded audio
// containers.
package id3

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/thanhpk/randstr"
	"github.com/tunegrab/tunegrab/entity"
	"go.uber.org/zap"
)

// Writer commits TrackMetadata into an audio file's tag store. Writes
// are atomic: the tag is saved on a temporary copy which then replaces
// the original, so a failure never leaves a half-written file behind.
type Writer struct {
	log *zap.Logger
}

func NewWriter(log *zap.Logger) *Writer {
	return &Writer{log: log}
}

// Write sets the non-empty fields of metadata on the file's tag,
// creating an empty tag header if none exists, and reports exactly
// what was written plus derived file facts.
func (writer *Writer) Write(path string, metadata entity.TrackMetadata) (entity.TagReport, error) {
	scratch := path + "." + randstr.Hex(6)
	if err := copyFile(path, scratch); err != nil {
		return entity.TagReport{}, fmt.Errorf("staging tag write: %w", err)
	}

	if err := writer.apply(scratch, metadata); err != nil {
		if removeErr := os.Remove(scratch); removeErr != nil {
			writer.log.Warn("leaving tag scratch file behind", zap.String("path", scratch), zap.Error(removeErr))
		}
		return entity.TagReport{}, err
	}

	if err := os.Rename(scratch, path); err != nil {
		_ = os.Remove(scratch)
		return entity.TagReport{}, fmt.Errorf("committing tag write: %w", err)
	}

	report := entity.TagReport{
		Fields: writtenFields(metadata),
		Path:   path,
		Format: strings.ToUpper(entity.TrackFormat),
	}
	if info, err := os.Stat(path); err == nil {
		report.Size = info.Size()
	}
	report.Duration = sniffDuration(path)
	return report, nil
}

func (writer *Writer) apply(path string, metadata entity.TrackMetadata) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("opening tag store: %w", err)
	}
	defer tag.Close()

	if metadata.Title != "" {
		tag.SetTitle(metadata.Title)
	}
	if metadata.Artist != "" {
		tag.SetArtist(metadata.Artist)
	}
	if metadata.Album != "" {
		tag.SetAlbum(metadata.Album)
	}
	if metadata.Year != "" {
		tag.SetYear(metadata.Year)
	}
	if metadata.Genre != "" {
		tag.SetGenre(metadata.Genre)
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("saving tags: %w", err)
	}
	return nil
}

func writtenFields(metadata entity.TrackMetadata) map[string]string {
	fields := make(map[string]string)
	for name, value := range map[string]string{
		"title":  metadata.Title,
		"artist": metadata.Artist,
		"album":  metadata.Album,
		"year":   metadata.Year,
		"genre":  metadata.Genre,
	} {
		if value != "" {
			fields[name] = value
		}
	}
	return fields
}

func copyFile(src, dst string) error {
	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer source.Close()

	target, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(target, source); err != nil {
		target.Close()
		return err
	}
	return target.Close()
}
