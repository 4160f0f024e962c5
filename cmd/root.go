package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tunegrab/tunegrab/config"
	"github.com/tunegrab/tunegrab/downloader"
	"github.com/tunegrab/tunegrab/entity"
	"github.com/tunegrab/tunegrab/filter"
	"github.com/tunegrab/tunegrab/id3"
	"github.com/tunegrab/tunegrab/library"
	"github.com/tunegrab/tunegrab/musicbrainz"
	"github.com/tunegrab/tunegrab/provider"
	"github.com/tunegrab/tunegrab/util"
	"go.uber.org/zap"
)

var (
	cfg *config.Config
	log *zap.Logger

	cmdRoot = &cobra.Command{
		Use:          "tunegrab",
		Short:        "Search and download music with resolved metadata",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cfg, err = config.Load(util.ErrWrap("")(cmd.Flags().GetString("config")))
			if err != nil {
				return err
			}
			log, err = config.NewLogger(cfg)
			return err
		},
	}
)

func init() {
	cmdRoot.PersistentFlags().StringP("config", "c", "", "Configuration file path")
}

func Execute() {
	err := cmdRoot.Execute()
	if log != nil {
		util.ErrSuppress(log.Sync())
	}
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// newEngine assembles the orchestrator and path resolver from the
// loaded configuration.
func newEngine() (*downloader.Orchestrator, *library.PathResolver) {
	contentFilter := filter.New(cfg.Filter.Enabled)
	paths := library.NewPathResolver(cfg.Downloads.BaseDir, contentFilter)
	extractor := provider.NewYTDLP(provider.YTDLPOptions{
		AudioFormat:  cfg.Downloads.AudioFormat,
		AudioQuality: cfg.Downloads.AudioQuality,
	}, log)

	var resolver downloader.MetadataResolver = musicbrainz.NewResolver(
		musicbrainz.NewClient(cfg.Metadata.UserAgent), log)
	if !cfg.Metadata.Fetch {
		resolver = passthroughResolver{}
	}

	return downloader.New(
		extractor,
		resolver,
		paths,
		id3.NewWriter(log),
		provider.NewRanker(contentFilter),
		log,
	), paths
}

// passthroughResolver skips the metadata service entirely, keeping the
// channel/title pair as-is.
type passthroughResolver struct{}

func (passthroughResolver) Resolve(_ context.Context, artist, title string) entity.TrackMetadata {
	return entity.Fallback(title, artist)
}

func (passthroughResolver) ResolveForPath(_ context.Context, normalizedTitle, channelName string) (string, string, string) {
	return channelName, normalizedTitle, ""
}
