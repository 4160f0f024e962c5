package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tunegrab/tunegrab/util"
)

func init() {
	cmdRoot.AddCommand(cmdSearch())
}

func cmdSearch() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search for tracks and print ranked candidates",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _ := newEngine()
			scored, err := engine.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if len(scored) == 0 {
				color.Yellow("no candidates found")
				return nil
			}

			for index, candidate := range scored {
				fmt.Printf("%2d. %s  %s\n", index+1,
					color.CyanString(util.Excerpt(candidate.Title)),
					color.New(color.Faint).Sprintf("%s · %s · score %.1f",
						candidate.ChannelName, formatDuration(candidate.DurationSeconds), candidate.Score))
				fmt.Printf("    https://youtube.com/watch?v=%s\n", candidate.ID)
			}
			return nil
		},
	}
}

func formatDuration(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
