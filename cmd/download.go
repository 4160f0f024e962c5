package cmd

import (
	"context"
	"fmt"
	"sync"

	"atomicgo.dev/cursor"
	"github.com/arunsworld/nursery"
	"github.com/fatih/color"
	"github.com/gosimple/slug"
	"github.com/spf13/cobra"
	"github.com/tunegrab/tunegrab/downloader"
	"github.com/tunegrab/tunegrab/entity"
	"github.com/tunegrab/tunegrab/util"
	"go.uber.org/zap"
)

func init() {
	cmdRoot.AddCommand(cmdDownload())
}

func cmdDownload() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download <video-id-or-url>...",
		Short: "Download tracks with resolved metadata and tags",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			force := util.ErrWrap(false)(cmd.Flags().GetBool("force"))
			engine, _ := newEngine()

			var (
				semaphore = make(chan struct{}, cfg.Network.MaxDownloads)
				routines  = make([]nursery.ConcurrentJob, 0, len(args))
				printer   = newLinePrinter()
			)
			for _, ref := range args {
				routines = append(routines, routineDownload(engine, ref, force, semaphore, printer))
			}
			return nursery.RunConcurrently(routines...)
		},
	}
	cmd.Flags().BoolP("force", "f", false, "Download even when a matching local file exists")
	return cmd
}

func routineDownload(engine *downloader.Orchestrator, ref string, force bool, semaphore chan struct{}, printer *linePrinter) nursery.ConcurrentJob {
	return func(ctx context.Context, ch chan error) {
		semaphore <- struct{}{}
		defer func() { <-semaphore }()

		var (
			label = slug.Make(ref)
			task  = entity.NewDownloadTask(ref)
		)
		task.Overwrite = force
		log.Info("task starting", zap.String("task", label), zap.String("id", task.ID))

		go func() {
			<-ctx.Done()
			task.Cancel()
		}()

		path, err := engine.Download(ctx, task, func(status string, fraction float64) {
			printer.update(fmt.Sprintf("[%s] %s (%.0f%%)", label, status, fraction*100))
		})
		if err != nil {
			printer.println(color.RedString("[%s] %s", label, err))
			ch <- err
			return
		}
		printer.println(color.GreenString("[%s] saved to %s", label, path))
	}
}

// linePrinter rewrites a single terminal line for transient progress
// and promotes finished lines above it. Safe for concurrent use.
type linePrinter struct {
	mutex sync.Mutex
}

func newLinePrinter() *linePrinter {
	return &linePrinter{}
}

func (printer *linePrinter) update(line string) {
	printer.mutex.Lock()
	defer printer.mutex.Unlock()
	cursor.StartOfLine()
	cursor.ClearLine()
	fmt.Print(line)
}

func (printer *linePrinter) println(line string) {
	printer.mutex.Lock()
	defer printer.mutex.Unlock()
	cursor.StartOfLine()
	cursor.ClearLine()
	fmt.Println(line)
}
