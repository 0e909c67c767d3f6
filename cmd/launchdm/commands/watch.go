package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/axondata/go-launchd"
	"github.com/axondata/go-launchd/internal/logger"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// WatchCmd streams changes to job files
var WatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print job file changes as they happen",
	Long: `Watch the scanned roots and print a line for every job file that is
created, modified or removed. Changed jobs are re-read and shown with
their current status. Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		debounce, _ := cmd.Flags().GetDuration("debounce")
		return runWatch(cmd.Context(), cmd.OutOrStdout(), debounce)
	},
}

func init() {
	WatchCmd.Flags().Duration("debounce", launchd.DefaultWatchDebounce, "Coalesce bursts of events over this window")
}

func runWatch(ctx context.Context, w io.Writer, debounce time.Duration) error {
	events, cleanup, err := app.Manager.Watch(ctx, debounce)
	if err != nil {
		return err
	}
	defer func() {
		if err := cleanup(); err != nil {
			app.Log.Debug("watch cleanup failed", zap.Error(err))
		}
	}()

	pterm.Info.Println("Watching for job file changes (Ctrl-C to stop)")
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Err != nil {
				app.Log.Warn("watch error", zap.Error(ev.Err))
				continue
			}
			fmt.Fprintln(w, describeEvent(ctx, ev))
		}
	}
}

// describeEvent renders one change, re-reading the job when it still exists
func describeEvent(ctx context.Context, ev launchd.WatchEvent) string {
	if ev.Removed {
		return fmt.Sprintf("%s  %-12s %s", pterm.Red("removed"), ev.Source, ev.Path)
	}
	job, err := app.Manager.GetJobDetail(ctx, ev.Path)
	if err != nil {
		app.Log.Debug("changed file not readable", zap.String(logger.FieldPath, ev.Path), zap.Error(err))
		return fmt.Sprintf("%s  %-12s %s", pterm.Yellow("invalid"), ev.Source, ev.Path)
	}
	return fmt.Sprintf("%s  %-12s %s (%s)", pterm.Cyan("changed"), ev.Source, job.Label, statusText(job.Status))
}
