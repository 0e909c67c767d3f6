package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/axondata/go-launchd"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// LogsCmd prints a job's stdout or stderr file
var LogsCmd = &cobra.Command{
	Use:   "logs <label|path>",
	Short: "Print the tail of a job's stdout or stderr file",
	Long: `Print the file named by StandardOutPath (or StandardErrorPath with
--stderr). Only the last lines are shown unless --all is given.

Examples:
  launchdm logs com.example.backup
  launchdm logs com.example.backup --stderr -n 20`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stderr, _ := cmd.Flags().GetBool("stderr")
		all, _ := cmd.Flags().GetBool("all")
		lines := app.Config.Logs.TailLines
		if cmd.Flags().Changed("lines") {
			lines, _ = cmd.Flags().GetInt("lines")
		}
		var tail *int
		if !all {
			tail = &lines
		}
		return runLogs(cmd.Context(), cmd.OutOrStdout(), args[0], stderr, tail)
	},
}

// RevealCmd shows a job file in Finder
var RevealCmd = &cobra.Command{
	Use:   "reveal <label|path>",
	Short: "Reveal a job file in Finder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		t, err := app.resolveTarget(ctx, args[0])
		if err != nil {
			return err
		}
		return app.Opener.RevealInFinder(ctx, t.Path)
	},
}

// EditLogCmd opens a job's log file in the default text editor
var EditLogCmd = &cobra.Command{
	Use:   "edit-log <label|path>",
	Short: "Open a job's log file in the default text editor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		stderr, _ := cmd.Flags().GetBool("stderr")
		t, err := app.resolveTarget(ctx, args[0])
		if err != nil {
			return err
		}
		def, err := launchd.ParseFile(t.Path)
		if err != nil {
			return err
		}
		path, err := logPath(def, stderr)
		if err != nil {
			return err
		}
		return app.Opener.OpenInEditor(ctx, path)
	},
}

func init() {
	LogsCmd.Flags().Bool("stderr", false, "Read StandardErrorPath instead of StandardOutPath")
	LogsCmd.Flags().IntP("lines", "n", 0, "Number of lines to show (default from logs.tail_lines)")
	LogsCmd.Flags().Bool("all", false, "Print the whole file")
	EditLogCmd.Flags().Bool("stderr", false, "Open StandardErrorPath instead of StandardOutPath")
}

func runLogs(ctx context.Context, w io.Writer, arg string, stderr bool, tail *int) error {
	t, err := app.resolveTarget(ctx, arg)
	if err != nil {
		return err
	}
	def, err := launchd.ParseFile(t.Path)
	if err != nil {
		return err
	}
	path, err := logPath(def, stderr)
	if err != nil {
		return err
	}

	lf, err := launchd.ReadLogFile(path, tail)
	if err != nil {
		return err
	}
	if lf.Content != "" {
		fmt.Fprintln(w, strings.TrimRight(lf.Content, "\n"))
	}
	if lf.ModifiedAt != nil {
		modified := time.UnixMilli(*lf.ModifiedAt)
		fmt.Fprintln(w, pterm.Gray(fmt.Sprintf("-- %s, modified %s", path, modified.Format(time.RFC3339))))
	}
	return nil
}
