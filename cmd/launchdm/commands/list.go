package commands

import (
	"context"
	"io"
	"strings"

	"github.com/axondata/go-launchd"
	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// listOptions filters the job listing
type listOptions struct {
	JSON    bool
	Source  string
	Running bool
}

// ListCmd lists all jobs with their runtime state
var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs with their status",
	Long: `List every parsable job file under the scanned roots, merged with
launchd's runtime state and sorted by label.

Examples:
  launchdm list                     # All jobs
  launchdm list --source user       # Only ~/Library/LaunchAgents
  launchdm list --running --json    # Running jobs as JSON`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts listOptions
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Source, _ = cmd.Flags().GetString("source")
		opts.Running, _ = cmd.Flags().GetBool("running")
		return runList(cmd.Context(), cmd.OutOrStdout(), opts)
	},
}

func init() {
	ListCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	ListCmd.Flags().String("source", "", "Filter by source (user, system-agent, system-daemon)")
	ListCmd.Flags().Bool("running", false, "Only show running jobs")
}

// parseSource maps the --source flag onto a JobSource
func parseSource(s string) (launchd.JobSource, error) {
	switch strings.ToLower(s) {
	case "user", "user-agent", "useragent":
		return launchd.SourceUserAgent, nil
	case "system-agent", "systemagent":
		return launchd.SourceSystemAgent, nil
	case "system-daemon", "systemdaemon", "daemon":
		return launchd.SourceSystemDaemon, nil
	default:
		return 0, errors.WithHint(errors.Newf("unknown source %q", s), "Use one of: user, system-agent, system-daemon.")
	}
}

func runList(ctx context.Context, w io.Writer, opts listOptions) error {
	entries, err := app.Manager.ListJobs(ctx)
	if err != nil {
		return err
	}

	if opts.Source != "" {
		src, err := parseSource(opts.Source)
		if err != nil {
			return err
		}
		entries = filterEntries(entries, func(e launchd.JobEntry) bool { return e.Source == src })
	}
	if opts.Running {
		entries = filterEntries(entries, func(e launchd.JobEntry) bool { return e.Status == launchd.StatusRunning })
	}

	if opts.JSON {
		return writeJSON(w, entries)
	}

	data := pterm.TableData{{"LABEL", "STATUS", "PID", "LAST EXIT", "SOURCE", "PATH"}}
	for _, e := range entries {
		data = append(data, []string{
			e.Label,
			statusText(e.Status),
			optInt(e.PID),
			optInt(e.LastExitCode),
			e.Source.String(),
			e.PlistPath,
		})
	}
	return writeTable(w, true, data)
}

func filterEntries(entries []launchd.JobEntry, keep func(launchd.JobEntry) bool) []launchd.JobEntry {
	out := make([]launchd.JobEntry, 0, len(entries))
	for _, e := range entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
