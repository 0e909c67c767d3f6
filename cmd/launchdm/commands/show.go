package commands

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/axondata/go-launchd"
	"github.com/axondata/go-launchd/internal/logger"
	"github.com/kballard/go-shellquote"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ShowCmd prints one job's definition and runtime state
var ShowCmd = &cobra.Command{
	Use:   "show <label|path>",
	Short: "Show a job's definition and runtime state",
	Long: `Show the parsed definition of a job merged with its runtime state.
For running jobs the live process is inspected as well.

Examples:
  launchdm show com.example.backup
  launchdm show ~/Library/LaunchAgents/com.example.backup.plist --raw`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOut, _ := cmd.Flags().GetBool("json")
		raw, _ := cmd.Flags().GetBool("raw")
		return runShow(cmd.Context(), cmd.OutOrStdout(), args[0], jsonOut, raw)
	},
}

func init() {
	ShowCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	ShowCmd.Flags().Bool("raw", false, "Print the job file as XML")
}

// jobView is the JSON shape of `show`
type jobView struct {
	*launchd.Job
	Process *launchd.ProcessInfo `json:"process,omitempty"`
}

func runShow(ctx context.Context, w io.Writer, arg string, jsonOut, raw bool) error {
	t, err := app.resolveTarget(ctx, arg)
	if err != nil {
		return err
	}
	job, err := app.Manager.GetJobDetail(ctx, t.Path)
	if err != nil {
		return err
	}

	if raw {
		_, err := io.WriteString(w, job.Definition.RawXML)
		return err
	}

	proc, err := job.ProcessInfo(ctx)
	if err != nil {
		app.Log.Debug("process lookup failed",
			zap.String(logger.FieldLabel, job.Label),
			zap.Stringer(logger.FieldStatus, job.Status),
			zap.Intp(logger.FieldPID, job.PID),
			zap.Error(err),
		)
		proc = nil
	}

	if jsonOut {
		return writeJSON(w, jobView{Job: job, Process: proc})
	}
	return writeTable(w, false, detailRows(job, proc))
}

func detailRows(job *launchd.Job, proc *launchd.ProcessInfo) pterm.TableData {
	def := job.Definition
	rows := pterm.TableData{
		{"Label", job.Label},
		{"Status", statusText(job.Status)},
		{"Loaded", strconv.FormatBool(job.Loaded)},
		{"PID", optInt(job.PID)},
		{"Last exit", optInt(job.LastExitCode)},
		{"Source", job.Source.String()},
		{"Path", job.PlistPath},
		{"Program", optString(def.Program)},
		{"Arguments", formatArgs(def.ProgramArguments)},
		{"RunAtLoad", optBool(def.RunAtLoad)},
		{"KeepAlive", optBool(def.KeepAlive)},
		{"StartInterval", formatInterval(def.StartInterval)},
		{"Calendar", formatCalendar(def.StartCalendarInterval)},
		{"Stdout", optString(def.StandardOutPath)},
		{"Stderr", optString(def.StandardErrorPath)},
		{"WorkingDirectory", optString(def.WorkingDirectory)},
		{"Environment", formatEnv(def.EnvironmentVariables)},
		{"Disabled", optBool(def.Disabled)},
	}
	if proc != nil {
		rows = append(rows,
			[]string{"Process", proc.Name},
			[]string{"Command line", proc.Cmdline},
			[]string{"RSS", fmt.Sprintf("%d KiB", proc.RSS/1024)},
			[]string{"CPU", fmt.Sprintf("%.1f%%", proc.CPUPercent)},
		)
		if !proc.StartedAt.IsZero() {
			rows = append(rows, []string{"Started", proc.StartedAt.Format(time.RFC3339)})
		}
	}
	return rows
}

func formatArgs(args []string) string {
	if args == nil {
		return "-"
	}
	return shellquote.Join(args...)
}

func formatInterval(p *uint64) string {
	if p == nil {
		return "-"
	}
	return (time.Duration(*p) * time.Second).String()
}

func formatEnv(env map[string]string) string {
	if env == nil {
		return "-"
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+env[k])
	}
	return strings.Join(pairs, " ")
}

// formatCalendar renders intervals like "Hour=3 Minute=30; Weekday=1"
func formatCalendar(intervals []launchd.CalendarInterval) string {
	if intervals == nil {
		return "-"
	}
	parts := make([]string, 0, len(intervals))
	for _, ci := range intervals {
		var fields []string
		for _, f := range []struct {
			name string
			v    *uint32
		}{
			{launchd.KeyMonth, ci.Month},
			{launchd.KeyDay, ci.Day},
			{launchd.KeyWeekday, ci.Weekday},
			{launchd.KeyHour, ci.Hour},
			{launchd.KeyMinute, ci.Minute},
		} {
			if f.v != nil {
				fields = append(fields, fmt.Sprintf("%s=%d", f.name, *f.v))
			}
		}
		if len(fields) == 0 {
			fields = append(fields, "every minute")
		}
		parts = append(parts, strings.Join(fields, " "))
	}
	return strings.Join(parts, "; ")
}
