package commands

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/axondata/go-launchd"
	"github.com/cockroachdb/errors"
	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// createOptions holds the flags of `create`. Pointer fields are only set
// when the flag was given so absent keys stay absent in the plist.
type createOptions struct {
	Command          string
	Program          string
	RunAtLoad        *bool
	KeepAlive        *bool
	Interval         *uint64
	At               []string
	Weekday          *uint32
	Stdout           string
	Stderr           string
	WorkingDirectory string
	Env              []string
	Disabled         *bool
	Load             bool
}

// CreateCmd writes a new user agent
var CreateCmd = &cobra.Command{
	Use:   "create <label>",
	Short: "Create a user agent in ~/Library/LaunchAgents",
	Long: `Create <label>.plist in the user agents directory. The command line is
split with shell quoting rules into ProgramArguments.

Examples:
  launchdm create com.example.hello --command 'echo "hello world"' --run-at-load
  launchdm create com.example.backup --command '/usr/local/bin/backup --quiet' --at 03:30
  launchdm create com.example.poll --program /usr/local/bin/poll --interval 300 --load`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := createOptionsFromFlags(cmd.Flags())
		if err != nil {
			return err
		}
		return runCreate(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
	},
}

func init() {
	f := CreateCmd.Flags()
	f.StringP("command", "c", "", "Command line, split into ProgramArguments")
	f.String("program", "", "Absolute path of the executable (Program key)")
	f.Bool("run-at-load", false, "Run when loaded")
	f.Bool("keep-alive", false, "Restart whenever the job exits")
	f.Uint64("interval", 0, "Run every N seconds (StartInterval)")
	f.StringArray("at", nil, "Run daily at HH:MM (repeatable)")
	f.Int("weekday", -1, "Restrict --at to a weekday (0 and 7 are Sunday)")
	f.String("stdout", "", "StandardOutPath")
	f.String("stderr", "", "StandardErrorPath")
	f.String("workdir", "", "WorkingDirectory")
	f.StringArrayP("env", "e", nil, "Environment variable KEY=VALUE (repeatable)")
	f.Bool("disabled", false, "Write Disabled=true")
	f.Bool("load", false, "Load the job after creating it")
}

func createOptionsFromFlags(f *pflag.FlagSet) (createOptions, error) {
	var opts createOptions
	opts.Command, _ = f.GetString("command")
	opts.Program, _ = f.GetString("program")
	opts.At, _ = f.GetStringArray("at")
	opts.Stdout, _ = f.GetString("stdout")
	opts.Stderr, _ = f.GetString("stderr")
	opts.WorkingDirectory, _ = f.GetString("workdir")
	opts.Env, _ = f.GetStringArray("env")
	opts.Load, _ = f.GetBool("load")

	changedBool := func(name string) *bool {
		if !f.Changed(name) {
			return nil
		}
		v, _ := f.GetBool(name)
		return &v
	}
	opts.RunAtLoad = changedBool("run-at-load")
	opts.KeepAlive = changedBool("keep-alive")
	opts.Disabled = changedBool("disabled")

	if f.Changed("interval") {
		v, _ := f.GetUint64("interval")
		opts.Interval = &v
	}
	if wd, _ := f.GetInt("weekday"); wd >= 0 {
		if wd > 7 {
			return opts, errors.Newf("--weekday %d out of range [0, 7]", wd)
		}
		v := uint32(wd)
		opts.Weekday = &v
	}
	return opts, nil
}

// buildDefinition turns create flags into a validated JobDefinition
func buildDefinition(label string, opts createOptions) (*launchd.JobDefinition, error) {
	b := launchd.NewJobBuilder(label)

	if opts.Command != "" {
		args, err := shellquote.Split(opts.Command)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid --command %q", opts.Command)
		}
		if len(args) == 0 {
			return nil, errors.New("--command is empty")
		}
		b.WithProgramArguments(args...)
	}
	if opts.Program != "" {
		b.WithProgram(opts.Program)
	}
	if opts.RunAtLoad != nil {
		b.WithRunAtLoad(*opts.RunAtLoad)
	}
	if opts.KeepAlive != nil {
		b.WithKeepAlive(*opts.KeepAlive)
	}
	if opts.Interval != nil {
		b.WithStartInterval(*opts.Interval)
	}
	for _, at := range opts.At {
		ci, err := parseAt(at)
		if err != nil {
			return nil, err
		}
		ci.Weekday = opts.Weekday
		b.WithCalendarInterval(ci)
	}
	if opts.Weekday != nil && len(opts.At) == 0 {
		b.WithCalendarInterval(launchd.CalendarInterval{Weekday: opts.Weekday})
	}
	if opts.Stdout != "" {
		b.WithStdout(opts.Stdout)
	}
	if opts.Stderr != "" {
		b.WithStderr(opts.Stderr)
	}
	if opts.WorkingDirectory != "" {
		b.WithWorkingDirectory(opts.WorkingDirectory)
	}
	for _, kv := range opts.Env {
		k, v, err := parseEnv(kv)
		if err != nil {
			return nil, err
		}
		b.WithEnv(k, v)
	}
	if opts.Disabled != nil {
		b.WithDisabled(*opts.Disabled)
	}

	def, err := b.Build()
	if err != nil {
		return nil, errors.WithHint(err, "Pass --command or --program.")
	}
	return def, nil
}

// parseAt parses HH:MM into a calendar interval
func parseAt(s string) (launchd.CalendarInterval, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return launchd.CalendarInterval{}, errors.Newf("invalid --at %q, want HH:MM", s)
	}
	hour, err := strconv.ParseUint(hh, 10, 32)
	if err != nil {
		return launchd.CalendarInterval{}, errors.Wrapf(err, "invalid hour in --at %q", s)
	}
	minute, err := strconv.ParseUint(mm, 10, 32)
	if err != nil {
		return launchd.CalendarInterval{}, errors.Wrapf(err, "invalid minute in --at %q", s)
	}
	h, m := uint32(hour), uint32(minute)
	ci := launchd.CalendarInterval{Hour: &h, Minute: &m}
	if err := ci.Validate(); err != nil {
		return launchd.CalendarInterval{}, err
	}
	return ci, nil
}

// parseEnv splits KEY=VALUE; the value may be empty or contain '='
func parseEnv(s string) (string, string, error) {
	k, v, ok := strings.Cut(s, "=")
	if !ok || k == "" {
		return "", "", errors.Newf("invalid --env %q, want KEY=VALUE", s)
	}
	return k, v, nil
}

func runCreate(ctx context.Context, w io.Writer, label string, opts createOptions) error {
	def, err := buildDefinition(label, opts)
	if err != nil {
		return err
	}
	path, err := app.Manager.CreateJob(label, def)
	if err != nil {
		return err
	}
	success(w, "Created %s", path)

	if opts.Load {
		if err := app.Manager.StartJob(ctx, path); err != nil {
			return err
		}
		success(w, "Started %s", label)
	}
	return nil
}
