package commands

import (
	"context"

	"github.com/axondata/go-launchd"
	"github.com/axondata/go-launchd/internal/config"
	"github.com/axondata/go-launchd/internal/logger"
	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	app        *App
)

// RootCmd is the launchdm entry point
var RootCmd = &cobra.Command{
	Use:   "launchdm",
	Short: "Manage macOS launchd jobs",
	Long: `launchdm lists launchd job definitions merged with their runtime state
and starts, stops or edits the invoking user's agents.

Jobs are read from ~/Library/LaunchAgents, /Library/LaunchAgents and
/Library/LaunchDaemons. Only user agents can be started, stopped,
restarted or kickstarted.

Examples:
  launchdm list                          # All jobs with status
  launchdm show com.example.backup       # Definition and runtime state
  launchdm restart com.example.backup    # Reload a user agent
  launchdm logs com.example.backup -n 50 # Tail the job's stdout`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if app != nil || cmd.Name() == "version" {
			return nil
		}
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		app = a
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app != nil && app.Log != nil {
			_ = app.Log.Sync()
		}
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/launchdm/config.toml)")
	RootCmd.PersistentFlags().Bool("log-json", false, "Emit diagnostic logs as JSON")
	RootCmd.PersistentFlags().String("log-level", "", "Diagnostic log level (debug, info, warn, error)")

	RootCmd.AddCommand(ListCmd)
	RootCmd.AddCommand(ShowCmd)
	RootCmd.AddCommand(StartCmd)
	RootCmd.AddCommand(StopCmd)
	RootCmd.AddCommand(RestartCmd)
	RootCmd.AddCommand(KickstartCmd)
	RootCmd.AddCommand(EnableCmd)
	RootCmd.AddCommand(DisableCmd)
	RootCmd.AddCommand(CreateCmd)
	RootCmd.AddCommand(SaveRawCmd)
	RootCmd.AddCommand(DeleteCmd)
	RootCmd.AddCommand(LogsCmd)
	RootCmd.AddCommand(RevealCmd)
	RootCmd.AddCommand(EditLogCmd)
	RootCmd.AddCommand(WatchCmd)
	RootCmd.AddCommand(DoctorCmd)
	RootCmd.AddCommand(VersionCmd)
}

// Execute runs the root command and prints any error with its hints
func Execute(ctx context.Context) error {
	err := RootCmd.ExecuteContext(ctx)
	if err != nil {
		pterm.Error.Println(launchd.Render(err))
	}
	return err
}

// setup loads configuration and wires the manager for one invocation
func setup(cmd *cobra.Command) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-json") {
		cfg.Log.JSON, _ = flags.GetBool("log-json")
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}

	log, err := logger.New(logger.Options{JSON: cfg.Log.JSON, Level: cfg.Log.Level})
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize logger")
	}

	roots, err := cfg.ResolveRoots()
	if err != nil {
		return nil, err
	}

	client := launchd.NewClientLaunchctl(
		launchd.WithLaunchctlPath(cfg.Launchctl.Path),
		launchd.WithClientTimeout(cfg.Launchctl.Timeout),
		launchd.WithClientLogger(log.Named("launchctl")),
	)
	return newApp(cfg, log, client, roots)
}

// newApp assembles an App around any Controller
func newApp(cfg *config.Config, log *zap.Logger, ctrl launchd.Controller, roots launchd.Roots) (*App, error) {
	mgr, err := launchd.NewManager(
		launchd.WithController(ctrl),
		launchd.WithRoots(roots),
		launchd.WithConcurrency(cfg.Manager.Concurrency),
		launchd.WithTimeout(cfg.Launchctl.Timeout),
		launchd.WithLogger(log.Named("manager")),
	)
	if err != nil {
		return nil, err
	}

	log.Debug("configured",
		zap.String(logger.FieldConfigFile, configPath),
		zap.String(logger.FieldPath, roots.UserAgents),
	)

	return &App{
		Config:  cfg,
		Log:     log,
		Manager: mgr,
		Opener:  launchd.NewOpener(nil),
	}, nil
}
