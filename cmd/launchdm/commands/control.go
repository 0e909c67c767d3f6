package commands

import (
	"context"
	"io"

	"github.com/axondata/go-launchd"
	"github.com/axondata/go-launchd/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// StartCmd loads user agents
var StartCmd = &cobra.Command{
	Use:   "start <label|path>...",
	Short: "Load one or more user agents",
	Long: `Load user agents into the gui domain. Any stale load state is cleared
first, so starting an already loaded job reloads it.

Example:
  launchdm start com.example.backup com.example.sync`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBulk(cmd.Context(), cmd.OutOrStdout(), args, app.Manager.StartJobs, "Started")
	},
}

// StopCmd unloads user agents
var StopCmd = &cobra.Command{
	Use:   "stop <label|path>...",
	Short: "Unload one or more user agents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBulk(cmd.Context(), cmd.OutOrStdout(), args, app.Manager.StopJobs, "Stopped")
	},
}

// RestartCmd unloads and reloads a user agent
var RestartCmd = &cobra.Command{
	Use:   "restart <label|path>...",
	Short: "Reload one or more user agents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBulk(cmd.Context(), cmd.OutOrStdout(), args, app.Manager.RestartJobs, "Restarted")
	},
}

// KickstartCmd forces a user agent to run now
var KickstartCmd = &cobra.Command{
	Use:   "kickstart <label|path>",
	Short: "Run a user agent immediately, killing any running instance",
	Long: `Kickstart a user agent. Jobs that are not loaded are bootstrapped first.

Example:
  launchdm kickstart com.example.backup`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		t, err := app.resolveTarget(ctx, args[0])
		if err != nil {
			return err
		}
		if err := app.Manager.KickstartJob(ctx, t.Label, t.Path); err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Kickstarted %s", t.Label)
		return nil
	},
}

// EnableCmd clears a job's persistent disabled override
var EnableCmd = &cobra.Command{
	Use:   "enable <label|path>",
	Short: "Clear a job's disabled override",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runToggle(cmd.Context(), cmd.OutOrStdout(), args[0], app.Manager.EnableJob, "Enabled")
	},
}

// DisableCmd sets a job's persistent disabled override
var DisableCmd = &cobra.Command{
	Use:   "disable <label|path>",
	Short: "Set a job's disabled override",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runToggle(cmd.Context(), cmd.OutOrStdout(), args[0], app.Manager.DisableJob, "Disabled")
	},
}

func runBulk(ctx context.Context, w io.Writer, args []string, op func(context.Context, ...string) error, verb string) error {
	targets, err := app.resolveTargets(ctx, args)
	if err != nil {
		return err
	}
	paths := make([]string, 0, len(targets))
	for _, t := range targets {
		paths = append(paths, t.Path)
	}

	if err := op(ctx, paths...); err != nil {
		if merr, ok := err.(*launchd.MultiError); ok {
			for _, e := range merr.Errors {
				app.Log.Warn("job operation failed", zap.Error(e))
			}
		}
		return err
	}

	for _, t := range targets {
		app.Log.Info(verb, zap.String(logger.FieldLabel, t.Label), zap.String(logger.FieldPath, t.Path))
		success(w, "%s %s", verb, t.Label)
	}
	return nil
}

func runToggle(ctx context.Context, w io.Writer, arg string, op func(context.Context, string) error, verb string) error {
	label, err := resolveLabel(arg)
	if err != nil {
		return err
	}
	if err := op(ctx, label); err != nil {
		return err
	}
	success(w, "%s %s", verb, label)
	return nil
}
