package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"

	"github.com/axondata/go-launchd"
	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// check is one doctor probe
type check struct {
	Name string
	Run  func(context.Context) error
}

// DoctorCmd checks the environment launchdm depends on
var DoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that launchctl and the job directories are usable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDoctor(cmd.Context(), cmd.OutOrStdout(), doctorChecks())
	},
}

func doctorChecks() []check {
	lookPath := func(bin string) func(context.Context) error {
		return func(context.Context) error {
			_, err := exec.LookPath(bin)
			return err
		}
	}
	return []check{
		{"running on macOS", func(context.Context) error {
			if runtime.GOOS != "darwin" {
				return errors.Newf("GOOS is %s", runtime.GOOS)
			}
			return nil
		}},
		{"launchctl available", lookPath(app.Config.Launchctl.Path)},
		{"id available", lookPath(launchd.DefaultIDPath)},
		{"open available", lookPath(launchd.DefaultOpenPath)},
		{"user agents directory exists", func(context.Context) error {
			fi, err := os.Stat(app.Manager.Roots.UserAgents)
			if err != nil {
				return err
			}
			if !fi.IsDir() {
				return errors.Newf("%s is not a directory", app.Manager.Roots.UserAgents)
			}
			return nil
		}},
		{"launchctl list works", func(ctx context.Context) error {
			_, err := app.Manager.Controller.List(ctx)
			return err
		}},
	}
}

func runDoctor(ctx context.Context, w io.Writer, checks []check) error {
	failed := 0
	for _, c := range checks {
		if err := c.Run(ctx); err != nil {
			failed++
			fmt.Fprintln(w, pterm.Warning.Sprintf("%s: %s", c.Name, launchd.Render(err)))
			continue
		}
		success(w, "%s", c.Name)
	}
	if failed > 0 {
		return errors.Newf("%d of %d checks failed", failed, len(checks))
	}
	return nil
}
