package commands

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/axondata/go-launchd"
	"github.com/axondata/go-launchd/internal/config"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// App holds the wired dependencies shared by all commands
type App struct {
	Config  *config.Config
	Log     *zap.Logger
	Manager *launchd.Manager
	Opener  *launchd.Opener
}

// target is a job addressed on the command line
type target struct {
	Label string
	Path  string
}

// looksLikePath reports whether arg names a file rather than a label
func looksLikePath(arg string) bool {
	return strings.HasSuffix(arg, launchd.PlistExt) || strings.ContainsRune(arg, os.PathSeparator)
}

// resolveTarget maps a label or plist path to both. Labels are looked up
// among the scanned job files.
func (a *App) resolveTarget(ctx context.Context, arg string) (target, error) {
	if looksLikePath(arg) {
		path, err := filepath.Abs(arg)
		if err != nil {
			return target{}, err
		}
		def, err := launchd.ParseFile(path)
		if err != nil {
			return target{}, err
		}
		return target{Label: def.Label, Path: path}, nil
	}

	entries, err := a.Manager.ListJobs(ctx)
	if err != nil {
		return target{}, err
	}
	for _, e := range entries {
		if e.Label == arg {
			return target{Label: e.Label, Path: e.PlistPath}, nil
		}
	}
	return target{}, &launchd.OpError{
		Op:   launchd.OpDetail,
		Path: arg,
		Kind: launchd.ErrNotFound,
		Err:  errors.WithHint(errors.New("no job file with this label"), "Run 'launchdm list' to see known labels."),
	}
}

// resolveTargets resolves every argument, stopping at the first failure
func (a *App) resolveTargets(ctx context.Context, args []string) ([]target, error) {
	out := make([]target, 0, len(args))
	for _, arg := range args {
		t, err := a.resolveTarget(ctx, arg)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// resolveLabel returns arg as-is unless it is a path, in which case the
// label is read from the file
func resolveLabel(arg string) (string, error) {
	if !looksLikePath(arg) {
		return arg, nil
	}
	def, err := launchd.ParseFile(arg)
	if err != nil {
		return "", err
	}
	return def.Label, nil
}
