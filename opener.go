package launchd

import (
	"context"

	"github.com/cockroachdb/errors"
)

// Opener shows files to the user through macOS `open`
type Opener struct {
	// OpenPath is the path to the open binary
	OpenPath string

	runner Runner
}

// NewOpener creates an Opener. A nil runner uses ExecRunner.
func NewOpener(r Runner) *Opener {
	if r == nil {
		r = ExecRunner{}
	}
	return &Opener{OpenPath: DefaultOpenPath, runner: r}
}

// RevealInFinder selects path in a Finder window
func (o *Opener) RevealInFinder(ctx context.Context, path string) error {
	return o.open(ctx, path, "-R")
}

// OpenInEditor opens path in the default text editor
func (o *Opener) OpenInEditor(ctx context.Context, path string) error {
	return o.open(ctx, path, "-t")
}

func (o *Opener) open(ctx context.Context, path, flag string) error {
	res, err := o.runner.Run(ctx, o.OpenPath, flag, path)
	if err != nil {
		return newOpError(OpReveal, path, ErrIO, err)
	}
	if res.ExitCode != 0 {
		return newOpError(OpReveal, path, ErrIO, errors.Newf("open %s exited %d: %s", flag, res.ExitCode, res.Stderr))
	}
	return nil
}
