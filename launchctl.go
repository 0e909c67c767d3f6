package launchd

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/axondata/go-launchd/internal/logger"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Controller is the set of launchctl primitives the reconciliation layer
// needs. ClientLaunchctl is the real implementation; tests substitute fakes.
type Controller interface {
	List(ctx context.Context) ([]LoadedService, error)
	Bootstrap(ctx context.Context, plistPath string) error
	Bootout(ctx context.Context, plistPath string) error
	Kickstart(ctx context.Context, label string) error
	Enable(ctx context.Context, label string) error
	Disable(ctx context.Context, label string) error
}

// RunResult is the captured outcome of one subprocess invocation
type RunResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes an external command. A non-nil error means the process
// could not be spawned or was killed; a non-zero exit is reported through
// RunResult.ExitCode instead.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (RunResult, error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct{}

// Run implements Runner
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (RunResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := RunResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, err
	}
	return res, nil
}

// ClientLaunchctl drives launchctl for jobs in the invoking user's gui domain
type ClientLaunchctl struct {
	// LaunchctlPath is the path to the launchctl binary
	LaunchctlPath string

	// IDPath is the path to the id binary used for uid lookup
	IDPath string

	// Timeout bounds each invocation; zero disables it
	Timeout time.Duration

	// Rules classifies non-zero exits; nil uses DefaultRules
	Rules RuleSet

	runner Runner
	logger *zap.Logger

	// uid caches a successful `id -u`; failures are retried on next use
	uidMu sync.Mutex
	uid   string
}

// ClientOption configures a ClientLaunchctl
type ClientOption func(*ClientLaunchctl)

// WithLaunchctlPath overrides the launchctl binary
func WithLaunchctlPath(path string) ClientOption {
	return func(c *ClientLaunchctl) {
		if path != "" {
			c.LaunchctlPath = path
		}
	}
}

// WithClientTimeout sets the per-invocation timeout
func WithClientTimeout(d time.Duration) ClientOption {
	return func(c *ClientLaunchctl) {
		c.Timeout = d
	}
}

// WithRunner injects the subprocess runner
func WithRunner(r Runner) ClientOption {
	return func(c *ClientLaunchctl) {
		c.runner = r
	}
}

// WithRules replaces the classification table
func WithRules(rules RuleSet) ClientOption {
	return func(c *ClientLaunchctl) {
		c.Rules = rules
	}
}

// WithUID presets the uid instead of running `id -u`
func WithUID(uid int) ClientOption {
	return func(c *ClientLaunchctl) {
		c.uid = strconv.Itoa(uid)
	}
}

// WithClientLogger sets the logger used for invocation tracing
func WithClientLogger(l *zap.Logger) ClientOption {
	return func(c *ClientLaunchctl) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClientLaunchctl creates a launchctl client with default settings
func NewClientLaunchctl(opts ...ClientOption) *ClientLaunchctl {
	c := &ClientLaunchctl{
		LaunchctlPath: DefaultLaunchctlPath,
		IDPath:        DefaultIDPath,
		Timeout:       DefaultTimeout,
		runner:        ExecRunner{},
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UID returns the invoking user's uid, resolved via `id -u` and cached
func (c *ClientLaunchctl) UID(ctx context.Context) (string, error) {
	c.uidMu.Lock()
	defer c.uidMu.Unlock()
	if c.uid != "" {
		return c.uid, nil
	}

	res, err := c.run(ctx, c.IDPath, "-u")
	if err != nil {
		return "", newOpError(OpUID, "", ErrLaunchctl, errors.Wrap(err, "failed to run id -u"))
	}
	uid := strings.TrimSpace(res.Stdout)
	if _, perr := strconv.ParseUint(uid, 10, 32); res.ExitCode != 0 || perr != nil {
		return "", newOpError(OpUID, "", ErrLaunchctl, errors.Newf("failed to parse uid %q", uid))
	}
	c.uid = uid
	return uid, nil
}

// GUITarget returns the session domain target gui/<uid>
func (c *ClientLaunchctl) GUITarget(ctx context.Context) (string, error) {
	uid, err := c.UID(ctx)
	if err != nil {
		return "", err
	}
	return "gui/" + uid, nil
}

// ServiceTarget returns the service target gui/<uid>/<label>
func (c *ClientLaunchctl) ServiceTarget(ctx context.Context, label string) (string, error) {
	domain, err := c.GUITarget(ctx)
	if err != nil {
		return "", err
	}
	return domain + "/" + label, nil
}

// run executes one command under the configured timeout
func (c *ClientLaunchctl) run(ctx context.Context, name string, args ...string) (RunResult, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := c.runner.Run(ctx, name, args...)
	c.logger.Debug("exec",
		zap.String(logger.FieldCommand, name),
		zap.Strings(logger.FieldArgs, args),
		zap.Int(logger.FieldExitCode, res.ExitCode),
		zap.Int64(logger.FieldDurationMS, time.Since(start).Milliseconds()),
		zap.Error(err),
	)
	return res, err
}

// execLaunchctl runs a launchctl subcommand and classifies the result
func (c *ClientLaunchctl) execLaunchctl(ctx context.Context, op Operation, subject string, args ...string) (RunResult, error) {
	res, err := c.run(ctx, c.LaunchctlPath, args...)
	if err != nil {
		return res, newOpError(op, subject, ErrLaunchctl, errors.Wrapf(err, "failed to run launchctl %s", op))
	}

	cl := Classify(c.Rules, op, res.ExitCode, res.Stderr)
	switch cl.Outcome {
	case OutcomeSuccess:
		return res, nil
	case OutcomeBenign:
		c.logger.Debug("benign launchctl failure",
			zap.Stringer(logger.FieldOperation, op),
			zap.String(logger.FieldSubject, subject),
			zap.String(logger.FieldStderr, strings.TrimSpace(res.Stderr)),
		)
		return res, nil
	}

	cause := errors.Newf("launchctl %s failed (exit %d): %s", op, res.ExitCode, cl.Reason)
	if cl.Hint != "" {
		cause = errors.WithHint(cause, cl.Hint)
	}
	return res, newOpError(op, subject, ErrLaunchctl, cause)
}

// List returns the services loaded in the caller's domain
func (c *ClientLaunchctl) List(ctx context.Context) ([]LoadedService, error) {
	res, err := c.execLaunchctl(ctx, OpList, "", "list")
	if err != nil {
		return nil, err
	}
	return ParseList(res.Stdout), nil
}

// Bootstrap loads a job definition into the gui domain. An already loaded
// job is not an error.
func (c *ClientLaunchctl) Bootstrap(ctx context.Context, plistPath string) error {
	domain, err := c.GUITarget(ctx)
	if err != nil {
		return err
	}
	_, err = c.execLaunchctl(ctx, OpBootstrap, plistPath, "bootstrap", domain, plistPath)
	return err
}

// Bootout unloads a job. Unloading a job that is not loaded is not an error.
func (c *ClientLaunchctl) Bootout(ctx context.Context, plistPath string) error {
	domain, err := c.GUITarget(ctx)
	if err != nil {
		return err
	}
	_, err = c.execLaunchctl(ctx, OpBootout, plistPath, "bootout", domain, plistPath)
	return err
}

// Kickstart kills and restarts a loaded job
func (c *ClientLaunchctl) Kickstart(ctx context.Context, label string) error {
	return c.serviceOp(ctx, OpKickstart, label, "kickstart", "-k")
}

// Enable clears the persistent disabled flag for a job
func (c *ClientLaunchctl) Enable(ctx context.Context, label string) error {
	return c.serviceOp(ctx, OpEnable, label, "enable")
}

// Disable sets the persistent disabled flag for a job
func (c *ClientLaunchctl) Disable(ctx context.Context, label string) error {
	return c.serviceOp(ctx, OpDisable, label, "disable")
}

func (c *ClientLaunchctl) serviceOp(ctx context.Context, op Operation, label string, args ...string) error {
	target, err := c.ServiceTarget(ctx, label)
	if err != nil {
		return err
	}
	_, err = c.execLaunchctl(ctx, op, label, append(args, target)...)
	return err
}

// String describes the client for logging
func (c *ClientLaunchctl) String() string {
	return fmt.Sprintf("launchctl(%s)", c.LaunchctlPath)
}

var _ Controller = (*ClientLaunchctl)(nil)
