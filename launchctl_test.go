package launchd

import (
	"context"
	"testing"

	"github.com/axondata/go-launchd/internal/logger"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testPlist = "/Users/test/Library/LaunchAgents/com.example.test.plist"

func newTestClient(r *fakeRunner) *ClientLaunchctl {
	return NewClientLaunchctl(WithRunner(r), WithUID(501))
}

func TestClientLaunchctlTargets(t *testing.T) {
	ctx := context.Background()
	r := newFakeRunner()
	c := newTestClient(r)

	require.NoError(t, c.Bootstrap(ctx, testPlist))
	require.NoError(t, c.Bootout(ctx, testPlist))
	require.NoError(t, c.Kickstart(ctx, "com.example.test"))
	require.NoError(t, c.Enable(ctx, "com.example.test"))
	require.NoError(t, c.Disable(ctx, "com.example.test"))

	assert.Equal(t, []string{
		"launchctl bootstrap gui/501 " + testPlist,
		"launchctl bootout gui/501 " + testPlist,
		"launchctl kickstart -k gui/501/com.example.test",
		"launchctl enable gui/501/com.example.test",
		"launchctl disable gui/501/com.example.test",
	}, r.commands())
}

func TestClientLaunchctlUIDLookup(t *testing.T) {
	ctx := context.Background()

	t.Run("resolved once via id -u", func(t *testing.T) {
		r := newFakeRunner().on("id -u", RunResult{Stdout: "502\n"})
		c := NewClientLaunchctl(WithRunner(r))

		require.NoError(t, c.Enable(ctx, "a"))
		require.NoError(t, c.Enable(ctx, "b"))

		assert.Equal(t, []string{
			"id -u",
			"launchctl enable gui/502/a",
			"launchctl enable gui/502/b",
		}, r.commands())
	})

	t.Run("unparsable uid", func(t *testing.T) {
		r := newFakeRunner().on("id -u", RunResult{Stdout: "nobody\n"})
		c := NewClientLaunchctl(WithRunner(r))

		err := c.Bootstrap(ctx, testPlist)
		require.ErrorIs(t, err, ErrLaunchctl)
		assert.Equal(t, []string{"id -u"}, r.commands())
	})

	t.Run("id not spawnable", func(t *testing.T) {
		r := newFakeRunner()
		r.errs["id -u"] = errSpawn
		c := NewClientLaunchctl(WithRunner(r))

		_, err := c.UID(ctx)
		require.ErrorIs(t, err, ErrLaunchctl)
	})
}

func TestClientLaunchctlList(t *testing.T) {
	ctx := context.Background()

	t.Run("parses output", func(t *testing.T) {
		r := newFakeRunner().on("launchctl list", RunResult{
			Stdout: "PID\tStatus\tLabel\n1234\t0\tcom.example.running\n-\t78\tcom.example.stopped\n",
		})
		got, err := newTestClient(r).List(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, 1234, *got[0].PID)
		assert.Nil(t, got[1].PID)
		assert.Equal(t, 78, *got[1].LastExitCode)
	})

	t.Run("non-zero exit", func(t *testing.T) {
		r := newFakeRunner().on("launchctl list", RunResult{ExitCode: 1, Stderr: "boom"})
		_, err := newTestClient(r).List(ctx)
		require.ErrorIs(t, err, ErrLaunchctl)
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("spawn failure", func(t *testing.T) {
		r := newFakeRunner()
		r.errs["launchctl list"] = errSpawn
		_, err := newTestClient(r).List(ctx)
		require.ErrorIs(t, err, ErrLaunchctl)
	})
}

func TestClientLaunchctlBootstrapIdempotent(t *testing.T) {
	ctx := context.Background()
	r := newFakeRunner().
		on("launchctl bootstrap", RunResult{}).
		on("launchctl bootstrap", RunResult{ExitCode: 5, Stderr: "Bootstrap failed: 5: service already loaded\n"})
	c := newTestClient(r)

	require.NoError(t, c.Bootstrap(ctx, testPlist))
	require.NoError(t, c.Bootstrap(ctx, testPlist))
	require.NoError(t, c.Bootstrap(ctx, testPlist))
}

func TestClientLaunchctlBootstrapIOErrorHint(t *testing.T) {
	ctx := context.Background()
	r := newFakeRunner().on("launchctl bootstrap", RunResult{
		ExitCode: 5,
		Stderr:   "Bootstrap failed: 5: Input/output error\n",
	})

	err := newTestClient(r).Bootstrap(ctx, testPlist)
	require.ErrorIs(t, err, ErrLaunchctl)
	assert.Contains(t, err.Error(), "Input/output error")
	assert.Contains(t, errors.GetAllHints(err), HintRunAsRoot)
	assert.Contains(t, Render(err), "re-running the command as root")

	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, OpBootstrap, opErr.Op)
	assert.Equal(t, testPlist, opErr.Path)
}

func TestClientLaunchctlBootoutIdempotent(t *testing.T) {
	ctx := context.Background()
	for _, stderr := range []string{
		"Boot-out failed: 3: service not loaded",
		"Boot-out failed: 3: No such process",
		"Could not find specified service",
	} {
		t.Run(stderr, func(t *testing.T) {
			r := newFakeRunner().on("launchctl bootout", RunResult{ExitCode: 3, Stderr: stderr})
			require.NoError(t, newTestClient(r).Bootout(ctx, testPlist))
		})
	}

	t.Run("other failures are fatal", func(t *testing.T) {
		r := newFakeRunner().on("launchctl bootout", RunResult{ExitCode: 1, Stderr: "Operation not permitted"})
		require.ErrorIs(t, newTestClient(r).Bootout(ctx, testPlist), ErrLaunchctl)
	})
}

func TestClientLaunchctlHardFailures(t *testing.T) {
	ctx := context.Background()
	fail := RunResult{ExitCode: 113, Stderr: "Could not find specified service"}
	r := newFakeRunner().
		on("launchctl kickstart", fail).
		on("launchctl enable", fail).
		on("launchctl disable", fail)
	c := newTestClient(r)

	require.ErrorIs(t, c.Kickstart(ctx, "com.example.test"), ErrLaunchctl)
	require.ErrorIs(t, c.Enable(ctx, "com.example.test"), ErrLaunchctl)
	require.ErrorIs(t, c.Disable(ctx, "com.example.test"), ErrLaunchctl)
}

func TestClientLaunchctlOptions(t *testing.T) {
	c := NewClientLaunchctl(
		WithLaunchctlPath("/bin/launchctl"),
		WithClientTimeout(0),
		WithRules(RuleSet{}),
	)
	assert.Equal(t, "/bin/launchctl", c.LaunchctlPath)
	assert.Zero(t, c.Timeout)
	assert.NotNil(t, c.Rules)
	assert.Equal(t, "launchctl(/bin/launchctl)", c.String())
}

func TestClientLaunchctlLogFields(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.DebugLevel)
	r := newFakeRunner().on("launchctl bootout", RunResult{ExitCode: 3, Stderr: "Could not find specified service\n"})
	c := NewClientLaunchctl(WithRunner(r), WithUID(501), WithClientLogger(zap.New(core)))

	require.NoError(t, c.Bootout(ctx, testPlist))

	execs := logs.FilterMessage("exec").All()
	require.Len(t, execs, 1)
	fields := execs[0].ContextMap()
	assert.Equal(t, DefaultLaunchctlPath, fields[logger.FieldCommand])
	assert.EqualValues(t, 3, fields[logger.FieldExitCode])
	assert.Contains(t, fields, logger.FieldArgs)
	assert.Contains(t, fields, logger.FieldDurationMS)

	benign := logs.FilterMessage("benign launchctl failure").All()
	require.Len(t, benign, 1)
	fields = benign[0].ContextMap()
	assert.Equal(t, OpBootout.String(), fields[logger.FieldOperation])
	assert.Equal(t, testPlist, fields[logger.FieldSubject])
	assert.Equal(t, "Could not find specified service", fields[logger.FieldStderr])
}
