package launchd

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// fakeRunner returns scripted results keyed by "<name> <first arg>"
type fakeRunner struct {
	mu      sync.Mutex
	results map[string][]RunResult
	errs    map[string]error
	calls   [][]string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		results: make(map[string][]RunResult),
		errs:    make(map[string]error),
	}
}

// on queues a result; the last queued result repeats once others are used
func (f *fakeRunner) on(key string, res RunResult) *fakeRunner {
	f.results[key] = append(f.results[key], res)
	return f
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (RunResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, append([]string{name}, args...))
	key := name
	if len(args) > 0 {
		key += " " + args[0]
	}
	if err, ok := f.errs[key]; ok {
		return RunResult{}, err
	}
	queue := f.results[key]
	if len(queue) == 0 {
		return RunResult{}, nil
	}
	res := queue[0]
	if len(queue) > 1 {
		f.results[key] = queue[1:]
	}
	return res, nil
}

func (f *fakeRunner) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, strings.Join(c, " "))
	}
	return out
}

// fakeController records calls and serves a fixed loaded set
type fakeController struct {
	mu      sync.Mutex
	loaded  []LoadedService
	listErr error
	errs    map[string]error
	calls   []string
}

func newFakeController(loaded ...LoadedService) *fakeController {
	return &fakeController{loaded: loaded, errs: make(map[string]error)}
}

func (f *fakeController) record(op, arg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op+" "+arg)
	return f.errs[op]
}

func (f *fakeController) List(context.Context) ([]LoadedService, error) {
	if err := f.record("list", ""); err != nil {
		return nil, err
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]LoadedService(nil), f.loaded...), nil
}

func (f *fakeController) Bootstrap(_ context.Context, path string) error {
	return f.record("bootstrap", path)
}

func (f *fakeController) Bootout(_ context.Context, path string) error {
	return f.record("bootout", path)
}

func (f *fakeController) Kickstart(_ context.Context, label string) error {
	return f.record("kickstart", label)
}

func (f *fakeController) Enable(_ context.Context, label string) error {
	return f.record("enable", label)
}

func (f *fakeController) Disable(_ context.Context, label string) error {
	return f.record("disable", label)
}

func (f *fakeController) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

var errSpawn = errors.New("exec: \"launchctl\": executable file not found in $PATH")

func intPtr(v int) *int       { return &v }
func u32(v uint32) *uint32    { return &v }
func u64(v uint64) *uint64    { return &v }
func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool    { return &v }
