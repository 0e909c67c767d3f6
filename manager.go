package launchd

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/axondata/go-launchd/internal/logger"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Manager merges on-disk job definitions with launchd's runtime state and
// enforces the user-agent policy on mutating operations. It keeps no state
// between calls: every query re-scans disk and re-runs launchctl.
type Manager struct {
	// Controller issues launchctl primitives
	Controller Controller
	// Roots are the directories job files are read from
	Roots Roots
	// Concurrency is the maximum number of concurrent parses or bulk operations
	Concurrency int
	// Timeout is the per-operation timeout for bulk operations
	Timeout time.Duration

	logger *zap.Logger
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithController sets the launchctl implementation
func WithController(c Controller) ManagerOption {
	return func(m *Manager) {
		m.Controller = c
	}
}

// WithRoots sets the scanned directories
func WithRoots(r Roots) ManagerOption {
	return func(m *Manager) {
		m.Roots = r
	}
}

// WithConcurrency sets the maximum number of concurrent operations
func WithConcurrency(n int) ManagerOption {
	return func(m *Manager) {
		m.Concurrency = n
	}
}

// WithTimeout sets the per-operation timeout for bulk operations
func WithTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.Timeout = d
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates a Manager. Without WithRoots it uses DefaultRoots;
// without WithController it drives the real launchctl.
func NewManager(opts ...ManagerOption) (*Manager, error) {
	m := &Manager{
		Concurrency: DefaultConcurrency,
		logger:      zap.NewNop(),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.Concurrency < 1 {
		m.Concurrency = 1
	}
	if m.Roots.UserAgents == "" {
		roots, err := DefaultRoots()
		if err != nil {
			return nil, err
		}
		m.Roots = roots
	}
	if m.Controller == nil {
		m.Controller = NewClientLaunchctl(WithClientLogger(m.logger))
	}
	return m, nil
}

// loadedIndex fetches the loaded set once. A failed query is treated as
// "nothing loaded" so listings degrade instead of failing.
func (m *Manager) loadedIndex(ctx context.Context) map[string]*LoadedService {
	loaded, err := m.Controller.List(ctx)
	if err != nil {
		m.logger.Warn("launchctl list failed; treating all jobs as stopped", zap.Error(err))
		loaded = nil
	}
	return indexByLabel(loaded)
}

// ListJobs returns every parsable job under the roots, merged with runtime
// state and sorted by label. Unparsable files are skipped.
func (m *Manager) ListJobs(ctx context.Context) ([]JobEntry, error) {
	files := m.Roots.Scan()
	defs := make([]*JobDefinition, len(files))

	sem := make(chan struct{}, m.Concurrency)
	var wg sync.WaitGroup
	for i, f := range files {
		wg.Add(1)
		go func(i int, f JobFile) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			def, err := ParseFile(f.Path)
			if err != nil {
				m.logger.Debug("skipping unparsable job file", zap.String(logger.FieldPath, f.Path), zap.Error(err))
				return
			}
			defs[i] = def
		}(i, f)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	loaded := m.loadedIndex(ctx)
	entries := make([]JobEntry, 0, len(files))
	for i, f := range files {
		def := defs[i]
		if def == nil {
			continue
		}
		status, pid, exitCode, isLoaded := runtimeState(loaded[def.Label])
		entries = append(entries, JobEntry{
			Label:        def.Label,
			PID:          pid,
			LastExitCode: exitCode,
			PlistPath:    f.Path,
			Source:       f.Source,
			Status:       status,
			Loaded:       isLoaded,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Label < entries[j].Label })
	m.logger.Debug("listed jobs", zap.Int(logger.FieldCount, len(entries)))
	return entries, nil
}

// GetJobDetail parses one job file and merges it with runtime state
func (m *Manager) GetJobDetail(ctx context.Context, plistPath string) (*Job, error) {
	if _, err := os.Stat(plistPath); err != nil {
		return nil, newOpError(OpDetail, plistPath, ioKind(err), err)
	}

	def, err := ParseFile(plistPath)
	if err != nil {
		return nil, err
	}

	status, pid, exitCode, isLoaded := runtimeState(m.loadedIndex(ctx)[def.Label])
	return &Job{
		JobEntry: JobEntry{
			Label:        def.Label,
			PID:          pid,
			LastExitCode: exitCode,
			PlistPath:    plistPath,
			Source:       m.Roots.ClassifySource(plistPath),
			Status:       status,
			Loaded:       isLoaded,
		},
		Definition: def,
	}, nil
}

// EnsureUserAgent rejects paths outside the user agents directory
func (m *Manager) EnsureUserAgent(op Operation, plistPath string) error {
	return m.Roots.EnsureUserAgent(op, plistPath)
}

// reload unloads a job best-effort, then loads it fresh
func (m *Manager) reload(ctx context.Context, plistPath string) error {
	if err := m.Controller.Bootout(ctx, plistPath); err != nil {
		m.logger.Debug("ignoring bootout failure before bootstrap", zap.String(logger.FieldPath, plistPath), zap.Error(err))
	}
	return m.Controller.Bootstrap(ctx, plistPath)
}

// StartJob loads a user agent, clearing any stale load state first
func (m *Manager) StartJob(ctx context.Context, plistPath string) error {
	if err := m.Roots.EnsureUserAgent(OpStart, plistPath); err != nil {
		return err
	}
	return m.reload(ctx, plistPath)
}

// StopJob unloads a user agent
func (m *Manager) StopJob(ctx context.Context, plistPath string) error {
	if err := m.Roots.EnsureUserAgent(OpStop, plistPath); err != nil {
		return err
	}
	return m.Controller.Bootout(ctx, plistPath)
}

// RestartJob is the same bootout-then-bootstrap sequence as StartJob
func (m *Manager) RestartJob(ctx context.Context, plistPath string) error {
	if err := m.Roots.EnsureUserAgent(OpRestart, plistPath); err != nil {
		return err
	}
	return m.reload(ctx, plistPath)
}

// KickstartJob bootstraps the job if its label is not loaded, then
// kickstarts it
func (m *Manager) KickstartJob(ctx context.Context, label, plistPath string) error {
	if err := m.Roots.EnsureUserAgent(OpKickstart, plistPath); err != nil {
		return err
	}
	if _, ok := m.loadedIndex(ctx)[label]; !ok {
		if err := m.Controller.Bootstrap(ctx, plistPath); err != nil {
			return err
		}
	}
	return m.Controller.Kickstart(ctx, label)
}

// EnableJob clears a job's persistent disabled flag
func (m *Manager) EnableJob(ctx context.Context, label string) error {
	return m.Controller.Enable(ctx, label)
}

// DisableJob sets a job's persistent disabled flag
func (m *Manager) DisableJob(ctx context.Context, label string) error {
	return m.Controller.Disable(ctx, label)
}

// SaveJob writes a structured definition to plistPath
func (m *Manager) SaveJob(plistPath string, def *JobDefinition) error {
	return WriteFile(plistPath, def)
}

// SaveRawPlist validates and writes hand-edited XML to plistPath
func (m *Manager) SaveRawPlist(plistPath, xmlText string) error {
	return WriteRaw(plistPath, xmlText)
}

// CreateJob writes def as <label>.plist in the user agents directory,
// creating the directory if needed, and returns the new path
func (m *Manager) CreateJob(label string, def *JobDefinition) (string, error) {
	if label == "" || strings.ContainsRune(label, os.PathSeparator) || label == "." || label == ".." {
		return "", newOpError(OpCreate, label, ErrPlist, errors.New("invalid label"))
	}
	if def == nil {
		def = &JobDefinition{}
	}
	if def.Label == "" {
		def.Label = label
	}

	if err := os.MkdirAll(m.Roots.UserAgents, DirMode); err != nil {
		return "", newOpError(OpCreate, m.Roots.UserAgents, ErrIO, err)
	}
	path := filepath.Join(m.Roots.UserAgents, label+PlistExt)
	if err := WriteFile(path, def); err != nil {
		return "", err
	}
	return path, nil
}

// DeleteJob unloads and disables a job best-effort, then removes its file
func (m *Manager) DeleteJob(ctx context.Context, plistPath, label string) error {
	if err := m.Controller.Bootout(ctx, plistPath); err != nil {
		m.logger.Debug("ignoring bootout failure on delete", zap.String(logger.FieldPath, plistPath), zap.Error(err))
	}
	if err := m.Controller.Disable(ctx, label); err != nil {
		m.logger.Debug("ignoring disable failure on delete", zap.String(logger.FieldLabel, label), zap.Error(err))
	}
	if err := os.Remove(plistPath); err != nil && !os.IsNotExist(err) {
		return newOpError(OpDelete, plistPath, ErrIO, err)
	}
	return nil
}

func (m *Manager) execute(ctx context.Context, paths []string, op func(context.Context, string) error) error {
	if len(paths) == 0 {
		return nil
	}

	// Semaphore for concurrency control
	sem := make(chan struct{}, m.Concurrency)

	var wg sync.WaitGroup
	var mu sync.Mutex
	merr := &MultiError{}

	for _, path := range paths {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				mu.Lock()
				merr.Add(ctx.Err())
				mu.Unlock()
				return
			}

			opCtx := ctx
			if m.Timeout > 0 {
				var cancel context.CancelFunc
				opCtx, cancel = context.WithTimeout(ctx, m.Timeout)
				defer cancel()
			}

			if err := op(opCtx, p); err != nil {
				mu.Lock()
				merr.Add(err)
				mu.Unlock()
			}
		}(path)
	}

	wg.Wait()

	return merr.Err()
}

// StartJobs starts the given user agents concurrently
func (m *Manager) StartJobs(ctx context.Context, paths ...string) error {
	return m.execute(ctx, paths, m.StartJob)
}

// StopJobs stops the given user agents concurrently
func (m *Manager) StopJobs(ctx context.Context, paths ...string) error {
	return m.execute(ctx, paths, m.StopJob)
}

// RestartJobs restarts the given user agents concurrently
func (m *Manager) RestartJobs(ctx context.Context, paths ...string) error {
	return m.execute(ctx, paths, m.RestartJob)
}
