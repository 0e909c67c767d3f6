package launchd

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// Roots are the three directories job definitions are read from
type Roots struct {
	// UserAgents is the invoking user's ~/Library/LaunchAgents
	UserAgents string
	// SystemAgents is scanned only if it exists
	SystemAgents string
	// SystemDaemons is scanned only if it exists
	SystemDaemons string
}

// DefaultRoots returns the standard macOS roots for the current user
func DefaultRoots() (Roots, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Roots{}, newOpError(OpList, "", ErrIO, errors.Wrap(err, "could not find home directory"))
	}
	return Roots{
		UserAgents:    filepath.Join(home, UserAgentsSubdir),
		SystemAgents:  DefaultSystemAgentsDir,
		SystemDaemons: DefaultSystemDaemonsDir,
	}, nil
}

// JobFile is a plist path together with the root it was found under
type JobFile struct {
	Path   string
	Source JobSource
}

// dirs lists the roots to scan. The user agents root is always included;
// system roots only when they exist.
func (r Roots) dirs() []JobFile {
	out := []JobFile{{Path: r.UserAgents, Source: SourceUserAgent}}
	for _, jf := range []JobFile{
		{Path: r.SystemAgents, Source: SourceSystemAgent},
		{Path: r.SystemDaemons, Source: SourceSystemDaemon},
	} {
		if jf.Path == "" {
			continue
		}
		if fi, err := os.Stat(jf.Path); err == nil && fi.IsDir() {
			out = append(out, jf)
		}
	}
	return out
}

// Scan lists *.plist files directly under each root. Unreadable roots are
// skipped.
func (r Roots) Scan() []JobFile {
	var files []JobFile
	for _, root := range r.dirs() {
		entries, err := os.ReadDir(root.Path)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || filepath.Ext(e.Name()) != PlistExt {
				continue
			}
			files = append(files, JobFile{
				Path:   filepath.Join(root.Path, e.Name()),
				Source: root.Source,
			})
		}
	}
	sort.SliceStable(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files
}

// ClassifySource determines a job's source from its path. The daemon check
// runs first: system agents and daemons share the /Library prefix.
func (r Roots) ClassifySource(path string) JobSource {
	switch {
	case strings.Contains(path, DefaultSystemDaemonsDir),
		r.SystemDaemons != "" && strings.HasPrefix(path, r.SystemDaemons):
		return SourceSystemDaemon
	case r.SystemAgents != "" && strings.HasPrefix(path, r.SystemAgents):
		return SourceSystemAgent
	default:
		return SourceUserAgent
	}
}

// EnsureUserAgent rejects any path not textually under the user agents
// directory, reporting the rejection against op. Only user agents may be
// started, stopped, restarted, kickstarted or deleted.
func (r Roots) EnsureUserAgent(op Operation, path string) error {
	if r.UserAgents == "" || !strings.HasPrefix(path, r.UserAgents) {
		return newOpError(op, path, ErrLaunchctl, errors.New(
			"cannot start/stop system agents or daemons; only user agents (~/Library/LaunchAgents) can be managed"))
	}
	return nil
}
