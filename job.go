package launchd

import (
	"fmt"
)

// JobDefinition is the normalized view of one launchd property-list job file.
// Optional fields that are absent in the source stay nil so that Encode
// omits them instead of writing false/zero placeholders.
type JobDefinition struct {
	Label                 string             `json:"label"`
	Program               *string            `json:"program,omitempty"`
	ProgramArguments      []string           `json:"program_arguments,omitempty"`
	RunAtLoad             *bool              `json:"run_at_load,omitempty"`
	KeepAlive             *bool              `json:"keep_alive,omitempty"`
	StartInterval         *uint64            `json:"start_interval,omitempty"`
	StartCalendarInterval []CalendarInterval `json:"start_calendar_interval,omitempty"`
	StandardOutPath       *string            `json:"standard_out_path,omitempty"`
	StandardErrorPath     *string            `json:"standard_error_path,omitempty"`
	WorkingDirectory      *string            `json:"working_directory,omitempty"`
	EnvironmentVariables  map[string]string  `json:"environment_variables,omitempty"`
	Disabled              *bool              `json:"disabled,omitempty"`

	// RawXML is the file's full XML text, used for lossless hand editing
	RawXML string `json:"raw_xml"`
}

// CalendarInterval mirrors one StartCalendarInterval dictionary. A nil
// field means "every value" for that unit.
type CalendarInterval struct {
	Minute  *uint32 `json:"minute,omitempty"`
	Hour    *uint32 `json:"hour,omitempty"`
	Day     *uint32 `json:"day,omitempty"`
	Weekday *uint32 `json:"weekday,omitempty"`
	Month   *uint32 `json:"month,omitempty"`
}

// LoadedService is one row of `launchctl list`
type LoadedService struct {
	Label string `json:"label"`
	// PID is set iff the job is currently running
	PID *int `json:"pid,omitempty"`
	// LastExitCode is meaningful even when the job is not running
	LastExitCode *int `json:"last_exit_code,omitempty"`
}

// Running reports whether the service has a live process
func (s LoadedService) Running() bool {
	return s.PID != nil
}

// JobSource classifies a job by the directory root its file lives under
type JobSource int

const (
	// SourceUserAgent is ~/Library/LaunchAgents
	SourceUserAgent JobSource = iota
	// SourceSystemAgent is /Library/LaunchAgents
	SourceSystemAgent
	// SourceSystemDaemon is /Library/LaunchDaemons
	SourceSystemDaemon
)

// JobSource string constants
const (
	sourceUserAgentStr    = "UserAgent"
	sourceSystemAgentStr  = "SystemAgent"
	sourceSystemDaemonStr = "SystemDaemon"
)

// String returns the string representation of a JobSource
func (s JobSource) String() string {
	switch s {
	case SourceSystemAgent:
		return sourceSystemAgentStr
	case SourceSystemDaemon:
		return sourceSystemDaemonStr
	default:
		return sourceUserAgentStr
	}
}

// MarshalText implements encoding.TextMarshaler
func (s JobSource) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *JobSource) UnmarshalText(b []byte) error {
	switch string(b) {
	case sourceUserAgentStr:
		*s = SourceUserAgent
	case sourceSystemAgentStr:
		*s = SourceSystemAgent
	case sourceSystemDaemonStr:
		*s = SourceSystemDaemon
	default:
		return fmt.Errorf("unknown job source %q", b)
	}
	return nil
}

// JobStatus is the presented status of a job. Reconciliation only produces
// StatusRunning and StatusStopped; the remaining values are kept so that
// consumers sharing this vocabulary can still decode them.
type JobStatus int

const (
	// StatusUnknown is the zero value
	StatusUnknown JobStatus = iota
	// StatusRunning means the job has a live pid
	StatusRunning
	// StatusLoaded means loaded but not running
	StatusLoaded
	// StatusUnloaded means not known to launchd
	StatusUnloaded
	// StatusStopped means no live pid, loaded or not
	StatusStopped
)

// JobStatus string constants
const (
	statusUnknownStr  = "Unknown"
	statusRunningStr  = "Running"
	statusLoadedStr   = "Loaded"
	statusUnloadedStr = "Unloaded"
	statusStoppedStr  = "Stopped"
)

// String returns the string representation of a JobStatus
func (s JobStatus) String() string {
	switch s {
	case StatusRunning:
		return statusRunningStr
	case StatusLoaded:
		return statusLoadedStr
	case StatusUnloaded:
		return statusUnloadedStr
	case StatusStopped:
		return statusStoppedStr
	default:
		return statusUnknownStr
	}
}

// MarshalText implements encoding.TextMarshaler
func (s JobStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *JobStatus) UnmarshalText(b []byte) error {
	switch string(b) {
	case statusRunningStr:
		*s = StatusRunning
	case statusLoadedStr:
		*s = StatusLoaded
	case statusUnloadedStr:
		*s = StatusUnloaded
	case statusStoppedStr:
		*s = StatusStopped
	case statusUnknownStr:
		*s = StatusUnknown
	default:
		return fmt.Errorf("unknown job status %q", b)
	}
	return nil
}

// JobEntry is one row of ListJobs
type JobEntry struct {
	Label        string    `json:"label"`
	PID          *int      `json:"pid,omitempty"`
	LastExitCode *int      `json:"last_exit_code,omitempty"`
	PlistPath    string    `json:"plist_path"`
	Source       JobSource `json:"source"`
	Status       JobStatus `json:"status"`
	// Loaded reports whether launchd knows the label at all
	Loaded bool `json:"loaded"`
}

// Job is the detail view returned by GetJobDetail
type Job struct {
	JobEntry
	Definition *JobDefinition `json:"plist"`
}

// runtimeState derives the presented status from an optional loaded row
func runtimeState(svc *LoadedService) (status JobStatus, pid, exitCode *int, loaded bool) {
	if svc == nil {
		return StatusStopped, nil, nil, false
	}
	if svc.Running() {
		return StatusRunning, svc.PID, svc.LastExitCode, true
	}
	return StatusStopped, svc.PID, svc.LastExitCode, true
}
